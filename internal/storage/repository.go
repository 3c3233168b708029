package storage

import (
	"context"
	"errors"

	"github.com/memorizer/remindd/internal/model"
)

var ErrNotFound = errors.New("storage: not found")

type Repository interface {
	CreateItem(ctx context.Context, in model.Item) (int64, error)
	GetItem(ctx context.Context, id int64) (model.Item, error)
	UpdateItem(ctx context.Context, in model.Item) error
	UpdateItemDate(ctx context.Context, id int64, date model.Date) error
	DeleteItem(ctx context.Context, id int64) error
	ListItems(ctx context.Context, filter ItemListFilter) ([]model.Item, error)
}

type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	ListSettings(ctx context.Context) ([]Setting, error)
}
