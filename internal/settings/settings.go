package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/memorizer/remindd/internal/storage"
)

const (
	KeyRemindersEnabled      = "Enable reminders"
	KeyDailyRemindersEnabled = "Enable daily reminders"
	KeyDefaultSound          = "Default sound"
	KeyDefaultDailySound     = "Default daily sound"
	KeyLanguage              = "Language"
)

type Store interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// DefaultSoundFunc computes the platform default sound the first time a
// default sound setting is read. It returns "" when nothing is available.
type DefaultSoundFunc func() string

type Service struct {
	store        Store
	defaultSound DefaultSoundFunc
	fallbackLang string
	logger       *slog.Logger
}

func NewService(store Store, defaultSound DefaultSoundFunc, fallbackLang string, logger *slog.Logger) *Service {
	if defaultSound == nil {
		defaultSound = func() string { return "" }
	}
	if logger == nil {
		logger = slog.Default()
	}
	if fallbackLang == "" {
		fallbackLang = "en"
	}
	return &Service{store: store, defaultSound: defaultSound, fallbackLang: fallbackLang, logger: logger}
}

func (s *Service) RemindersEnabled(ctx context.Context) (bool, error) {
	return s.toggle(ctx, KeyRemindersEnabled)
}

func (s *Service) SetRemindersEnabled(ctx context.Context, on bool) error {
	return s.store.SetSetting(ctx, KeyRemindersEnabled, strconv.FormatBool(on))
}

func (s *Service) DailyRemindersEnabled(ctx context.Context) (bool, error) {
	return s.toggle(ctx, KeyDailyRemindersEnabled)
}

func (s *Service) SetDailyRemindersEnabled(ctx context.Context, on bool) error {
	return s.store.SetSetting(ctx, KeyDailyRemindersEnabled, strconv.FormatBool(on))
}

func (s *Service) DefaultSound(ctx context.Context) (string, error) {
	return s.lazy(ctx, KeyDefaultSound)
}

func (s *Service) SetDefaultSound(ctx context.Context, sound string) error {
	return s.store.SetSetting(ctx, KeyDefaultSound, sound)
}

func (s *Service) DefaultDailySound(ctx context.Context) (string, error) {
	return s.lazy(ctx, KeyDefaultDailySound)
}

func (s *Service) SetDefaultDailySound(ctx context.Context, sound string) error {
	return s.store.SetSetting(ctx, KeyDefaultDailySound, sound)
}

// Language returns the last language used for notifications, or the
// configured fallback when none was stored.
func (s *Service) Language(ctx context.Context) string {
	v, err := s.store.GetSetting(ctx, KeyLanguage)
	if err != nil || strings.TrimSpace(v) == "" {
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("settings: read language failed", slog.String("error", err.Error()))
		}
		return s.fallbackLang
	}
	return v
}

func (s *Service) SetLanguage(ctx context.Context, lang string) error {
	return s.store.SetSetting(ctx, KeyLanguage, strings.TrimSpace(lang))
}

// toggle reads a boolean setting. A missing value counts as on; any stored
// value other than "true" counts as off.
func (s *Service) toggle(ctx context.Context, key string) (bool, error) {
	v, err := s.store.GetSetting(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return true, fmt.Errorf("settings: read %q: %w", key, err)
	}
	v = strings.TrimSpace(v)
	if v != "true" && v != "false" {
		s.logger.Warn("settings: unrecognised toggle value, treating as disabled",
			slog.String("key", key), slog.String("value", v))
	}
	return v == "true", nil
}

func (s *Service) lazy(ctx context.Context, key string) (string, error) {
	v, err := s.store.GetSetting(ctx, key)
	if err == nil && v != "" {
		return v, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("settings: read %q: %w", key, err)
	}
	computed := s.defaultSound()
	if computed == "" {
		return "", nil
	}
	if err := s.store.SetSetting(ctx, key, computed); err != nil {
		s.logger.Warn("settings: persist default failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return computed, nil
}
