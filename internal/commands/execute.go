package commands

import (
	"context"
	"fmt"
)

type Result struct {
	Message string
}

type Handlers struct {
	Snooze func(context.Context, SnoozeArgs) (Result, error)
	Cancel func(context.Context, CancelArgs) (Result, error)
	Resync func(context.Context) (Result, error)
	Show   func(ShowArgs) (Result, error)
}

func Execute(ctx context.Context, cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeSnooze:
		if handlers.Snooze == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Snooze(ctx, *cmd.Snooze)
	case TypeCancel:
		if handlers.Cancel == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Cancel(ctx, *cmd.Cancel)
	case TypeResync:
		if handlers.Resync == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Resync(ctx)
	case TypeShow:
		if handlers.Show == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Show(*cmd.Show)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}
