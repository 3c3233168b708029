package bridge

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

type Handler func(ctx context.Context, call Call) (any, error)

type Handlers map[string]Handler

// Execute dispatches call. Handler errors that are not already a CallError
// are reported as failed.
func Execute(ctx context.Context, call Call, handlers Handlers) (any, error) {
	h, ok := handlers[call.Method]
	if !ok || h == nil {
		if slices.Contains(Methods, call.Method) {
			return nil, &CallError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", call.Method)}
		}
		return nil, &CallError{Code: ErrCodeUnknownMethod, Message: fmt.Sprintf("unsupported method: %s", call.Method)}
	}
	res, err := h(ctx, call)
	if err != nil {
		var ce *CallError
		if errors.As(err, &ce) {
			return nil, ce
		}
		return nil, &CallError{Code: ErrCodeFailed, Message: err.Error()}
	}
	return res, nil
}
