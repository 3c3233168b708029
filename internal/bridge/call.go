package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownMethod   ErrorCode = "unknown_method"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
	ErrCodeFailed          ErrorCode = "failed"
)

const (
	MethodInitialize           = "initializeNotifications"
	MethodShowNotification     = "showNotification"
	MethodScheduleSpecific     = "scheduleSpecificReminder"
	MethodCancelSpecific       = "cancelSpecificReminder"
	MethodCancelAll            = "cancelAllNotifications"
	MethodScheduleDaily        = "scheduleDailyReminder"
	MethodCancelDaily          = "cancelDailyReminder"
	MethodCancelAllDaily       = "cancelAllDailyReminders"
	MethodSchedulePeriod       = "schedulePeriodReminder"
	MethodCancelPeriod         = "cancelPeriodReminders"
	MethodSnooze               = "snoozeReminder"
	MethodCancelSnooze         = "cancelSnooze"
	MethodGetSystemSounds      = "getSystemSounds"
	MethodGetDefaultSound      = "getDefaultSound"
	MethodSetDefaultSound      = "setDefaultSound"
	MethodGetDefaultDailySound = "getDefaultDailySound"
	MethodSetDefaultDailySound = "setDefaultDailySound"
	MethodPlaySound            = "playSound"
	MethodStopSound            = "stopSound"
	MethodListPending          = "listPendingAlarms"
	MethodResync               = "resync"
)

// Methods lists every method the bridge understands.
var Methods = []string{
	MethodInitialize, MethodShowNotification,
	MethodScheduleSpecific, MethodCancelSpecific, MethodCancelAll,
	MethodScheduleDaily, MethodCancelDaily, MethodCancelAllDaily,
	MethodSchedulePeriod, MethodCancelPeriod, MethodSnooze, MethodCancelSnooze,
	MethodGetSystemSounds, MethodGetDefaultSound, MethodSetDefaultSound,
	MethodGetDefaultDailySound, MethodSetDefaultDailySound,
	MethodPlaySound, MethodStopSound, MethodListPending, MethodResync,
}

type CallError struct {
	Code    ErrorCode
	Message string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalidArg(format string, args ...any) error {
	return &CallError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// Call is one method invocation from the UI layer.
type Call struct {
	Method    string          `json:"method"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

func Parse(body []byte) (Call, error) {
	raw := bytes.TrimSpace(body)
	if len(raw) == 0 {
		return Call{}, &CallError{Code: ErrCodeEmptyInput, Message: "call is empty"}
	}
	var c Call
	if err := json.Unmarshal(raw, &c); err != nil {
		return Call{}, invalidArg("malformed call: %v", err)
	}
	c.Method = strings.TrimSpace(c.Method)
	if c.Method == "" {
		return Call{}, &CallError{Code: ErrCodeEmptyInput, Message: "method is empty"}
	}
	return c, nil
}

// Bind decodes the call arguments into v. Missing arguments leave v as is.
func (c Call) Bind(v any) error {
	args := bytes.TrimSpace(c.Arguments)
	if len(args) == 0 || bytes.Equal(args, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return invalidArg("%s: %v", c.Method, err)
	}
	return nil
}
