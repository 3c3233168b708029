// Package commands parses the agenda's command palette.
package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Type string

const (
	TypeSnooze Type = "snooze"
	TypeCancel Type = "cancel"
	TypeResync Type = "resync"
	TypeShow   Type = "show"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type SnoozeArgs struct {
	ItemID  int64
	Minutes int
}

type CancelArgs struct {
	Kind   string
	ItemID int64
}

// ShowArgs filters the agenda by alarm kind; an empty Kind shows all.
type ShowArgs struct {
	Kind string
}

type Command struct {
	Type   Type
	Raw    string
	Snooze *SnoozeArgs
	Cancel *CancelArgs
	Show   *ShowArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeSnooze:
		return parseSnooze(input, args)
	case TypeCancel:
		return parseCancel(input, args)
	case TypeResync:
		return Command{Type: TypeResync, Raw: input}, nil
	case TypeShow:
		return parseShow(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseSnooze(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, invalid("snooze requires an item id and a duration")
	}
	id, err := parseItemID(args[0])
	if err != nil {
		return Command{}, err
	}
	minutes, err := ParseMinutes(args[1])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeSnooze, Raw: raw, Snooze: &SnoozeArgs{ItemID: id, Minutes: minutes}}, nil
}

func parseCancel(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, invalid("cancel requires a kind and an item id")
	}
	kind := strings.ToLower(args[0])
	if kind != "specific" && kind != "snooze" {
		return Command{}, invalid("only specific and snooze alarms can be cancelled")
	}
	id, err := parseItemID(args[1])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeCancel, Raw: raw, Cancel: &CancelArgs{Kind: kind, ItemID: id}}, nil
}

func parseShow(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("show requires a kind or all")
	}
	kind := strings.ToLower(args[0])
	switch kind {
	case "all":
		kind = ""
	case "specific", "daily", "period", "snooze", "maintenance":
	default:
		return Command{}, invalid(fmt.Sprintf("unknown alarm kind: %s", kind))
	}
	return Command{Type: TypeShow, Raw: raw, Show: &ShowArgs{Kind: kind}}, nil
}

// ParseMinutes reads a snooze length: bare minutes, a Go duration such as
// "3h", or whole days such as "1d".
func ParseMinutes(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil && n > 0 {
			return n * 24 * 60, nil
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < time.Minute || d%time.Minute != 0 {
		return 0, invalid(fmt.Sprintf("invalid duration: %s", s))
	}
	return int(d / time.Minute), nil
}

func parseItemID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid(fmt.Sprintf("invalid item id: %s", s))
	}
	return id, nil
}

func invalid(msg string) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: msg}
}
