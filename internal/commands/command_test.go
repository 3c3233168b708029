package commands

import (
	"context"
	"errors"
	"testing"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/snooze 4 30", TypeSnooze},
		{"cancel snooze 4", TypeCancel},
		{"resync", TypeResync},
		{"show daily", TypeShow},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseSnoozeDurations(t *testing.T) {
	cases := map[string]int{"20": 20, "3h": 180, "1d": 1440, "90m": 90}
	for in, want := range cases {
		cmd, err := Parse("snooze 7 " + in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", in, err)
		}
		if cmd.Snooze.ItemID != 7 || cmd.Snooze.Minutes != want {
			t.Fatalf("snooze %q = %+v, want %d minutes", in, *cmd.Snooze, want)
		}
	}
	for _, bad := range []string{"0", "30s", "soon", "-5"} {
		if _, err := Parse("snooze 7 " + bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestParseRejectsBadArguments(t *testing.T) {
	for _, in := range []string{"", "/", "snooze 4", "cancel daily 4", "cancel snooze x", "show weekly"} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) {
			t.Fatalf("parse %q: expected CommandError, got %v", in, err)
		}
		if ce.Code != ErrCodeInvalidArgument && ce.Code != ErrCodeEmptyInput {
			t.Fatalf("parse %q: unexpected code %s", in, ce.Code)
		}
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/unknown do x")
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/cancel specific 12")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(context.Background(), cmd, Handlers{
		Cancel: func(_ context.Context, a CancelArgs) (Result, error) {
			called = true
			if a.Kind != "specific" || a.ItemID != 12 {
				t.Fatalf("unexpected args: %+v", a)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("show all")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(context.Background(), cmd, Handlers{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}
