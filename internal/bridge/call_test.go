package bridge

import (
	"context"
	"errors"
	"testing"
)

func TestParseCall(t *testing.T) {
	c, err := Parse([]byte(`{"method":" snoozeReminder ","arguments":{"id":3,"minutes":10}}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if c.Method != MethodSnooze {
		t.Fatalf("unexpected method: %q", c.Method)
	}
	var args SnoozeArgs
	if err := c.Bind(&args); err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if args.ID != 3 || args.Minutes != 10 {
		t.Fatalf("unexpected args: %#v", args)
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	cases := []struct {
		in   string
		code ErrorCode
	}{
		{"", ErrCodeEmptyInput},
		{"   ", ErrCodeEmptyInput},
		{`{"arguments":{}}`, ErrCodeEmptyInput},
		{`{"method":`, ErrCodeInvalidArgument},
	}
	for _, tc := range cases {
		_, err := Parse([]byte(tc.in))
		var ce *CallError
		if !errors.As(err, &ce) || ce.Code != tc.code {
			t.Fatalf("parse %q: expected %s, got %v", tc.in, tc.code, err)
		}
	}
}

func TestBindWrongTypes(t *testing.T) {
	c := Call{Method: MethodCancelSpecific, Arguments: []byte(`{"id":"seven"}`)}
	var args itemArgs
	var ce *CallError
	if err := c.Bind(&args); !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if err := (Call{Method: MethodCancelAll}).Bind(&args); err != nil {
		t.Fatalf("missing arguments must bind cleanly: %v", err)
	}
}

func TestExecuteDispatch(t *testing.T) {
	called := false
	res, err := Execute(context.Background(), Call{Method: MethodStopSound}, Handlers{
		MethodStopSound: func(context.Context, Call) (any, error) {
			called = true
			return "ok", nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res != "ok" {
		t.Fatalf("unexpected execute result: %v called=%v", res, called)
	}
}

func TestExecuteErrors(t *testing.T) {
	var ce *CallError
	_, err := Execute(context.Background(), Call{Method: "launchRockets"}, Handlers{})
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownMethod {
		t.Fatalf("expected unknown method, got %v", err)
	}
	_, err = Execute(context.Background(), Call{Method: MethodResync}, Handlers{})
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected handler missing, got %v", err)
	}
	_, err = Execute(context.Background(), Call{Method: MethodResync}, Handlers{
		MethodResync: func(context.Context, Call) (any, error) { return nil, errors.New("disk on fire") },
	})
	if !errors.As(err, &ce) || ce.Code != ErrCodeFailed || ce.Message != "disk on fire" {
		t.Fatalf("expected failed, got %v", err)
	}
}
