package agendaui

import (
	"context"
	"fmt"
	"time"

	"github.com/memorizer/remindd/internal/alarm"
	"github.com/memorizer/remindd/internal/bridge"
)

// Source supplies the pending alarms shown on the agenda.
type Source interface {
	Pending(ctx context.Context) ([]alarm.View, error)
	Resync(ctx context.Context) (alarm.Summary, error)
	Cancel(ctx context.Context, v alarm.View) (bool, error)
	Snooze(ctx context.Context, itemID int64, minutes int) (time.Time, error)
}

type Caller interface {
	Call(ctx context.Context, method string, args any, out any) error
}

// Remote reads the agenda from a running daemon over the call bridge.
type Remote struct {
	caller Caller
}

func NewRemote(c Caller) *Remote {
	return &Remote{caller: c}
}

func (r *Remote) Pending(ctx context.Context) ([]alarm.View, error) {
	var out []alarm.View
	if err := r.caller.Call(ctx, bridge.MethodListPending, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Remote) Resync(ctx context.Context) (alarm.Summary, error) {
	var out alarm.Summary
	err := r.caller.Call(ctx, bridge.MethodResync, nil, &out)
	return out, err
}

// Cancel removes a specific reminder or a snooze. Other kinds are re-armed
// by the next resync and cannot be cancelled one by one here.
func (r *Remote) Cancel(ctx context.Context, v alarm.View) (bool, error) {
	var method string
	switch v.Kind {
	case alarm.KindSpecific:
		method = bridge.MethodCancelSpecific
	case alarm.KindSnooze:
		method = bridge.MethodCancelSnooze
	default:
		return false, fmt.Errorf("cannot cancel %s alarms from the agenda", v.Kind)
	}
	var out struct {
		Cancelled bool `json:"cancelled"`
	}
	if err := r.caller.Call(ctx, method, map[string]int64{"id": v.ItemID}, &out); err != nil {
		return false, err
	}
	return out.Cancelled, nil
}

// Snooze arms a snooze for itemID. The daemon fills in the item's text.
func (r *Remote) Snooze(ctx context.Context, itemID int64, minutes int) (time.Time, error) {
	var out struct {
		TriggerAt time.Time `json:"trigger_at"`
	}
	err := r.caller.Call(ctx, bridge.MethodSnooze, bridge.SnoozeArgs{ID: itemID, Minutes: minutes}, &out)
	return out.TriggerAt, err
}
