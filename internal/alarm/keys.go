package alarm

import (
	"time"

	"github.com/memorizer/remindd/internal/model"
	"github.com/memorizer/remindd/internal/scheduler"
)

const (
	KindSpecific    = "specific"
	KindDaily       = "daily"
	KindPeriod      = "period"
	KindSnooze      = "snooze"
	KindMaintenance = "maintenance"
)

// SnoozeBase offsets snooze codes away from item ids.
const SnoozeBase = 1000000

func SpecificKey(itemID int64) scheduler.Key {
	return scheduler.Key{Kind: KindSpecific, Code: itemID}
}

func DailyKey(itemID int64, tod model.TimeOfDay) scheduler.Key {
	return scheduler.Key{Kind: KindDaily, Code: itemID*10000 + int64(tod.Hour*100+tod.Minute)}
}

func PeriodKey(itemID int64, month time.Month, day int) scheduler.Key {
	return scheduler.Key{Kind: KindPeriod, Code: itemID*10000 + int64(int(month)*100+day)}
}

func SnoozeKey(itemID int64) scheduler.Key {
	return scheduler.Key{Kind: KindSnooze, Code: SnoozeBase + itemID}
}

func MaintenanceKey() scheduler.Key {
	return scheduler.Key{Kind: KindMaintenance}
}

// Payload travels with an alarm so it can be re-armed without storage.
type Payload struct {
	ItemID int64                `json:"item_id"`
	Kind   model.RecurrenceKind `json:"kind"`
	Time   model.TimeOfDay      `json:"time"`
	Days   model.DayMask        `json:"days,omitempty"`
	Anchor model.Date           `json:"anchor"`
	Snooze *SnoozeData          `json:"snooze,omitempty"`
}

type SnoozeData struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Sound   string `json:"sound,omitempty"`
	Daily   bool   `json:"daily"`
}

// View is the listing shape of a pending alarm.
type View struct {
	Key       string    `json:"key"`
	Kind      string    `json:"kind"`
	ItemID    int64     `json:"item_id"`
	TriggerAt time.Time `json:"trigger_at"`
	Delivery  string    `json:"delivery"`
	Title     string    `json:"title,omitempty"`
}

func ViewOf(a scheduler.Alarm) View {
	v := View{
		Key:       a.Key.String(),
		Kind:      a.Key.Kind,
		TriggerAt: a.TriggerAt,
		Delivery:  a.Delivery.String(),
	}
	if p, ok := a.Payload.(Payload); ok {
		v.ItemID = p.ItemID
		if p.Snooze != nil {
			v.Title = p.Snooze.Title
		}
	}
	return v
}
