package views

import (
	"strings"
	"testing"
)

func TestRenderAgendaGroupsByDate(t *testing.T) {
	out := RenderAgenda([]AgendaEntry{
		{Key: "daily/70630", Kind: "daily", Date: "2026-02-10", Time: "06:30", Title: "Stretch"},
		{Key: "specific/3", Kind: "specific", Date: "2026-02-09", Time: "18:00", Title: "Call mom", Delivery: "exact"},
		{Key: "daily/71830", Kind: "daily", Date: "2026-02-10", Time: "18:30"},
	})
	first := strings.Index(out, "2026-02-09")
	second := strings.Index(out, "2026-02-10")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("dates not ordered:\n%s", out)
	}
	if !strings.Contains(out, "[SPECIFIC] 18:00 specific/3 Call mom (exact)") {
		t.Fatalf("missing specific line:\n%s", out)
	}
	if strings.Index(out, "06:30") > strings.Index(out, "18:30") {
		t.Fatalf("times not ordered within a day:\n%s", out)
	}
}

func TestRenderAgendaEmpty(t *testing.T) {
	if out := RenderAgenda(nil); !strings.Contains(out, "(none pending)") {
		t.Fatalf("unexpected empty agenda: %q", out)
	}
}

func TestRenderAlertShowsHintWhileLocked(t *testing.T) {
	locked := RenderAlert(AlertData{Title: "Pills", Locked: true, Hint: "Press space to unlock", Options: []string{"10 min"}})
	if !strings.Contains(locked, "Press space to unlock") || strings.Contains(locked, "10 min") {
		t.Fatalf("unexpected locked alert:\n%s", locked)
	}
	picking := RenderAlert(AlertData{Title: "Pills", Selecting: true, Prompt: "Postpone for", Options: []string{"10 min", "20 min"}, Cursor: 1})
	if !strings.Contains(picking, "> 20 min") {
		t.Fatalf("cursor not rendered:\n%s", picking)
	}
}

func TestRenderPreviewWithoutOccurrences(t *testing.T) {
	out := RenderPreview(PreviewData{Title: "Dentist", Kind: "none"})
	if !strings.Contains(out, "next: (none)") {
		t.Fatalf("unexpected preview: %q", out)
	}
}

func TestRenderScreenShowsDetailAndStatus(t *testing.T) {
	out := RenderScreen(ScreenData{
		Header:     "remindd agenda",
		Main:       "snooze/1000004",
		Detail:     "key: snooze/1000004",
		StatusLine: "refresh failed: connection refused",
		IsError:    true,
		Footer:     "q quit",
	})
	for _, want := range []string{"remindd agenda", "key: snooze/1000004", "connection refused", "q quit"} {
		if !strings.Contains(out, want) {
			t.Fatalf("screen missing %q:\n%s", want, out)
		}
	}
}
