package views

import (
	"fmt"
	"sort"
	"strings"
)

type AgendaEntry struct {
	Key      string
	Kind     string
	Date     string
	Time     string
	Title    string
	Delivery string
}

type PreviewData struct {
	Title       string
	Kind        string
	RRule       string
	Occurrences []string
	ErrorText   string
}

// RenderAgenda lists pending alarms grouped by date.
func RenderAgenda(entries []AgendaEntry) string {
	if len(entries) == 0 {
		return "alarms:\n(none pending)"
	}
	grouped := make(map[string][]AgendaEntry)
	keys := make([]string, 0)
	for _, e := range entries {
		if _, ok := grouped[e.Date]; !ok {
			keys = append(keys, e.Date)
		}
		grouped[e.Date] = append(grouped[e.Date], e)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("alarms:\n")
	for _, day := range keys {
		b.WriteString(fmt.Sprintf("\n%s:\n", day))
		items := grouped[day]
		sort.SliceStable(items, func(i, j int) bool { return items[i].Time < items[j].Time })
		for _, e := range items {
			line := fmt.Sprintf("  [%s] %s %s", strings.ToUpper(e.Kind), e.Time, e.Key)
			if e.Title != "" {
				line += " " + e.Title
			}
			if e.Delivery != "" {
				line += fmt.Sprintf(" (%s)", e.Delivery)
			}
			b.WriteString(line + "\n")
		}
	}
	return strings.TrimSpace(b.String())
}

func RenderPreview(data PreviewData) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(data.Title) + "\n")
	b.WriteString(fmt.Sprintf("kind: %s\n", data.Kind))
	if data.RRule != "" {
		b.WriteString(fmt.Sprintf("rrule: %s\n", data.RRule))
	}
	if data.ErrorText != "" {
		b.WriteString("error: " + data.ErrorText + "\n")
	}
	if len(data.Occurrences) == 0 {
		b.WriteString("next: (none)")
		return b.String()
	}
	b.WriteString("next:\n")
	for _, o := range data.Occurrences {
		b.WriteString("- " + o + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
