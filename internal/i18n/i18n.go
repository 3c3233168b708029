package i18n

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/language"
)

//go:embed locales.json
var localesJSON []byte

type Translator struct {
	labels  map[string]map[string]string
	tags    []language.Tag
	names   []string
	matcher language.Matcher
}

func New() (*Translator, error) {
	var labels map[string]map[string]string
	if err := json.Unmarshal(localesJSON, &labels); err != nil {
		return nil, fmt.Errorf("i18n: parse locales: %w", err)
	}
	return newTranslator(labels)
}

func newTranslator(labels map[string]map[string]string) (*Translator, error) {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	// English first so unmatched languages fall back to it.
	sort.Slice(names, func(i, j int) bool {
		if names[i] == "en" || names[j] == "en" {
			return names[i] == "en"
		}
		return names[i] < names[j]
	})
	tags := make([]language.Tag, 0, len(names))
	for _, name := range names {
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("i18n: locale %q: %w", name, err)
		}
		tags = append(tags, tag)
	}
	return &Translator{labels: labels, tags: tags, names: names, matcher: language.NewMatcher(tags)}, nil
}

// Resolve maps a stored language value such as "ru-RU" to a known locale.
func (t *Translator) Resolve(lang string) string {
	if len(t.names) == 0 {
		return lang
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return t.names[0]
	}
	_, idx, _ := t.matcher.Match(tag)
	return t.names[idx]
}

// T returns the label for key in lang, then in English, then key itself.
func (t *Translator) T(lang, key string) string {
	if v, ok := t.labels[t.Resolve(lang)][key]; ok {
		return v
	}
	if v, ok := t.labels["en"][key]; ok {
		return v
	}
	return key
}

func (t *Translator) Languages() []string {
	return append([]string(nil), t.names...)
}

// SnoozeLabel renders a snooze option such as "30 min", "3 hours" or "1 day".
func (t *Translator) SnoozeLabel(lang string, minutes int) string {
	switch {
	case minutes == 1440:
		return "1 " + t.T(lang, "day")
	case minutes == 60:
		return "1 " + t.T(lang, "hour")
	case minutes > 60 && minutes%60 == 0:
		return fmt.Sprintf("%d %s", minutes/60, t.T(lang, "hours"))
	default:
		return fmt.Sprintf("%d %s", minutes, t.T(lang, "minutes"))
	}
}
