package alarm

import (
	"context"
	"sort"
	"time"

	"github.com/memorizer/remindd/internal/model"
)

const DefaultPreviewCount = 5

type ItemGetter interface {
	GetItem(ctx context.Context, id int64) (model.Item, error)
}

// ItemPreview lists the upcoming occurrences of one stored item.
type ItemPreview struct {
	ItemID      int64       `json:"item_id"`
	Title       string      `json:"title"`
	Kind        string      `json:"kind"`
	RRule       string      `json:"rrule,omitempty"`
	Occurrences []time.Time `json:"occurrences"`
}

// PreviewItem computes the next count occurrences of item id after from.
// Daily items merge the occurrences of every configured time; without
// any configured time they have none.
func PreviewItem(ctx context.Context, items ItemGetter, id int64, from time.Time, count int) (ItemPreview, error) {
	if count <= 0 {
		count = DefaultPreviewCount
	}
	item, err := items.GetItem(ctx, id)
	if err != nil {
		return ItemPreview{}, err
	}
	title, _ := item.Text()
	out := ItemPreview{ItemID: item.ID, Title: title, Kind: string(item.Kind()), Occurrences: []time.Time{}}
	if !item.Scheduled() || (item.Kind() == model.KindDaily && len(item.DailyTimes) == 0) {
		return out, nil
	}

	rule := item.Rule()
	if err := rule.Validate(); err != nil {
		return ItemPreview{}, err
	}
	out.RRule = rule.RRuleString(from)

	rules := []model.Rule{rule}
	if rule.Kind == model.KindDaily && len(item.DailyTimes) > 1 {
		rules = rules[:0]
		for _, tod := range item.DailyTimes {
			r := rule
			r.Time = tod
			rules = append(rules, r)
		}
	}
	for _, r := range rules {
		next, err := r.Preview(from, count)
		if err != nil {
			return ItemPreview{}, err
		}
		out.Occurrences = append(out.Occurrences, next...)
	}
	sort.Slice(out.Occurrences, func(i, j int) bool {
		return out.Occurrences[i].Before(out.Occurrences[j])
	})
	if len(out.Occurrences) > count {
		out.Occurrences = out.Occurrences[:count]
	}
	return out, nil
}
