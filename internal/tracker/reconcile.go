package tracker

import (
	"sort"

	"github.com/astrathh/taskify-habitory/internal/db"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Build merges tasks and the habits of every given progress document into a
// single sorted list. The output depends only on the inputs.
func Build(tasks []db.Task, docs []db.MonthlyProgress) []Item {
	size := len(tasks)
	for _, doc := range docs {
		size += len(doc.Habits)
	}

	items := make([]Item, 0, size)
	for _, t := range tasks {
		items = append(items, FromTask(t))
	}
	for _, doc := range docs {
		for _, h := range doc.Habits {
			items = append(items, FromHabit(doc, h))
		}
	}

	Sort(items)
	return items
}

// Sort orders dated items by due date ascending, then undated items. Within
// each group ties fall back to name (Portuguese collation, case-insensitive),
// then id.
func Sort(items []Item) {
	names := collate.New(language.BrazilianPortuguese, collate.IgnoreCase, collate.IgnoreDiacritics)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}

		if c := names.CompareString(a.Name, b.Name); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}

// Find looks an item up by id.
func Find(items []Item, id string) (Item, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// Filter 列表过滤条件，空字段表示不过滤
type Filter struct {
	Kind     Kind
	Status   string
	Priority string
}

// Apply returns the items matching every non-empty criterion. Priority only
// matches tasks.
func (f Filter) Apply(items []Item) []Item {
	if f.Kind == "" && f.Status == "" && f.Priority == "" {
		return items
	}

	out := make([]Item, 0, len(items))
	for _, item := range items {
		if f.Kind != "" && item.Kind != f.Kind {
			continue
		}
		if f.Status != "" && item.Status != f.Status {
			continue
		}
		if f.Priority != "" && (item.Task == nil || item.Task.Priority != f.Priority) {
			continue
		}
		out = append(out, item)
	}
	return out
}
