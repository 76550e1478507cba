package timeline

import "github.com/timelinekit/timeline/pkg/model"

// YearGroup is a run of items sharing the same year.
type YearGroup struct {
	Year  string
	Items []model.Item
}

// GroupByYear groups items by the year part of their date. Groups appear in
// the order their first item appears, and items keep their input order.
func GroupByYear(items []model.Item) []YearGroup {
	var groups []YearGroup
	index := make(map[string]int)
	for _, it := range items {
		year := yearOf(it.Date)
		i, ok := index[year]
		if !ok {
			i = len(groups)
			index[year] = i
			groups = append(groups, YearGroup{Year: year})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}

func yearOf(date string) string {
	if len(date) < 4 {
		return date
	}
	return date[:4]
}
