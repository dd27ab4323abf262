package report

import (
	"sort"
	"strings"
)

const otherBucket = "other"

func countKey(value *string) string {
	if value == nil {
		return otherBucket
	}
	key := strings.TrimSpace(*value)
	if key == "" {
		return otherBucket
	}
	return key
}

// BuildByItems flattens the per-look views into wardrobe-wide counts and a
// detailed breakdown. Items are visited look by look, clothing before
// footwear before accessories, so breakdown lists and top-type tie breaks are
// deterministic for a given input.
func BuildByItems(lookViews []LookView) ByItemsView {
	view := ByItemsView{
		Aggregates: ItemAggregates{
			ByCategory: map[string]int{},
			ByColor:    map[string]int{},
			ByType:     map[string]int{},
			TopTypes:   []TypeCount{},
		},
		DetailedBreakdown: ItemBreakdown{
			ByCategory: map[string][]ItemSummary{},
			ByColor:    map[string][]ItemSummary{},
			ByType:     map[string][]ItemSummary{},
		},
	}

	typeOrder := []string{}
	buckets := []string{ItemTypeClothing, ItemTypeFootwear, ItemTypeAccessory}
	for _, lookView := range lookViews {
		for _, bucket := range buckets {
			for _, item := range lookView.ItemsByType[bucket] {
				categoryKey := countKey(item.Category)
				colorKey := countKey(item.Color)
				typeKey := countKey(item.Type)
				if typeKey != otherBucket {
					typeKey = strings.ToLower(typeKey)
				}

				view.Aggregates.TotalItems++
				view.Aggregates.ByCategory[categoryKey]++
				view.Aggregates.ByColor[colorKey]++
				if _, seen := view.Aggregates.ByType[typeKey]; !seen {
					typeOrder = append(typeOrder, typeKey)
				}
				view.Aggregates.ByType[typeKey]++

				view.DetailedBreakdown.ByCategory[categoryKey] = append(view.DetailedBreakdown.ByCategory[categoryKey], item)
				view.DetailedBreakdown.ByColor[colorKey] = append(view.DetailedBreakdown.ByColor[colorKey], item)
				view.DetailedBreakdown.ByType[typeKey] = append(view.DetailedBreakdown.ByType[typeKey], item)
			}
		}
	}

	for _, typeKey := range typeOrder {
		view.Aggregates.TopTypes = append(view.Aggregates.TopTypes, TypeCount{
			Type:  typeKey,
			Count: view.Aggregates.ByType[typeKey],
		})
	}
	// stable sort keeps first-encountered order between equal counts
	sort.SliceStable(view.Aggregates.TopTypes, func(i, j int) bool {
		return view.Aggregates.TopTypes[i].Count > view.Aggregates.TopTypes[j].Count
	})
	if len(view.Aggregates.TopTypes) > 10 {
		view.Aggregates.TopTypes = view.Aggregates.TopTypes[:10]
	}
	return view
}
