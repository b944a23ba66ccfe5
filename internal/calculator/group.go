package calculator

import "GroceryLens/internal/model"

// GroupByPlace partitions records by place. Groups appear in the order their
// place is first seen; records keep their original order within a group.
func GroupByPlace(records []model.PriceRecord) []model.PlaceGroup {
	var groups []model.PlaceGroup
	index := make(map[string]int)
	for _, r := range records {
		i, ok := index[r.Place]
		if !ok {
			i = len(groups)
			index[r.Place] = i
			groups = append(groups, model.PlaceGroup{Place: r.Place})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	return groups
}
