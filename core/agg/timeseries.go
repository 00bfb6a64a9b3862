package agg

import (
	"fmt"
	"sort"
	"time"

	"github.com/huangsam/riskboard/schema"
)

// CountByDate counts rows per (date, category) and pivots the counts into a
// matrix whose columns are exactly order, in that order. Dates are ascending.
// A row whose category is not listed in order fails the whole aggregation.
func CountByDate(rows []schema.DerivedRow, date DateField, category StringField, order []string) (schema.CountMatrix, error) {
	columns, err := columnIndex(order)
	if err != nil {
		return schema.CountMatrix{}, err
	}

	cells := make(map[int64][]int)
	days := make(map[int64]time.Time)
	for _, r := range rows {
		value := category.Get(r)
		j, ok := columns[value]
		if !ok {
			return schema.CountMatrix{}, &schema.CategoryOutOfRangeError{
				Field:   category.Name,
				Value:   value,
				Allowed: order,
			}
		}
		d := date.Get(r)
		key := d.Unix()
		counts, seen := cells[key]
		if !seen {
			counts = make([]int, len(order))
			cells[key] = counts
			days[key] = d
		}
		counts[j]++
	}

	keys := make([]int64, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	matrix := schema.CountMatrix{
		Dates:      make([]time.Time, len(keys)),
		Categories: append([]string(nil), order...),
		Counts:     make([][]int, len(keys)),
	}
	for i, k := range keys {
		matrix.Dates[i] = days[k]
		matrix.Counts[i] = cells[k]
	}
	return matrix, nil
}

// columnIndex maps each category label to its column position.
func columnIndex(order []string) (map[string]int, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("category order must not be empty")
	}
	columns := make(map[string]int, len(order))
	for j, c := range order {
		if _, dup := columns[c]; dup {
			return nil, fmt.Errorf("category %q listed twice in column order", c)
		}
		columns[c] = j
	}
	return columns, nil
}
