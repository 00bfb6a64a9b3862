package schema

import "time"

// CountMatrix is a date by category table of row counts.
// Counts[i][j] is the number of rows dated Dates[i] whose category is Categories[j].
type CountMatrix struct {
	Dates      []time.Time `json:"dates"`
	Categories []string    `json:"categories"`
	Counts     [][]int     `json:"counts"`
}

// Column returns the counts for one category across every date, or nil when the
// category is not a column of the matrix.
func (m CountMatrix) Column(category string) []int {
	for j, c := range m.Categories {
		if c != category {
			continue
		}
		col := make([]int, len(m.Dates))
		for i := range m.Dates {
			col[i] = m.Counts[i][j]
		}
		return col
	}
	return nil
}

// RowTotal returns the sum of all category counts for the i-th date.
func (m CountMatrix) RowTotal(i int) int {
	total := 0
	for _, n := range m.Counts[i] {
		total += n
	}
	return total
}
