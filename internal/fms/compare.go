package fms

import (
	"fmt"
	"math"
)

// Scores maps a movement key to its score.
type Scores map[string]int

// Total sums the catalog movements present in s.
func (s Scores) Total() int {
	total := 0
	for _, c := range Categories {
		total += s[c.Key]
	}
	return total
}

// Change is the difference of one movement (or the total) between two assessments.
type Change struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Old     int     `json:"old"`
	New     int     `json:"new"`
	Diff    int     `json:"diff"`
	Percent float64 `json:"-"`

	// PercentChange is Percent rounded to one decimal, nil when undefined.
	PercentChange *float64 `json:"percent_change"`
	Display       string   `json:"percent_display"`
}

// Comparison lists per-movement changes in catalog order plus the total.
type Comparison struct {
	Rows  []Change `json:"rows"`
	Total Change   `json:"total"`
}

// NewChange computes diff = new - old and the percentage change relative to old.
// The percentage is NaN when old is zero.
func NewChange(key, label string, oldScore, newScore int) Change {
	diff := newScore - oldScore
	percent := math.NaN()
	if oldScore != 0 {
		percent = math.Round(float64(diff)/float64(oldScore)*1000) / 10
	}

	c := Change{
		Key:     key,
		Label:   label,
		Old:     oldScore,
		New:     newScore,
		Diff:    diff,
		Percent: percent,
		Display: FormatPercent(percent),
	}
	if !math.IsNaN(percent) {
		p := percent
		c.PercentChange = &p
	}
	return c
}

// Compare builds the per-movement comparison of two score sets.
func Compare(oldScores, newScores Scores) Comparison {
	rows := make([]Change, 0, len(Categories))
	for _, c := range Categories {
		rows = append(rows, NewChange(c.Key, c.Label, oldScores[c.Key], newScores[c.Key]))
	}
	return Comparison{
		Rows:  rows,
		Total: NewChange("total", "合計", oldScores.Total(), newScores.Total()),
	}
}

// FormatPercent renders a percentage as "+66.7%", "-20.0%" or "0.0%"; NaN renders "N/A".
func FormatPercent(p float64) string {
	if math.IsNaN(p) {
		return "N/A"
	}
	if p > 0 {
		return fmt.Sprintf("+%.1f%%", p)
	}
	return fmt.Sprintf("%.1f%%", p)
}
