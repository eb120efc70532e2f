// Package taxonomy maps incident categories to their severity color codes.
package taxonomy

import (
	"fmt"

	"github.com/zulandar/incidentdesk/internal/fault"
	"github.com/zulandar/incidentdesk/internal/models"
)

// Category is one row of the incident taxonomy.
type Category struct {
	Label string           `json:"incidentType"`
	Color models.ColorCode `json:"colorCode"`
}

// Classification is the result of classifying an incident label.
type Classification struct {
	IncidentType string           `json:"incidentType"`
	ColorCode    models.ColorCode `json:"colorCode"`
}

// Taxonomy is an ordered, immutable category table.
type Taxonomy struct {
	categories []Category
	byLabel    map[string]models.ColorCode
	byColor    map[models.ColorCode]string
}

var defaultCategories = []Category{
	{Label: "Non-Emergency Incidents", Color: models.ColorGreen},
	{Label: "Warnings or Potential Threats", Color: models.ColorYellow},
	{Label: "Medical Emergencies", Color: models.ColorBlue},
	{Label: "Critical or Life-Threatening Incidents", Color: models.ColorRed},
	{Label: "Police Assistance Button", Color: models.ColorCyanBlue},
}

// Default returns the five-category municipal taxonomy.
func Default() *Taxonomy {
	t, err := New(defaultCategories...)
	if err != nil {
		panic(fmt.Sprintf("taxonomy: default table: %v", err))
	}
	return t
}

// New builds a taxonomy from entries. Labels and colors must be non-empty
// and unique.
func New(entries ...Category) (*Taxonomy, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("taxonomy: at least one category is required")
	}
	t := &Taxonomy{
		categories: make([]Category, 0, len(entries)),
		byLabel:    make(map[string]models.ColorCode, len(entries)),
		byColor:    make(map[models.ColorCode]string, len(entries)),
	}
	for i, e := range entries {
		if e.Label == "" || e.Color == "" {
			return nil, fmt.Errorf("taxonomy: entry %d: label and color are required", i)
		}
		if _, dup := t.byLabel[e.Label]; dup {
			return nil, fmt.Errorf("taxonomy: duplicate label %q", e.Label)
		}
		if _, dup := t.byColor[e.Color]; dup {
			return nil, fmt.Errorf("taxonomy: duplicate color %q", e.Color)
		}
		t.categories = append(t.categories, e)
		t.byLabel[e.Label] = e.Color
		t.byColor[e.Color] = e.Label
	}
	return t, nil
}

// Classify looks up the color code for an incident label. Matching is exact.
func (t *Taxonomy) Classify(label string) (Classification, error) {
	color, ok := t.byLabel[label]
	if !ok {
		return Classification{}, fault.New(fault.ErrInvalidTaxonomy, "unknown incident type %q", label)
	}
	return Classification{IncidentType: label, ColorCode: color}, nil
}

// LabelForColor is the reverse lookup used when grouping messages by category.
func (t *Taxonomy) LabelForColor(color models.ColorCode) (string, bool) {
	label, ok := t.byColor[color]
	return label, ok
}

// Categories returns a copy of the table in declaration order.
func (t *Taxonomy) Categories() []Category {
	out := make([]Category, len(t.categories))
	copy(out, t.categories)
	return out
}
