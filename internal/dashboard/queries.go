// Package dashboard computes the read-only views shown on the operator
// dashboard.
package dashboard

import (
	"context"
	"fmt"

	"github.com/zulandar/incidentdesk/internal/models"
	"github.com/zulandar/incidentdesk/internal/taxonomy"
	"gorm.io/gorm"
)

// Reporter reads messages for display. It never writes.
type Reporter struct {
	db        *gorm.DB
	taxonomy  *taxonomy.Taxonomy
	barangays *taxonomy.Barangays
}

// NewReporter returns a Reporter. Nil tables fall back to the defaults.
func NewReporter(db *gorm.DB, tax *taxonomy.Taxonomy, barangays *taxonomy.Barangays) *Reporter {
	if tax == nil {
		tax = taxonomy.Default()
	}
	if barangays == nil {
		barangays = taxonomy.NewBarangays(nil)
	}
	return &Reporter{db: db, taxonomy: tax, barangays: barangays}
}

// Counts holds message counts keyed by category label and by status label.
type Counts struct {
	Categories map[string]int `json:"categories"`
	Statuses   map[string]int `json:"statuses"`
	Total      int            `json:"total"`
}

// Counts tallies all messages by the taxonomy label of their color code and
// by the display label of their status. Messages without a color code, or
// with a color or status the tables don't know, are left out of that map.
func (r *Reporter) Counts(ctx context.Context) (Counts, error) {
	type row struct {
		ColorCode *string
		Status    *string
		Count     int
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&models.ReceivedMessage{}).
		Select("color_code, status, count(*) as count").
		Group("color_code, status").
		Find(&rows).Error; err != nil {
		return Counts{}, fmt.Errorf("dashboard: counts: %w", err)
	}

	out := Counts{
		Categories: make(map[string]int),
		Statuses:   make(map[string]int),
	}
	for _, rw := range rows {
		out.Total += rw.Count
		if rw.ColorCode != nil {
			if label, ok := r.taxonomy.LabelForColor(models.ColorCode(*rw.ColorCode)); ok {
				out.Categories[label] += rw.Count
			}
		}
		if rw.Status != nil {
			if st := models.MessageStatus(*rw.Status); st.Valid() {
				out.Statuses[st.DisplayLabel()] += rw.Count
			}
		}
	}
	return out, nil
}

// InboxFilter selects messages for one dashboard tab.
type InboxFilter struct {
	// Barangay is a barangay name, taxonomy.AllBarangays (or empty) for no
	// filter, or taxonomy.UnknownBarangay for messages outside the directory.
	Barangay string
	Statuses []models.MessageStatus
}

// Inbox returns messages matching f, newest first.
func (r *Reporter) Inbox(ctx context.Context, f InboxFilter) ([]models.ReceivedMessage, error) {
	q := r.db.WithContext(ctx).Model(&models.ReceivedMessage{})

	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("status IN ?", statuses)
	}

	switch f.Barangay {
	case "", taxonomy.AllBarangays:
	case taxonomy.UnknownBarangay:
		q = q.Where("(barangay IS NULL OR barangay NOT IN ?)", r.barangays.Names())
	default:
		q = q.Where("barangay = ?", f.Barangay)
	}

	var msgs []models.ReceivedMessage
	if err := q.Order("received_at DESC, id DESC").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("dashboard: inbox: %w", err)
	}
	return msgs, nil
}

// Barangays returns the directory the inbox groups by.
func (r *Reporter) Barangays() *taxonomy.Barangays { return r.barangays }
