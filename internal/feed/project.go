package feed

import (
	"github.com/DeafMist/tripboard/backend/internal/dedupe"
	"github.com/DeafMist/tripboard/backend/internal/models"
	"github.com/DeafMist/tripboard/backend/internal/processing"
)

// ProjectionSpec names the record fields a strip reads.
type ProjectionSpec struct {
	LabelPath     string
	SecondaryPath string
	// QueryPath feeds the photo lookup. When empty or absent on a record the
	// label and secondary label are used.
	QueryPath    string
	LinkTemplate string
}

// Candidate is a projected item waiting for its photo.
type Candidate struct {
	Item  models.DisplayItem
	Query string
}

// Project maps records to candidates in order. Records without a label are
// skipped, and so is any record whose label repeats an earlier one.
func Project(records []models.Record, proj ProjectionSpec) []Candidate {
	labels := dedupe.NewLabels(len(records))
	out := make([]Candidate, 0, len(records))

	for _, rec := range records {
		label, ok := rec.String(proj.LabelPath)
		if !ok {
			continue
		}
		if !labels.Add(label) {
			continue
		}

		secondary, _ := rec.String(proj.SecondaryPath)
		item := models.DisplayItem{
			ID:             rec.ID,
			PrimaryLabel:   label,
			SecondaryLabel: secondary,
			LinkTarget:     processing.ExpandLink(proj.LinkTemplate, rec.ID),
		}

		query := processing.TextQuery(label, secondary)
		if proj.QueryPath != "" {
			if q, ok := rec.String(proj.QueryPath); ok {
				query = processing.TextQuery(q)
			}
		}

		out = append(out, Candidate{Item: item, Query: query})
	}

	return out
}
