package registry

import (
	"strings"
	"time"

	"github.com/your-org/reconnect/internal/models"
)

// Criteria holds optional search constraints. Zero values impose none.
type Criteria struct {
	Location          string
	AgeMin            *int
	AgeMax            *int
	Category          models.Category
	ReportedOnOrAfter *time.Time
}

// IsEmpty reports whether the criteria constrain nothing.
func (c Criteria) IsEmpty() bool {
	return c.Location == "" &&
		c.AgeMin == nil &&
		c.AgeMax == nil &&
		(c.Category == "" || c.Category == models.CategoryAll) &&
		c.ReportedOnOrAfter == nil
}

// Matches applies every constraint to r. A record whose dateReported does
// not parse always passes the date constraint.
func (c Criteria) Matches(r models.PersonRecord) bool {
	if c.Location != "" && !strings.Contains(strings.ToLower(r.Location), strings.ToLower(c.Location)) {
		return false
	}
	if c.AgeMin != nil && int(r.Age) < *c.AgeMin {
		return false
	}
	if c.AgeMax != nil && int(r.Age) > *c.AgeMax {
		return false
	}
	if c.Category != "" && c.Category != models.CategoryAll && r.Category != c.Category {
		return false
	}
	if c.ReportedOnOrAfter != nil {
		reported, err := time.Parse(models.DateLayout, r.DateReported)
		if err == nil && reported.Before(dateOnly(*c.ReportedOnOrAfter)) {
			return false
		}
	}
	return true
}

// Filter returns the records matching c, in their original order.
func Filter(records []models.PersonRecord, c Criteria) []models.PersonRecord {
	out := make([]models.PersonRecord, 0, len(records))
	for _, r := range records {
		if c.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// ParseDate parses a YYYY-MM-DD criterion.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(models.DateLayout, s)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
