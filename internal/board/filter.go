// Package board implements the landing page job search: filtering,
// pagination and the per-session view state that ties them together.
package board

import (
	"strings"

	"jobboard-portal/internal/models"
)

// Sentinels meaning "no constraint" for the two selectors.
const (
	AllDepartments   = "All Departments"
	AllLocationTypes = "All Types"
)

// Criteria is the current search input.
type Criteria struct {
	SearchTerm   string `json:"searchTerm"`
	Department   string `json:"department"`
	LocationType string `json:"locationType"`
}

// DefaultCriteria matches every job.
func DefaultCriteria() Criteria {
	return Criteria{Department: AllDepartments, LocationType: AllLocationTypes}
}

// NewCriteria builds criteria from raw request input. Empty selectors and
// "all" in any case map to the sentinels; everything else is kept verbatim
// so that unknown values simply match nothing.
func NewCriteria(search, department, locationType string) Criteria {
	return Criteria{
		SearchTerm:   search,
		Department:   normalizeSelector(department, AllDepartments),
		LocationType: normalizeSelector(locationType, AllLocationTypes),
	}
}

func normalizeSelector(v, sentinel string) string {
	t := strings.TrimSpace(v)
	if t == "" || strings.EqualFold(t, "all") || strings.EqualFold(t, sentinel) {
		return sentinel
	}
	return t
}

// Matches reports whether job satisfies every constraint of c.
func (c Criteria) Matches(job *models.JobListing) bool {
	if c.Department != AllDepartments && job.Department != c.Department {
		return false
	}
	if c.LocationType != AllLocationTypes && string(job.LocationType) != c.LocationType {
		return false
	}
	if c.SearchTerm == "" {
		return true
	}
	term := strings.ToLower(c.SearchTerm)
	return strings.Contains(strings.ToLower(job.Title), term) ||
		strings.Contains(strings.ToLower(job.Company), term) ||
		strings.Contains(strings.ToLower(job.Description), term)
}

// Filter returns the jobs matching c in their input order. The result is
// never nil.
func Filter(jobs []models.JobListing, c Criteria) []models.JobListing {
	out := make([]models.JobListing, 0, len(jobs))
	for i := range jobs {
		if c.Matches(&jobs[i]) {
			out = append(out, jobs[i])
		}
	}
	return out
}
