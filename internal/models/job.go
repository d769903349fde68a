package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type LocationType string

const (
	LocationRemote LocationType = "Remote"
	LocationHybrid LocationType = "Hybrid"
	LocationOnSite LocationType = "On-site"
)

// LocationTypes lists the valid location types in display order.
var LocationTypes = []LocationType{LocationRemote, LocationHybrid, LocationOnSite}

func (l LocationType) Valid() bool {
	for _, lt := range LocationTypes {
		if l == lt {
			return true
		}
	}
	return false
}

// ParseLocationType infers a location type from a free-form location string.
// Anything that is neither remote nor hybrid is treated as on-site.
func ParseLocationType(location string) LocationType {
	lower := strings.ToLower(location)
	switch {
	case strings.Contains(lower, "remote"):
		return LocationRemote
	case strings.Contains(lower, "hybrid"):
		return LocationHybrid
	default:
		return LocationOnSite
	}
}

const (
	DepartmentEngineering = "Engineering"
	DepartmentDesign      = "Design"
	DepartmentProduct     = "Product"
	DepartmentDataScience = "Data Science"
	DepartmentSecurity    = "Security"
	// DepartmentOther is assigned to upstream records that carry no department.
	DepartmentOther = "Other"
)

// Departments is the fixed department set in display order.
var Departments = []string{
	DepartmentEngineering,
	DepartmentDesign,
	DepartmentProduct,
	DepartmentDataScience,
	DepartmentSecurity,
	DepartmentOther,
}

func IsDepartment(d string) bool {
	for _, dep := range Departments {
		if d == dep {
			return true
		}
	}
	return false
}

// SalaryRange is stored inline on the listing row.
type SalaryRange struct {
	Min      float64 `json:"min" yaml:"min" gorm:"not null;default:0"`
	Max      float64 `json:"max" yaml:"max" gorm:"not null;default:0"`
	Currency string  `json:"currency" yaml:"currency" gorm:"size:3;not null;default:'USD'"`
}

// JobListing is a job as shown on the board. Listings are read-only once loaded.
type JobListing struct {
	ID           string       `json:"id" yaml:"id" gorm:"primaryKey;size:64"`
	Title        string       `json:"title" yaml:"title" gorm:"not null"`
	Company      string       `json:"company" yaml:"company" gorm:"not null;index"`
	Location     string       `json:"location" yaml:"location" gorm:"not null"`
	LocationType LocationType `json:"locationType" yaml:"locationType" gorm:"size:16;not null;index"`
	Department   string       `json:"department" yaml:"department" gorm:"size:64;not null;index"`
	Salary       SalaryRange  `json:"salary" yaml:"salary" gorm:"embedded;embeddedPrefix:salary_"`
	PostedDate   time.Time    `json:"postedDate" yaml:"postedDate" gorm:"not null;index"`
	Description  string       `json:"description" yaml:"description" gorm:"type:text"`
	Requirements []string     `json:"requirements" yaml:"requirements" gorm:"serializer:json;type:text"`
	IsNew        bool         `json:"isNew" yaml:"isNew" gorm:"not null;default:false"`
	Featured     bool         `json:"featured,omitempty" yaml:"featured" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"-" yaml:"-"`
	UpdatedAt time.Time `json:"-" yaml:"-"`
}

var ErrInvalidListing = errors.New("invalid job listing")

// Validate checks the listing invariants.
func (j *JobListing) Validate() error {
	if strings.TrimSpace(j.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidListing)
	}
	if strings.TrimSpace(j.Title) == "" {
		return fmt.Errorf("%w: job %s has no title", ErrInvalidListing, j.ID)
	}
	if !j.LocationType.Valid() {
		return fmt.Errorf("%w: job %s has location type %q", ErrInvalidListing, j.ID, j.LocationType)
	}
	if !IsDepartment(j.Department) {
		return fmt.Errorf("%w: job %s has department %q", ErrInvalidListing, j.ID, j.Department)
	}
	if j.Salary.Min > j.Salary.Max {
		return fmt.Errorf("%w: job %s salary min %.0f exceeds max %.0f", ErrInvalidListing, j.ID, j.Salary.Min, j.Salary.Max)
	}
	return nil
}

// Label returns "<title> at <company>" for notifications.
func (j *JobListing) Label() string {
	return fmt.Sprintf("%s at %s", j.Title, j.Company)
}
