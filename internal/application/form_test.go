package application

import (
	"strings"
	"testing"

	"jobboard-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() models.DraftData {
	return models.DraftData{
		FullName:    "Cameron Williamson",
		Email:       "cameron@work.com",
		Phone:       "+1 (555) 000-0000",
		CoverLetter: strings.Repeat("I build things. ", 5),
		Resume:      &models.FileDescriptor{Name: "resume.pdf", Size: 120_000, ContentType: "application/pdf"},
	}
}

func TestValidate_ValidForm(t *testing.T) {
	assert.NoError(t, Validate(validDraft()))

	d := validDraft()
	d.PortfolioURL = "https://portfolio.me"
	assert.NoError(t, Validate(d))

	d.PortfolioURL = "   "
	assert.NoError(t, Validate(d), "blank portfolio URL counts as absent")
}

func TestValidate_FieldErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *models.DraftData)
		field   string
		message string
	}{
		{"name_too_short", func(d *models.DraftData) { d.FullName = "A" }, "fullName", "Name must be at least 2 characters"},
		{"name_missing", func(d *models.DraftData) { d.FullName = "" }, "fullName", "Name must be at least 2 characters"},
		{"bad_email", func(d *models.DraftData) { d.Email = "not-an-email" }, "email", "Invalid email address"},
		{"phone_too_short", func(d *models.DraftData) { d.Phone = "555-1234" }, "phone", "Phone number must be at least 10 digits"},
		{"phone_letters", func(d *models.DraftData) { d.Phone = "555-CALL-NOW-1234" }, "phone", "Phone number must be at least 10 digits"},
		{"phone_plus_in_middle", func(d *models.DraftData) { d.Phone = "555+0001234567" }, "phone", "Phone number must be at least 10 digits"},
		{"bad_url", func(d *models.DraftData) { d.PortfolioURL = "portfolio dot me" }, "portfolioUrl", "Invalid URL"},
		{"short_cover_letter", func(d *models.DraftData) { d.CoverLetter = "Hire me!!!" }, "coverLetter", "Cover letter must be at least 50 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)

			err := Validate(d)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, map[string]string{tt.field: tt.message}, verr.Fields)
		})
	}
}

func TestValidate_PhoneFormats(t *testing.T) {
	for _, phone := range []string{"5550001234", "+44 20 7946 0958", "(555) 000-0000", "+1-555-000-0000"} {
		t.Run(phone, func(t *testing.T) {
			d := validDraft()
			d.Phone = phone
			assert.NoError(t, Validate(d))
		})
	}
}

func TestValidate_CollectsEveryField(t *testing.T) {
	err := Validate(models.DraftData{})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 4)
	assert.NotContains(t, verr.Fields, "portfolioUrl")
	assert.Contains(t, err.Error(), "coverLetter: Cover letter must be at least 50 characters")
}
