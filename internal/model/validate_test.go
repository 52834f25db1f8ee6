package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMeetingLink(t *testing.T) {
	tests := []struct {
		link    string
		wantErr bool
	}{
		{"", false},
		{"https://example.com/room/abc", false},
		{"http://example.com", true},
		{"example.com/room", true},
		{"https://", true},
		{"ftp://example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			err := ValidateMeetingLink(tt.link)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateSessionDate(t *testing.T) {
	now := time.Date(2026, 10, 15, 18, 30, 0, 0, time.UTC)

	assert.NoError(t, ValidateSessionDate("session_date", now, now))
	assert.NoError(t, ValidateSessionDate("session_date", now.AddDate(0, 0, 1), now))

	err := ValidateSessionDate("session_date", now.AddDate(0, 0, -1), now)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "session_date", verr.Field)
	assert.Equal(t, "must not be in the past", verr.Rule)

	assert.Error(t, ValidateSessionDate("session_date", time.Time{}, now))
}

func TestParseClock(t *testing.T) {
	got, err := ParseClock("start_time", "9:05")
	require.NoError(t, err)
	assert.Equal(t, "09:05", got)

	got, err = ParseClock("start_time", "14:30:00")
	require.NoError(t, err)
	assert.Equal(t, "14:30", got)

	_, err = ParseClock("start_time", "25:00")
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = ParseClock("start_time", "")
	assert.ErrorContains(t, err, "is required")
}

func TestTherapistValidate(t *testing.T) {
	th := &Therapist{FullName: "Dr. Ada", FeeCents: 0}
	assert.NoError(t, th.Validate())

	th.FeeCents = -1
	assert.ErrorContains(t, th.Validate(), "fee_cents")

	th.FeeCents = 100
	th.YearsExperience = -2
	assert.ErrorContains(t, th.Validate(), "years_experience")

	th.YearsExperience = 2
	th.FullName = "  "
	assert.ErrorContains(t, th.Validate(), "full_name")
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden(ErrNotFound))
	assert.True(t, IsHidden(ErrForbidden))
	assert.False(t, IsHidden(ErrConflict))
}
