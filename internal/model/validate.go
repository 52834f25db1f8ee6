package model

import (
	"net/url"
	"strings"
	"time"
)

const clockLayout = "15:04"

// ParseClock нормализует время начала в формат HH:MM
func ParseClock(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", NewValidationError(field, "is required")
	}
	// Postgres отдаёт TIME как HH:MM:SS
	for _, layout := range []string{clockLayout, "15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(clockLayout), nil
		}
	}
	return "", NewValidationError(field, "must be a time in HH:MM format")
}

// DateOf отбрасывает время суток, сохраняя календарную дату
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidateSessionDate rejects zero dates and dates before today
func ValidateSessionDate(field string, date, now time.Time) error {
	if date.IsZero() {
		return NewValidationError(field, "is required")
	}
	if DateOf(date).Before(DateOf(now)) {
		return NewValidationError(field, "must not be in the past")
	}
	return nil
}

// ValidateMeetingLink accepts an empty link or an absolute https URL with a host
func ValidateMeetingLink(link string) error {
	if link == "" {
		return nil
	}
	u, err := url.Parse(link)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return NewValidationError("meeting_link", "must be an https URL")
	}
	return nil
}
