package domain

import (
	"errors"
	"math/rand"
	"strconv"
	"time"
)

// DateLayout is the calendar-date format of CreatedAt.
const DateLayout = "2006-01-02"

const (
	idMin = 100000
	idMax = 999999
)

// Record is a vault entry. The JSON keys are the document shape kept in the
// store, written to backups and used as sort keys.
type Record struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

// ValidationError reports a missing or invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ValidateRecord checks the fields a new record must carry.
func ValidateRecord(r Record) error {
	if r.Name == "" {
		return &ValidationError{Field: "name", Message: "record must have a name"}
	}
	return nil
}

// GenerateID returns a random 6-digit id. Collisions are possible; the store
// rejects duplicates and the caller picks a new one.
func GenerateID() string {
	return strconv.Itoa(idMin + rand.Intn(idMax-idMin+1))
}

// Today returns t as a CreatedAt value (UTC calendar day).
func Today(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
