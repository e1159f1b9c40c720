// Package models holds the data shapes shared by the storage backends,
// the links loader and the table renderer.
package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// LinkRecord is one stored shortened link as kept in the user's collection.
type LinkRecord struct {
	Code        string `json:"code" firestore:"code" validate:"required"`
	OriginalURL string `json:"originalURL" firestore:"originalURL" validate:"required"`
	Date        string `json:"date" firestore:"date" validate:"required"`
}

// DisplayRow is the render-only projection of a LinkRecord.
// ID always equals Code.
type DisplayRow struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	OriginalURL string `json:"originalURL"`
	Date        string `json:"date"`
}

// Visibility decides whether the links table is rendered at all.
type Visibility int

const (
	SignOut Visibility = iota
	SignInData
	SignInNoData
)

func (v Visibility) String() string {
	switch v {
	case SignInData:
		return "SIGN_IN_DATA"
	case SignInNoData:
		return "SIGN_IN_NO_DATA"
	default:
		return "SIGN_OUT"
	}
}

// Listing is the outcome of loading a user's links.
type Listing struct {
	Visibility Visibility
	Rows       []DisplayRow
}

// ErrInvalidRecord is returned when a stored document lacks a required field
// or carries a value that cannot be interpreted.
var ErrInvalidRecord = errors.New("invalid link record")

const (
	StorageTypeUnknown = iota
	StorageTypeFirestore
	StorageTypeSQL
	StorageTypeFile
	StorageTypeMemory
)

// jsDateLayout is what a browser's Date.prototype.toString() produces.
const jsDateLayout = "Mon Jan 02 2006 15:04:05 GMT-0700"

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	jsDateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate interprets the timestamp string kept in LinkRecord.Date.
func ParseDate(value string) (time.Time, error) {
	if len(value) > len(jsDateLayout) && value[len(jsDateLayout)] == ' ' {
		// "... GMT+0300 (Moscow Standard Time)": the zone name is informational.
		value = value[:len(jsDateLayout)]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: unrecognized date %q", ErrInvalidRecord, value)
}

var recordValidator = validator.New()

// Validate reports ErrInvalidRecord when a required field is missing
// or the date cannot be parsed.
func (r LinkRecord) Validate() error {
	if err := recordValidator.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if _, err := ParseDate(r.Date); err != nil {
		return err
	}

	return nil
}

// ToDisplayRow projects the record into a table row.
func (r LinkRecord) ToDisplayRow() DisplayRow {
	return DisplayRow{
		ID:          r.Code,
		Code:        r.Code,
		OriginalURL: r.OriginalURL,
		Date:        r.Date,
	}
}
