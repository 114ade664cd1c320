// Package dbx translates gorm results into apierr errors.
//
// Storage failures are not part of the taxonomy on their own. Callers pass
// them through Translate (or use FindUnique and Create, which do) together
// with a display name for the entity, e.g. "User":
//
//	user, err := dbx.FindUnique[User](ctx, db, "User", "email = ?", email)
//
// A missing row becomes NOT_FOUND ("User not found"), a unique-constraint
// violation ALREADY_EXISTS and an ambiguous lookup MULTIPLE_RECORDS. Any
// other error is returned unchanged and surfaces as UNKNOWN_ERROR.
package dbx

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/blackwell-systems/apierr"
)

// ErrMultipleRecords is returned by lookups that expected one row and
// matched several.
var ErrMultipleRecords = errors.New("dbx: multiple records matched")

// Translate maps err to the taxonomy. nil stays nil.
func Translate(err error, displayName string) error {
	switch {
	case err == nil:
		return nil
	case apierr.From(err) != nil:
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apierr.NotFound.Errorf("%s not found", displayName).WithCause(err)
	case errors.Is(err, ErrMultipleRecords):
		return apierr.MultipleRecords.Errorf("more than one %s matched", displayName).WithCause(err)
	case isDuplicate(err):
		return apierr.AlreadyExists.Errorf("%s already exists", displayName).
			WithPrivateDetail(err.Error()).
			WithCause(err)
	}
	return err
}

// isDuplicate detects unique-constraint violations across drivers that do
// not map them to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE") ||
		strings.Contains(msg, "Duplicate") ||
		strings.Contains(msg, "duplicate")
}

// FindUnique loads the single T matching query. No match is NOT_FOUND and
// more than one is MULTIPLE_RECORDS.
func FindUnique[T any](ctx context.Context, db *gorm.DB, displayName string, query any, args ...any) (*T, error) {
	var rows []T
	if err := db.WithContext(ctx).Where(query, args...).Limit(2).Find(&rows).Error; err != nil {
		return nil, Translate(err, displayName)
	}
	switch len(rows) {
	case 0:
		return nil, Translate(gorm.ErrRecordNotFound, displayName)
	case 1:
		return &rows[0], nil
	default:
		return nil, Translate(ErrMultipleRecords, displayName)
	}
}

// First loads the first T matching query in primary key order.
func First[T any](ctx context.Context, db *gorm.DB, displayName string, query any, args ...any) (*T, error) {
	var row T
	if err := db.WithContext(ctx).Where(query, args...).First(&row).Error; err != nil {
		return nil, Translate(err, displayName)
	}
	return &row, nil
}

// Create inserts value.
func Create(ctx context.Context, db *gorm.DB, displayName string, value any) error {
	return Translate(db.WithContext(ctx).Create(value).Error, displayName)
}

// Delete removes the T matching query. Deleting nothing is NOT_FOUND.
func Delete[T any](ctx context.Context, db *gorm.DB, displayName string, query any, args ...any) error {
	res := db.WithContext(ctx).Where(query, args...).Delete(new(T))
	if res.Error != nil {
		return Translate(res.Error, displayName)
	}
	if res.RowsAffected == 0 {
		return Translate(gorm.ErrRecordNotFound, displayName)
	}
	return nil
}
