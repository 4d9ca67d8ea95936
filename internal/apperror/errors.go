// Package apperror defines the domain error taxonomy shared by the entity
// store, the query engine, the importer and the HTTP layer.
package apperror

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed or out-of-range field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// AlreadyExistsError reports a duplicate natural key or a duplicate
// (route, direction, order) position.
type AlreadyExistsError struct {
	Entity string
	Key    string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Entity, e.Key)
}

// ReferenceNotFoundError reports a link whose route or stop does not resolve.
type ReferenceNotFoundError struct {
	Entity string
	Key    string
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("referenced %s %s not found", e.Entity, e.Key)
}

// NotFoundError reports a lookup of an entity that does not exist.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func AlreadyExists(entity string, key any) error {
	return &AlreadyExistsError{Entity: entity, Key: fmt.Sprint(key)}
}

func ReferenceNotFound(entity string, key any) error {
	return &ReferenceNotFoundError{Entity: entity, Key: fmt.Sprint(key)}
}

func NotFound(entity string, key any) error {
	return &NotFoundError{Entity: entity, Key: fmt.Sprint(key)}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsAlreadyExists(err error) bool {
	var target *AlreadyExistsError
	return errors.As(err, &target)
}

func IsReferenceNotFound(err error) bool {
	var target *ReferenceNotFoundError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsDomain reports whether err is a record-level failure (validation,
// duplicate or unresolved reference) as opposed to an infrastructure one.
func IsDomain(err error) bool {
	return IsValidation(err) || IsAlreadyExists(err) || IsReferenceNotFound(err)
}
