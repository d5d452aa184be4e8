// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the target row does not exist (or is soft-deleted).
	ErrNotFound = gorm.ErrRecordNotFound
	// ErrAlreadyResolved is returned when a moderation transition finds the posting
	// no longer NEW.
	ErrAlreadyResolved = errors.New("posting already resolved")
	// ErrDuplicate is returned when a write collides with a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrUnknownKind is returned for a posting kind without a table.
	ErrUnknownKind = errors.New("unknown posting kind")
	// ErrUnknownCountry is returned when a country id has no row.
	ErrUnknownCountry = errors.New("unknown country")
	// ErrUnknownRegion is returned when a region id has no row or belongs to
	// another country.
	ErrUnknownRegion = errors.New("unknown region")
)
