// Package store defines the record store port used by every bounded context.
// Records are JSON documents in named collections; insertion order is
// preserved and defines which record a FindFirst lookup returns.
package store

import (
	"context"
	"errors"
)

// Collection names a document collection.
type Collection string

const (
	Leads               Collection = "leads"
	Opportunities       Collection = "opportunities"
	Appointments        Collection = "appointments"
	FinanceApplications Collection = "financeApplications"
	ConsentEvents       Collection = "consentEvents"
	Inventory           Collection = "inventory"
)

// ErrNotFound is returned when no record matches.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateID is returned when inserting an id that already exists.
var ErrDuplicateID = errors.New("record id already exists")

// Store is the record store contract. Each write is applied as a single
// atomic record update.
type Store interface {
	// Get decodes the record with id into dst.
	Get(ctx context.Context, coll Collection, id string, dst any) error
	// FindFirst decodes the earliest inserted record whose top-level field
	// equals value into dst.
	FindFirst(ctx context.Context, coll Collection, field, value string, dst any) error
	// Insert stores doc under id.
	Insert(ctx context.Context, coll Collection, id string, doc any) error
	// Patch merges fields into the top level of the record with id.
	Patch(ctx context.Context, coll Collection, id string, fields map[string]any) error
	// ListAll decodes every record, in insertion order, into dst (a pointer to a slice).
	ListAll(ctx context.Context, coll Collection, dst any) error
}
