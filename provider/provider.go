// Package provider defines the capability contract the sync core consumes
// from the hosted identity-and-storage backend. Any backend offering this
// capability set suffices; the core never assumes a concrete vendor.
package provider

import (
	"context"
)

// Collection names used by the Framez data model.
const (
	CollectionUsers   = "users"
	CollectionPosts   = "posts"
	CollectionFollows = "follows"
)

// ServerTimestamp is a sentinel field value. A store replaces it with its own
// authoritative clock reading at write time.
const ServerTimestamp = "__server_timestamp__"

// Document is a schemaless field map, the unit of storage. Documents returned
// from a store always carry their id under the "id" field.
type Document map[string]interface{}

// Id returns the document id, empty string if absent.
func (d Document) Id() string {
	id, _ := d["id"].(string)
	return id
}

// Filter is an equality match on a single field.
type Filter struct {
	Field string
	Value interface{}
}

// Order sorts the result set by a single field.
type Order struct {
	Field      string
	Descending bool
}

// Query describes a collection read: equality filters combined with ordering
// by one field. This is the full filtering capability the contract requires.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    *Order
}

// Snapshot is a complete, ordered result set. A live watch re-delivers the
// full snapshot on every underlying change; it is never a diff.
type Snapshot []Document

// DocStore is the document database capability.
type DocStore interface {
	// Create writes a new document with a store-assigned id.
	Create(ctx context.Context, collection string, fields Document) (string, error)
	// Set writes a document under a caller-chosen id, replacing any existing
	// content.
	Set(ctx context.Context, collection string, id string, fields Document) error
	// Update merges partial fields into an existing document.
	Update(ctx context.Context, collection string, id string, fields Document) error
	// Get reads a single document. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, collection string, id string) (Document, error)
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection string, id string) error
	// Query runs a one-shot read.
	Query(ctx context.Context, q Query) (Snapshot, error)
	// Watch opens a standing subscription. The current snapshot is delivered
	// immediately, then a full snapshot on every change to the collection.
	// The returned stop function releases remote resources; it is safe to
	// call more than once. After ctx is done or stop is called the channel is
	// closed and no further snapshot is delivered.
	Watch(ctx context.Context, q Query) (<-chan Snapshot, func(), error)
}

// AuthState is the provider-side view of the signed-in account. A nil
// *AuthState pushed on the auth-state channel means signed out.
type AuthState struct {
	UserId      string
	Email       string
	DisplayName string
	PhotoUrl    string
}

// Auth is the identity capability.
type Auth interface {
	CreateAccount(ctx context.Context, email string, password string) (*AuthState, error)
	SignIn(ctx context.Context, email string, password string) (*AuthState, error)
	SignOut(ctx context.Context) error
	UpdateDisplayName(ctx context.Context, userId string, name string) error
	// SubscribeAuthState delivers the current state immediately, then every
	// subsequent sign-in/sign-out transition. The stop function unsubscribes.
	SubscribeAuthState(ctx context.Context) (<-chan *AuthState, func())
}
