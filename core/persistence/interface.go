// Package persistence runs compiled criteria filters against a database through
// a DatabaseInteractor and reports each operation on an event bus.
package persistence

import (
	"context"

	"github.com/asaidimu/go-anansi-criteria/core/criteria"
	"github.com/asaidimu/go-anansi-criteria/core/schema"
)

// PersistenceEventType defines the possible event types for persistence operations.
type PersistenceEventType string

const (
	QueryStart         PersistenceEventType = "query:start"
	QuerySuccess       PersistenceEventType = "query:success"
	QueryFailed        PersistenceEventType = "query:failed"
	CountStart         PersistenceEventType = "count:start"
	CountSuccess       PersistenceEventType = "count:success"
	CountFailed        PersistenceEventType = "count:failed"
	InsertStart        PersistenceEventType = "insert:start"
	InsertSuccess      PersistenceEventType = "insert:success"
	InsertFailed       PersistenceEventType = "insert:failed"
	TransactionStart   PersistenceEventType = "transaction:start"
	TransactionSuccess PersistenceEventType = "transaction:success"
	TransactionFailed  PersistenceEventType = "transaction:failed"
)

// PersistenceEvent represents events emitted during persistence operations.
type PersistenceEvent struct {
	Type       PersistenceEventType `json:"type"`                 // The type of event (e.g., 'query:start').
	Timestamp  int64                `json:"timestamp"`            // Unix milliseconds.
	Operation  string               `json:"operation"`            // The operation being performed (e.g., 'query', 'count').
	QueryID    string               `json:"queryId"`              // Shared by the start and end events of one operation.
	Collection *string              `json:"collection,omitempty"` // Name of the collection affected (if applicable).
	Input      any                  `json:"input,omitempty"`
	Output     any                  `json:"output,omitempty"`
	Error      *string              `json:"error,omitempty"`
	Duration   *int64               `json:"duration,omitempty"` // Milliseconds.
}

// EventCallbackFunction receives persistence events.
type EventCallbackFunction func(ctx context.Context, event PersistenceEvent) error

// QueryResult holds the documents a query returned.
type QueryResult struct {
	Data  []schema.Document `json:"data"`
	Count int               `json:"count"`
}

// InteractorOptions provides configuration for the interactor.
type InteractorOptions struct {
	// IfNotExists adds IF NOT EXISTS clause to CREATE TABLE statements.
	IfNotExists bool

	// DropIfExists drops the table before creating it.
	DropIfExists bool

	// CreateIndexes determines whether to create indexes along with the table.
	CreateIndexes bool

	// CollectionPrefix is prepended to every table name.
	CollectionPrefix string
}

// DatabaseInteractor runs criteria queries and basic DDL against a database.
// An instance returned by StartTransaction runs everything in that transaction.
type DatabaseInteractor interface {
	// SelectDocuments invokes filter once against a fresh entity query over sc
	// and returns the matching documents, with fetched relations nested.
	SelectDocuments(ctx context.Context, sc *schema.SchemaDefinition, filter criteria.Filter) ([]schema.Document, error)
	// CountDocuments invokes filter once against a fresh count query over sc.
	CountDocuments(ctx context.Context, sc *schema.SchemaDefinition, filter criteria.Filter) (int64, error)
	InsertDocuments(ctx context.Context, sc *schema.SchemaDefinition, records []map[string]any) ([]schema.Document, error)

	CreateCollection(sc schema.SchemaDefinition) error
	DropCollection(name string) error
	CollectionExists(name string) (bool, error)

	StartTransaction(ctx context.Context) (DatabaseInteractor, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
