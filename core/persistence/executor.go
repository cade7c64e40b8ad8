package persistence

import (
	"context"
	"fmt"

	"github.com/asaidimu/go-anansi-criteria/core/criteria"
	"github.com/asaidimu/go-anansi-criteria/core/schema"
	"github.com/asaidimu/go-events"
	"go.uber.org/zap"
)

// Executor runs filters through a DatabaseInteractor, logging failures and
// emitting start, success and failed events for every operation.
type Executor struct {
	interactor DatabaseInteractor
	validator  *schema.Validator
	logger     *zap.Logger
	bus        *events.TypedEventBus[PersistenceEvent]
}

// NewExecutor creates an executor over interactor. registry may be nil.
func NewExecutor(interactor DatabaseInteractor, registry *schema.Registry, logger *zap.Logger) (*Executor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bus, err := events.NewTypedEventBus[PersistenceEvent](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}
	return &Executor{
		interactor: interactor,
		validator:  schema.NewValidator(registry),
		logger:     logger,
		bus:        bus,
	}, nil
}

// Subscribe registers callback for events of the given type and returns a
// function that removes it.
func (e *Executor) Subscribe(event PersistenceEventType, callback EventCallbackFunction) func() {
	return e.bus.Subscribe(string(event), callback)
}

// Query returns the documents of sc matching filter. A nil filter matches
// every document.
func (e *Executor) Query(ctx context.Context, sc *schema.SchemaDefinition, filter criteria.Filter) (*QueryResult, error) {
	return withEventEmission(e.bus, "query", queryEvents, sc.Name, nil, func() (*QueryResult, error) {
		docs, err := e.interactor.SelectDocuments(ctx, sc, filter)
		if err != nil {
			e.logger.Error("Query failed", zap.String("collection", sc.Name), zap.Error(err))
			return nil, err
		}
		e.logger.Debug("Query completed", zap.String("collection", sc.Name), zap.Int("count", len(docs)))
		return &QueryResult{Data: docs, Count: len(docs)}, nil
	})
}

// Count returns how many documents of sc match filter. Fetch directives in the
// filter are ignored for counts.
func (e *Executor) Count(ctx context.Context, sc *schema.SchemaDefinition, filter criteria.Filter) (int64, error) {
	return withEventEmission(e.bus, "count", countEvents, sc.Name, nil, func() (int64, error) {
		n, err := e.interactor.CountDocuments(ctx, sc, filter)
		if err != nil {
			e.logger.Error("Count failed", zap.String("collection", sc.Name), zap.Error(err))
			return 0, err
		}
		return n, nil
	})
}

// Insert validates records against sc and writes them, returning the stored rows.
func (e *Executor) Insert(ctx context.Context, sc *schema.SchemaDefinition, records []map[string]any) (*QueryResult, error) {
	return withEventEmission(e.bus, "insert", insertEvents, sc.Name, records, func() (*QueryResult, error) {
		for _, record := range records {
			if ok, issues := e.validator.ValidateDocument(sc, record, false); !ok {
				return nil, fmt.Errorf("invalid document for %s: %s", sc.Name, issues[0].Message)
			}
		}
		docs, err := e.interactor.InsertDocuments(ctx, sc, records)
		if err != nil {
			e.logger.Error("Insert failed", zap.String("collection", sc.Name), zap.Error(err))
			return nil, err
		}
		return &QueryResult{Data: docs, Count: len(docs)}, nil
	})
}

// Transact runs fn with an executor bound to a new transaction. The
// transaction is rolled back when fn fails and committed otherwise. Events of
// the inner executor go to the same subscribers.
func (e *Executor) Transact(ctx context.Context, fn func(tx *Executor) error) error {
	_, err := withEventEmission(e.bus, "transaction", transactionEvents, "", nil, func() (struct{}, error) {
		interactor, err := e.interactor.StartTransaction(ctx)
		if err != nil {
			return struct{}{}, err
		}
		tx := &Executor{interactor: interactor, validator: e.validator, logger: e.logger, bus: e.bus}

		if err := fn(tx); err != nil {
			if rbErr := interactor.Rollback(ctx); rbErr != nil {
				e.logger.Error("Rollback failed", zap.Error(rbErr))
			}
			return struct{}{}, err
		}
		return struct{}{}, interactor.Commit(ctx)
	})
	return err
}
