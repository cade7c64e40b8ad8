package persistence

import (
	"time"

	"github.com/asaidimu/go-events"
	"github.com/google/uuid"
)

func createEvent(
	eventType PersistenceEventType,
	operation string,
	queryID string,
	collectionName string,
	input any,
	output any,
	err *string,
	startTime time.Time,
) PersistenceEvent {
	var duration *int64
	if !startTime.IsZero() {
		d := time.Since(startTime).Milliseconds()
		duration = &d
	}
	var collection *string
	if collectionName != "" {
		collection = &collectionName
	}

	return PersistenceEvent{
		Type:       eventType,
		Timestamp:  time.Now().UnixMilli(),
		Operation:  operation,
		QueryID:    queryID,
		Collection: collection,
		Input:      input,
		Output:     output,
		Error:      err,
		Duration:   duration,
	}
}

type eventTypes struct {
	start, success, failed PersistenceEventType
}

var (
	queryEvents       = eventTypes{QueryStart, QuerySuccess, QueryFailed}
	countEvents       = eventTypes{CountStart, CountSuccess, CountFailed}
	insertEvents      = eventTypes{InsertStart, InsertSuccess, InsertFailed}
	transactionEvents = eventTypes{TransactionStart, TransactionSuccess, TransactionFailed}
)

func emitEvent(bus *events.TypedEventBus[PersistenceEvent], event PersistenceEvent) {
	if bus != nil {
		bus.Emit(string(event.Type), event)
	}
}

// withEventEmission wraps an operation with start, success, and failure events
// that share one query id.
func withEventEmission[R any](
	bus *events.TypedEventBus[PersistenceEvent],
	operation string,
	types eventTypes,
	collection string,
	input any,
	fn func() (R, error),
) (R, error) {
	startTime := time.Now()
	queryID := uuid.NewString()

	emitEvent(bus, createEvent(types.start, operation, queryID, collection, input, nil, nil, time.Time{}))

	result, err := fn()
	if err != nil {
		errStr := err.Error()
		emitEvent(bus, createEvent(types.failed, operation, queryID, collection, input, nil, &errStr, startTime))
		return result, err
	}

	emitEvent(bus, createEvent(types.success, operation, queryID, collection, input, result, nil, startTime))
	return result, nil
}
