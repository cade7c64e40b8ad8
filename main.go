package main

import (
	"context"
	"fmt"
	"log"

	"github.com/asaidimu/go-anansi-criteria/core/persistence"
	"github.com/asaidimu/go-anansi-criteria/core/schema"
	"github.com/asaidimu/go-anansi-criteria/core/spec"
	"github.com/asaidimu/go-anansi-criteria/sqlite"
	"github.com/asaidimu/go-anansi-criteria/utils"
	"go.uber.org/zap"
)

const (
	userSchemaJSON = `{
		"name": "users",
		"version": "1.0.0",
		"description": "Schema for user profiles",
		"fields": {
			"id": {"name": "id", "type": "integer"},
			"name": {"name": "name", "type": "string", "required": true},
			"last_name": {"name": "last_name", "type": "string"},
			"age": {"name": "age", "type": "integer"},
			"is_active": {"name": "is_active", "type": "boolean", "default": true}
		},
		"relations": {
			"orders": {"name": "orders", "kind": "many", "target": "orders", "localKey": "id", "targetKey": "user_id"}
		},
		"indexes": [
			{"name": "pk_user_id", "fields": ["id"], "type": "primary"},
			{"name": "idx_user_name", "fields": ["name"], "type": "normal"}
		]
	}`
	orderSchemaJSON = `{
		"name": "orders",
		"version": "1.0.0",
		"fields": {
			"id": {"name": "id", "type": "integer"},
			"user_id": {"name": "user_id", "type": "integer", "required": true},
			"total": {"name": "total", "type": "number"},
			"status": {"name": "status", "type": "enum", "values": ["open", "paid"]}
		},
		"relations": {
			"user": {"name": "user", "kind": "one", "target": "users", "localKey": "user_id", "targetKey": "id"}
		},
		"indexes": [{"name": "pk_order_id", "fields": ["id"], "type": "primary"}]
	}`
)

type (
	User struct {
		ID       int64   `json:"id"`
		Name     string  `json:"name"`
		LastName string  `json:"last_name,omitempty"`
		Age      int64   `json:"age"`
		IsActive bool    `json:"is_active"`
		Orders   []Order `json:"orders,omitempty"`
	}
	Order struct {
		ID     int64   `json:"id"`
		UserID int64   `json:"user_id"`
		Total  float64 `json:"total"`
		Status string  `json:"status"`
	}
)

var (
	UserName     = spec.Attr[User, string]("name")
	UserLastName = spec.Attr[User, string]("last_name")
	UserAge      = spec.Attr[User, int64]("age")
	UserOrders   = spec.Attr[User, []Order]("orders")
	OrderStatus  = spec.Attr[Order, string]("status")
	OrderTotal   = spec.Attr[Order, float64]("total")
)

// UserSearch is the kind of optional-filter form a search endpoint receives.
// Empty fields do not constrain the result.
type UserSearch struct {
	Name       string
	MinAge     *int64
	OrderState *string
	WithOrders bool
}

func (s UserSearch) Specification() spec.Specification[User] {
	var fetch spec.Specification[User]
	if s.WithOrders {
		fetch = spec.Fetch[User](UserOrders)
	}
	return spec.And(
		fetch,
		spec.ContainsConcat(spec.ConcatFields(UserName).Text(" ").Field(UserLastName), s.Name, spec.WildcardSpaces()),
		spec.GreaterThanOrEqualTo(UserAge, s.MinAge),
		spec.Equal(spec.ThenEach(UserOrders, OrderStatus), s.OrderState),
	)
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	db, err := sqlite.Open(":memory:")
	if err != nil {
		log.Fatalf("Failed to open database connection: %v", err)
	}
	defer func() {
		if cErr := db.Close(); cErr != nil {
			log.Printf("Error closing database connection: %v", cErr)
		}
	}()

	users, err := schema.ParseSchema([]byte(userSchemaJSON))
	if err != nil {
		log.Fatalf("Failed to parse user schema: %v", err)
	}
	orders, err := schema.ParseSchema([]byte(orderSchemaJSON))
	if err != nil {
		log.Fatalf("Failed to parse order schema: %v", err)
	}
	registry := schema.NewRegistry(users, orders)
	validator := schema.NewValidator(registry)
	for _, sc := range []*schema.SchemaDefinition{users, orders} {
		if ok, issues := validator.ValidateDefinition(sc); !ok {
			log.Fatalf("Schema %s is invalid: %s", sc.Name, issues[0].Message)
		}
	}

	interactor := sqlite.NewSQLiteInteractor(db, registry, logger, nil, nil)
	for _, sc := range []*schema.SchemaDefinition{users, orders} {
		if err := interactor.CreateCollection(*sc); err != nil {
			log.Fatalf("Failed to create collection '%s': %v", sc.Name, err)
		}
	}

	executor, err := persistence.NewExecutor(interactor, registry, logger)
	if err != nil {
		log.Fatalf("Failed to initialize executor: %v", err)
	}
	executor.Subscribe(persistence.QuerySuccess, func(ctx context.Context, event persistence.PersistenceEvent) error {
		fmt.Printf("Query %s on '%s' finished in %dms\n", event.QueryID, *event.Collection, *event.Duration)
		return nil
	})

	ctx := context.Background()
	err = executor.Transact(ctx, func(tx *persistence.Executor) error {
		for _, u := range []User{
			{ID: 1, Name: "Alice", LastName: "Smith", Age: 30, IsActive: true},
			{ID: 2, Name: "Alex", LastName: "Smith", Age: 27, IsActive: true},
			{ID: 3, Name: "Bob", LastName: "Jones", Age: 41},
		} {
			doc, err := utils.StructToDocument(u)
			if err != nil {
				return err
			}
			if _, err := tx.Insert(ctx, users, []map[string]any{doc}); err != nil {
				return err
			}
		}
		_, err := tx.Insert(ctx, orders, []map[string]any{
			{"id": 10, "user_id": 1, "total": 25.5, "status": "paid"},
			{"id": 11, "user_id": 1, "total": 100.0, "status": "open"},
			{"id": 12, "user_id": 3, "total": 5.0, "status": "paid"},
		})
		return err
	})
	if err != nil {
		log.Fatalf("Failed to insert sample data: %v", err)
	}

	minAge := int64(28)
	paid := "paid"
	search := UserSearch{Name: "smith", MinAge: &minAge, OrderState: &paid, WithOrders: true}

	result, err := executor.Query(ctx, users, spec.Compile(search.Specification(), logger))
	if err != nil {
		log.Fatalf("Failed to read database: %v", err)
	}
	found, err := utils.DocumentsToStructs[User](result.Data)
	if err != nil {
		log.Fatalf("Failed to decode users: %v", err)
	}

	fmt.Println("-------------------------------------------------------------------")
	fmt.Printf("%-10s %-20s %-5s %-10s\n", "ID", "Name", "Age", "Orders")
	fmt.Println("-------------------------------------------------------------------")
	for _, u := range found {
		fmt.Printf("%-10d %-20s %-5d %-10d\n", u.ID, u.Name+" "+u.LastName, u.Age, len(u.Orders))
	}
	fmt.Println("-------------------------------------------------------------------")

	// The fetch in the search is skipped when counting.
	count, err := executor.Count(ctx, users, spec.Compile(search.Specification(), logger))
	if err != nil {
		log.Fatalf("Failed to count users: %v", err)
	}
	fmt.Printf("%d matching user(s)\n", count)

	big := spec.GreaterThan(spec.ThenEach(UserOrders, OrderTotal), ptr(50.0))
	count, err = executor.Count(ctx, users, spec.Compile(big, logger))
	if err != nil {
		log.Fatalf("Failed to count users: %v", err)
	}
	fmt.Printf("%d user(s) with an order over 50\n", count)
}

func ptr[V any](v V) *V { return &v }
