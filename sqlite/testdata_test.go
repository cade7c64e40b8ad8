package sqlite

import (
	"context"
	"testing"

	"github.com/asaidimu/go-anansi-criteria/core/schema"
	"github.com/asaidimu/go-anansi-criteria/core/spec"
	"github.com/stretchr/testify/require"
)

type (
	User  struct{}
	Order struct {
		ID int64 `json:"id"`
	}
	Item  struct{}
)

var (
	UserID       = spec.Attr[User, int64]("id")
	UserName     = spec.Attr[User, string]("name")
	UserLastName = spec.Attr[User, string]("last_name")
	UserAge      = spec.Attr[User, int64]("age")
	UserActive   = spec.Attr[User, bool]("active")
	UserTags     = spec.Attr[User, []string]("tags")
	UserOrders   = spec.Attr[User, []Order]("orders")
	OrderTotal   = spec.Attr[Order, float64]("total")
	OrderStatus  = spec.Attr[Order, string]("status")
	OrderUser    = spec.Attr[Order, User]("user")
	OrderItems   = spec.Attr[Order, []Item]("items")
	ItemSku      = spec.Attr[Item, string]("sku")
)

func ptr[V any](v V) *V { return &v }

func boolPtr(b bool) *bool { return &b }

func testSchemas() (users, orders, items *schema.SchemaDefinition) {
	users = &schema.SchemaDefinition{
		Name: "users",
		Fields: map[string]*schema.FieldDefinition{
			"id":        {Name: "id", Type: schema.FieldTypeInteger},
			"name":      {Name: "name", Type: schema.FieldTypeString, Required: boolPtr(true)},
			"last_name": {Name: "last_name", Type: schema.FieldTypeString},
			"age":       {Name: "age", Type: schema.FieldTypeInteger},
			"active":    {Name: "active", Type: schema.FieldTypeBoolean, Default: true},
			"tags":      {Name: "tags", Type: schema.FieldTypeArray},
		},
		Relations: map[string]*schema.RelationDefinition{
			"orders": {Name: "orders", Kind: schema.RelationMany, Target: "orders", LocalKey: "id", TargetKey: "user_id"},
		},
		Indexes: []schema.IndexDefinition{
			{Name: "pk_users", Fields: []string{"id"}, Type: schema.IndexTypePrimary},
			{Name: "idx_users_name", Fields: []string{"name"}, Type: schema.IndexTypeNormal},
		},
	}
	orders = &schema.SchemaDefinition{
		Name: "orders",
		Fields: map[string]*schema.FieldDefinition{
			"id":      {Name: "id", Type: schema.FieldTypeInteger},
			"user_id": {Name: "user_id", Type: schema.FieldTypeInteger},
			"total":   {Name: "total", Type: schema.FieldTypeNumber},
			"status":  {Name: "status", Type: schema.FieldTypeEnum, Values: []any{"open", "paid"}},
		},
		Relations: map[string]*schema.RelationDefinition{
			"user":  {Name: "user", Kind: schema.RelationOne, Target: "users", LocalKey: "user_id", TargetKey: "id"},
			"items": {Name: "items", Kind: schema.RelationMany, Target: "items", LocalKey: "id", TargetKey: "order_id"},
		},
		Indexes: []schema.IndexDefinition{{Name: "pk_orders", Fields: []string{"id"}, Type: schema.IndexTypePrimary}},
	}
	items = &schema.SchemaDefinition{
		Name: "items",
		Fields: map[string]*schema.FieldDefinition{
			"id":       {Name: "id", Type: schema.FieldTypeInteger},
			"order_id": {Name: "order_id", Type: schema.FieldTypeInteger},
			"sku":      {Name: "sku", Type: schema.FieldTypeString},
		},
		Indexes: []schema.IndexDefinition{{Name: "pk_items", Fields: []string{"id"}, Type: schema.IndexTypePrimary}},
	}
	return users, orders, items
}

type fixture struct {
	interactor *SQLiteInteractor
	users      *schema.SchemaDefinition
	orders     *schema.SchemaDefinition
	items      *schema.SchemaDefinition
}

// newFixture opens an in-memory database holding:
//
//	users  1 Ann "  Smith "  34 [go sql]   orders 10 (paid, items A B), 11 (open)
//	       2 Bob "Jones"     41 []         orders 12 (paid, item C)
//	       3 foobar "X"      20 null
//	       4 xfoobar         50 null       inactive
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users, orders, items := testSchemas()
	registry := schema.NewRegistry(users, orders, items)
	i := NewSQLiteInteractor(db, registry, nil, nil, nil)
	for _, sc := range []*schema.SchemaDefinition{users, orders, items} {
		require.NoError(t, i.CreateCollection(*sc))
	}

	ctx := context.Background()
	_, err = i.InsertDocuments(ctx, users, []map[string]any{
		{"id": 1, "name": "Ann", "last_name": "  Smith ", "age": 34, "tags": []string{"go", "sql"}},
		{"id": 2, "name": "Bob", "last_name": "Jones", "age": 41, "tags": []string{}},
		{"id": 3, "name": "foobar", "last_name": "X", "age": 20},
		{"id": 4, "name": "xfoobar", "age": 50, "active": false},
	})
	require.NoError(t, err)
	_, err = i.InsertDocuments(ctx, orders, []map[string]any{
		{"id": 10, "user_id": 1, "total": 25.5, "status": "paid"},
		{"id": 11, "user_id": 1, "total": 100, "status": "open"},
		{"id": 12, "user_id": 2, "total": 5, "status": "paid"},
	})
	require.NoError(t, err)
	_, err = i.InsertDocuments(ctx, items, []map[string]any{
		{"id": 100, "order_id": 10, "sku": "A"},
		{"id": 101, "order_id": 10, "sku": "B"},
		{"id": 102, "order_id": 12, "sku": "C"},
	})
	require.NoError(t, err)

	return &fixture{interactor: i, users: users, orders: orders, items: items}
}

func ids(docs []schema.Document) []int64 {
	out := make([]int64, len(docs))
	for n, doc := range docs {
		out[n] = doc["id"].(int64)
	}
	return out
}
