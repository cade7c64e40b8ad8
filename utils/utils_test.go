package utils

import (
	"testing"

	"github.com/asaidimu/go-anansi-criteria/core/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	City string `json:"city"`
}

type order struct {
	ID    int64   `json:"id"`
	Total float64 `json:"total"`
}

type user struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Address *address `json:"address,omitempty"`
	Orders  []order  `json:"orders,omitempty"`
}

func TestStructToDocument(t *testing.T) {
	doc, err := StructToDocument(user{ID: 1, Name: "Ann", Address: &address{City: "Nairobi"}})
	require.NoError(t, err)
	assert.Equal(t, schema.Document{
		"id":      float64(1),
		"name":    "Ann",
		"address": schema.Document{"city": "Nairobi"},
	}, doc)

	doc, err = StructToDocument(&user{Name: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, "Bob", doc["name"])
	assert.NotContains(t, doc, "address")

	_, err = StructToDocument[*user](nil)
	assert.Error(t, err)
	_, err = StructToDocument(42)
	assert.Error(t, err)
}

func TestDocumentsToStructs(t *testing.T) {
	docs := []schema.Document{
		{"id": int64(1), "name": "Ann", "orders": []schema.Document{{"id": int64(10), "total": 25.5}}},
		{"id": int64(2), "name": "Bob", "orders": []schema.Document{}},
	}
	users, err := DocumentsToStructs[user](docs)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, []order{{ID: 10, Total: 25.5}}, users[0].Orders)
	assert.Empty(t, users[1].Orders)

	empty, err := DocumentsToStructs[user](nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = DocumentsToStructs[int](docs)
	assert.Error(t, err)
}
