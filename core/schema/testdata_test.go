package schema

func boolPtr(b bool) *bool {
	return &b
}

func usersAndOrders() (*SchemaDefinition, *SchemaDefinition) {
	users := &SchemaDefinition{
		Name:    "users",
		Version: "1.0.0",
		Fields: map[string]*FieldDefinition{
			"id":   {Name: "id", Type: FieldTypeInteger},
			"name": {Name: "name", Type: FieldTypeString, Required: boolPtr(true)},
			"role": {Name: "role", Type: FieldTypeEnum, Values: []any{"admin", "member"}},
			"tags": {Name: "tags", Type: FieldTypeArray},
		},
		Relations: map[string]*RelationDefinition{
			"orders": {Name: "orders", Kind: RelationMany, Target: "orders", LocalKey: "id", TargetKey: "user_id"},
		},
		Indexes: []IndexDefinition{{Name: "pk_users", Fields: []string{"id"}, Type: IndexTypePrimary}},
	}
	orders := &SchemaDefinition{
		Name:    "orders",
		Version: "1.0.0",
		Fields: map[string]*FieldDefinition{
			"order_id": {Name: "order_id", Type: FieldTypeInteger},
			"user_id":  {Name: "user_id", Type: FieldTypeInteger},
			"total":    {Name: "total", Type: FieldTypeNumber},
		},
		Relations: map[string]*RelationDefinition{
			"user": {Name: "user", Kind: RelationOne, Target: "users", LocalKey: "user_id", TargetKey: "id"},
		},
		Indexes: []IndexDefinition{{Name: "pk_orders", Fields: []string{"order_id"}, Type: IndexTypePrimary}},
	}
	return users, orders
}
