package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/asaidimu/go-anansi-criteria/core/persistence"
	"github.com/asaidimu/go-anansi-criteria/core/schema"
	"go.uber.org/zap"
)

// DefaultInteractorOptions returns the options used when none are given.
func DefaultInteractorOptions() *persistence.InteractorOptions {
	return &persistence.InteractorOptions{
		IfNotExists:   true,
		CreateIndexes: true,
	}
}

func sortedFields(sc *schema.SchemaDefinition) []string {
	names := make([]string, 0, len(sc.Fields))
	for name := range sc.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateCollection creates the table for sc and, when enabled, its indexes.
func (i *SQLiteInteractor) CreateCollection(sc schema.SchemaDefinition) error {
	if i.options.DropIfExists {
		if err := i.DropCollection(sc.Name); err != nil {
			return err
		}
	}

	stmt, err := i.CreateTableSQL(sc)
	if err != nil {
		return fmt.Errorf("failed to generate SQL for table %s: %w", sc.Name, err)
	}
	i.logger.Debug("Creating collection", zap.String("sql", stmt))
	if _, err := i.runner().Exec(stmt); err != nil {
		return fmt.Errorf("failed to execute SQL statement '%s': %w", stmt, err)
	}

	if !i.options.CreateIndexes {
		return nil
	}
	for _, index := range sc.Indexes {
		sqlIndex := i.CreateIndexSQL(sc.Name, index)
		if sqlIndex == "" {
			continue
		}
		if _, err := i.runner().Exec(sqlIndex); err != nil {
			return fmt.Errorf("failed to create index %s: %w", index.Name, err)
		}
	}
	return nil
}

// CreateTableSQL renders the CREATE TABLE statement for sc. Columns are
// emitted in name order so the statement is stable.
func (i *SQLiteInteractor) CreateTableSQL(sc schema.SchemaDefinition) (string, error) {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	if i.options.IfNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(i.tableName(sc.Name) + " (\n")

	var columns []string
	for _, name := range sortedFields(&sc) {
		columnDef, err := i.buildColumnDefinition(name, sc.Fields[name])
		if err != nil {
			return "", fmt.Errorf("error on field '%s': %w", name, err)
		}
		columns = append(columns, "    "+columnDef)
	}
	sb.WriteString(strings.Join(columns, ",\n"))

	for _, index := range sc.Indexes {
		if index.Type == schema.IndexTypePrimary && len(index.Fields) > 0 {
			quoted := make([]string, len(index.Fields))
			for n, field := range index.Fields {
				quoted[n] = quoteIdentifier(field)
			}
			sb.WriteString(",\n    PRIMARY KEY (" + strings.Join(quoted, ", ") + ")")
			break
		}
	}

	sb.WriteString("\n);")
	return sb.String(), nil
}

func (i *SQLiteInteractor) buildColumnDefinition(name string, field *schema.FieldDefinition) (string, error) {
	parts := []string{quoteIdentifier(name), GetColumnType(field.Type)}

	if field.Required != nil && *field.Required {
		parts = append(parts, "NOT NULL")
	}
	if field.Default != nil {
		defVal, err := formatDefaultValue(field.Default, field.Type)
		if err != nil {
			return "", err
		}
		parts = append(parts, "DEFAULT "+defVal)
	}
	if field.Unique != nil && *field.Unique {
		parts = append(parts, "UNIQUE")
	}
	if field.Type == schema.FieldTypeEnum && len(field.Values) > 0 {
		var checkValues []string
		for _, v := range field.Values {
			valStr, _ := formatDefaultValue(v, schema.FieldTypeString)
			checkValues = append(checkValues, valStr)
		}
		parts = append(parts, fmt.Sprintf("CHECK(%s IN (%s))", quoteIdentifier(name), strings.Join(checkValues, ", ")))
	}
	return strings.Join(parts, " "), nil
}

// GetColumnType maps a schema.FieldType to its SQLite column type.
func GetColumnType(fieldType schema.FieldType) string {
	switch fieldType {
	case schema.FieldTypeString, schema.FieldTypeEnum:
		return "TEXT"
	case schema.FieldTypeNumber, schema.FieldTypeDecimal:
		return "REAL"
	case schema.FieldTypeInteger, schema.FieldTypeBoolean:
		return "INTEGER"
	case schema.FieldTypeObject, schema.FieldTypeArray, schema.FieldTypeSet, schema.FieldTypeRecord:
		// stored as JSON text
		return "TEXT"
	default:
		return "BLOB"
	}
}

func formatDefaultValue(value any, fieldType schema.FieldType) (string, error) {
	if value == nil {
		return "NULL", nil
	}
	switch fieldType {
	case schema.FieldTypeString, schema.FieldTypeEnum:
		return fmt.Sprintf("'%s'", strings.ReplaceAll(fmt.Sprintf("%v", value), "'", "''")), nil
	case schema.FieldTypeNumber, schema.FieldTypeInteger, schema.FieldTypeDecimal:
		return fmt.Sprintf("%v", value), nil
	case schema.FieldTypeBoolean:
		if b, ok := value.(bool); ok && b {
			return "1", nil
		}
		return "0", nil
	case schema.FieldTypeObject, schema.FieldTypeArray, schema.FieldTypeSet, schema.FieldTypeRecord:
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("failed to marshal default value to JSON: %w", err)
		}
		return fmt.Sprintf("'%s'", strings.ReplaceAll(string(jsonBytes), "'", "''")), nil
	default:
		return "", fmt.Errorf("unsupported type for default value: %s", fieldType)
	}
}

// CreateIndexSQL renders the CREATE INDEX statement for index on collection.
// Primary indexes are part of the table and render as "".
func (i *SQLiteInteractor) CreateIndexSQL(collection string, index schema.IndexDefinition) string {
	if index.Type == schema.IndexTypePrimary || len(index.Fields) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("CREATE ")
	if (index.Unique != nil && *index.Unique) || index.Type == schema.IndexTypeUnique {
		sb.WriteString("UNIQUE ")
	}
	sb.WriteString("INDEX IF NOT EXISTS ")
	indexName := index.Name
	if indexName == "" {
		indexName = fmt.Sprintf("idx_%s%s_%s", i.options.CollectionPrefix, collection, strings.Join(index.Fields, "_"))
	}
	sb.WriteString(quoteIdentifier(indexName))
	sb.WriteString(fmt.Sprintf(" ON %s (", i.tableName(collection)))

	fieldParts := make([]string, len(index.Fields))
	for n, field := range index.Fields {
		part := quoteIdentifier(field)
		if index.Order != nil && strings.ToUpper(*index.Order) == "DESC" {
			part += " DESC"
		}
		fieldParts[n] = part
	}
	sb.WriteString(strings.Join(fieldParts, ", ") + ");")
	return sb.String()
}

// DropCollection drops a table from the database.
func (i *SQLiteInteractor) DropCollection(collection string) error {
	fullTableName := i.tableName(collection)
	if _, err := i.runner().Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s;", fullTableName)); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", fullTableName, err)
	}
	return nil
}

// CollectionExists checks if a table exists in the database.
func (i *SQLiteInteractor) CollectionExists(collection string) (bool, error) {
	var name string
	err := i.runner().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?;",
		i.options.CollectionPrefix+collection).Scan(&name)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
