package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/asaidimu/go-anansi-criteria/core/schema"
	"go.uber.org/zap"
)

// readResults scans rows into documents of the query's root schema. Rows are
// merged by root primary key, and the columns of fetched joins are nested
// under their relation name: to-one relations as a document (or nil), to-many
// relations as a list without duplicates.
func readResults(logger *zap.Logger, q *Query, rows *sql.Rows) ([]schema.Document, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	fetched := q.fetched()
	byAlias := make(map[string]*Source, len(fetched))
	for _, s := range fetched {
		byAlias[s.alias] = s
	}

	var (
		results []schema.Document
		seen    = make(map[string]schema.Document)
		rootPK  = q.root.schema.PrimaryKey()
	)
	for rows.Next() {
		values := make([]any, len(columns))
		scanArgs := make([]any, len(columns))
		for n := range values {
			scanArgs[n] = &values[n]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		parts := map[string]schema.Document{"": {}}
		for n, col := range columns {
			alias, name := "", col
			if dot := strings.IndexByte(col, '.'); dot > 0 && byAlias[col[:dot]] != nil {
				alias, name = col[:dot], col[dot+1:]
			}
			sc := q.root.schema
			if alias != "" {
				sc = byAlias[alias].schema
			}
			if parts[alias] == nil {
				parts[alias] = schema.Document{}
			}
			parts[alias][name] = convertValue(logger, sc, name, values[n])
		}

		root := parts[""]
		key := "root:" + identity(root[rootPK])
		if root[rootPK] == nil {
			key = fmt.Sprintf("row:%d", len(results))
		}
		doc, ok := seen[key]
		if !ok {
			doc = root
			seen[key] = doc
			results = append(results, doc)
		}

		docs := map[*Source]schema.Document{q.root: doc}
		keys := map[*Source]string{q.root: key}
		for _, s := range fetched {
			nest(s, parts[s.alias], docs, keys, seen)
		}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}
	if results == nil {
		results = []schema.Document{}
	}
	return results, nil
}

// nest places the row's part for s under its parent document.
func nest(s *Source, part schema.Document, docs map[*Source]schema.Document, keys map[*Source]string, seen map[string]schema.Document) {
	parent := docs[s.parent]
	if parent == nil {
		return
	}
	many := s.relation.IsCollection()
	if _, present := parent[s.attr]; !present {
		if many {
			parent[s.attr] = []schema.Document{}
		} else {
			parent[s.attr] = nil
		}
	}

	pk := part[s.schema.PrimaryKey()]
	if pk == nil {
		// LEFT JOIN found nothing.
		return
	}
	key := keys[s.parent] + "/" + s.attr + ":" + identity(pk)
	doc, ok := seen[key]
	if !ok {
		doc = part
		seen[key] = doc
		if many {
			parent[s.attr] = append(parent[s.attr].([]schema.Document), doc)
		} else {
			parent[s.attr] = doc
		}
	}
	docs[s] = doc
	keys[s] = key
}

func identity(v any) string {
	return fmt.Sprintf("%T:%v", v, v)
}

// convertValue maps a scanned SQLite value back to the Go type of the field.
func convertValue(logger *zap.Logger, sc *schema.SchemaDefinition, col string, val any) any {
	if val == nil {
		return nil
	}

	fieldDef, ok := sc.Fields[col]
	if !ok {
		logger.Warn("Column not found in schema, using raw value", zap.String("column", col))
		return val
	}

	switch fieldDef.Type {
	case schema.FieldTypeBoolean:
		if intVal, isInt := val.(int64); isInt {
			return intVal != 0
		}
	case schema.FieldTypeString, schema.FieldTypeEnum:
		if byteVal, isByte := val.([]byte); isByte {
			return string(byteVal)
		}
	case schema.FieldTypeInteger:
		if floatVal, isFloat := val.(float64); isFloat {
			return int64(floatVal)
		}
	case schema.FieldTypeNumber, schema.FieldTypeDecimal:
		if intVal, isInt := val.(int64); isInt {
			return float64(intVal)
		}
	case schema.FieldTypeObject, schema.FieldTypeArray, schema.FieldTypeSet, schema.FieldTypeRecord:
		var byteVal []byte
		if b, ok := val.([]byte); ok {
			byteVal = b
		} else if s, ok := val.(string); ok {
			byteVal = []byte(s)
		}
		if byteVal != nil {
			var decoded any
			if err := json.Unmarshal(byteVal, &decoded); err == nil {
				return decoded
			}
		}
	}
	return val
}
