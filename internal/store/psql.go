package store

import (
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

const schemaName = "fundacion"

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// buildUpdateClause creates the SET clause for ON CONFLICT DO UPDATE
// e.g., "city = EXCLUDED.city, name = EXCLUDED.name"
func buildUpdateClause(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for field := range fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, fmt.Sprintf("%s = EXCLUDED.%s", field, field))
	}
	return strings.Join(parts, ", ")
}
