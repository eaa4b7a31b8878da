package schema

import (
	"fmt"
	"strings"
)

// columnType maps an attribute kind to its SQLite column type.
//
// Bools are stored as 0/1 integers; times as RFC 3339 text in UTC; refs as
// the referenced record's id. Requiredness is intentionally not expressed as
// NOT NULL: it is enforced when records are staged, which keeps column
// additions during lightweight migration trivial.
func columnType(k Kind) string {
	switch k {
	case KindString, KindTime, KindRef:
		return "TEXT"
	case KindInt, KindBool:
		return "INTEGER"
	case KindFloat:
		return "REAL"
	case KindBytes:
		return "BLOB"
	default:
		// Validate rejects unknown kinds before DDL generation runs.
		panic(fmt.Sprintf("schema: unknown kind %q", k))
	}
}

// ColumnType returns the SQLite column type for an attribute.
func (a Attribute) ColumnType() string {
	return columnType(a.Kind)
}

// QuoteIdent quotes an identifier for embedding in SQL. Names are already
// restricted to identifier-safe text by Validate; quoting additionally keeps
// SQL keywords usable as entity or attribute names.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// CreateTableSQL renders the CREATE TABLE statement for an entity type.
// Every table carries the caller-assigned id as its primary key; ref
// attributes become foreign keys that cascade on delete.
func (e *EntityType) CreateTableSQL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", QuoteIdent(e.Name))
	b.WriteString("\tid TEXT PRIMARY KEY")
	for _, a := range e.Attributes {
		fmt.Fprintf(&b, ",\n\t%s %s", QuoteIdent(a.Name), a.ColumnType())
		if a.Kind == KindRef {
			fmt.Fprintf(&b, " REFERENCES %s(id) ON DELETE CASCADE", QuoteIdent(a.Target))
		}
	}
	b.WriteString("\n)")
	return b.String()
}

// AddColumnSQL renders the ALTER TABLE statement that adds a newly declared
// attribute to an existing table during lightweight migration.
func (e *EntityType) AddColumnSQL(a Attribute) string {
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
		QuoteIdent(e.Name), QuoteIdent(a.Name), a.ColumnType())
	if a.Kind == KindRef {
		stmt += fmt.Sprintf(" REFERENCES %s(id) ON DELETE CASCADE", QuoteIdent(a.Target))
	}
	return stmt
}
