package postgres

import "strings"

// prefixedEventColumns qualifies each event column with a table alias for use
// in joins.
func prefixedEventColumns(alias string) string {
	columns := strings.Split(eventColumns, ",")
	for i, column := range columns {
		columns[i] = alias + "." + strings.TrimSpace(column)
	}
	return strings.Join(columns, ", ")
}
