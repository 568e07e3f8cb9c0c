package internal

import (
	"fmt"
	"slices"
	"strings"
)

// Column describes one column of a registry table as the backend reports it.
type Column struct {
	Type     string
	Nullable bool
}

// SchemaError lists the differences between a table and its expected columns.
type SchemaError struct {
	Table      string
	Missing    []string
	Mismatched []string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "table %s schema validation failed:\n", e.Table)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "  missing columns: %s\n", strings.Join(e.Missing, ", "))
	}
	if len(e.Mismatched) > 0 {
		b.WriteString("  mismatched columns:\n")
		for _, m := range e.Mismatched {
			fmt.Fprintf(&b, "    - %s\n", m)
		}
	}
	return b.String()
}

// CompareColumns checks that every expected column exists in actual with the
// same type and nullability. Extra columns in actual are allowed. Types are
// compared case-insensitively. Returns a *SchemaError, or nil on a match.
func CompareColumns(table string, expected, actual map[string]Column) error {
	names := make([]string, 0, len(expected))
	for name := range expected {
		names = append(names, name)
	}
	slices.Sort(names)

	schemaErr := &SchemaError{Table: table}
	for _, name := range names {
		want := expected[name]
		got, ok := actual[name]
		if !ok {
			schemaErr.Missing = append(schemaErr.Missing, name)
			continue
		}

		if !strings.EqualFold(got.Type, want.Type) {
			schemaErr.Mismatched = append(schemaErr.Mismatched,
				fmt.Sprintf("%s: expected %s, got %s", name, want.Type, strings.ToLower(got.Type)))
		}
		if got.Nullable != want.Nullable {
			schemaErr.Mismatched = append(schemaErr.Mismatched,
				fmt.Sprintf("%s: expected nullable=%v, got nullable=%v", name, want.Nullable, got.Nullable))
		}
	}

	if len(schemaErr.Missing) == 0 && len(schemaErr.Mismatched) == 0 {
		return nil
	}
	return schemaErr
}
