package db

import (
	"strconv"
	"strings"
)

// Filter accumulates WHERE conditions with positional arguments. Each
// condition uses "?" for its single argument.
type Filter struct {
	clauses []string
	args    []any
}

// Where appends a condition. A "?" in cond is replaced by the next
// placeholder and bound to arg; conditions without "?" ignore arg.
func (f *Filter) Where(cond string, arg any) *Filter {
	if strings.Contains(cond, "?") {
		f.args = append(f.args, arg)
		cond = strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(f.args)))
	}
	f.clauses = append(f.clauses, cond)
	return f
}

// SQL renders the WHERE clause, or an empty string without conditions.
func (f *Filter) SQL() string {
	if len(f.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.clauses, " AND ")
}

// Args returns the bound arguments.
func (f *Filter) Args() []any {
	return append([]any(nil), f.args...)
}

// Page renders LIMIT/OFFSET placeholders after the filter arguments and
// returns the clause with the full argument list.
func (f *Filter) Page(limit, offset int) (string, []any) {
	n := len(f.args)
	clause := " LIMIT $" + strconv.Itoa(n+1) + " OFFSET $" + strconv.Itoa(n+2)
	return clause, append(f.Args(), limit, offset)
}
