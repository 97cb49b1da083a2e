// Package database builds the parameterized SELECT statements behind the
// paginated list endpoints.
package database

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ConditionType is the comparison operator of a Condition.
type ConditionType string

// Supported comparison operators.
const (
	Equal       ConditionType = "="
	NotEqual    ConditionType = "<>"
	LessThan    ConditionType = "<"
	GreaterThan ConditionType = ">"
	In          ConditionType = "IN"
	raw         ConditionType = "RAW"
)

const unset = -1

var placeholderRE = regexp.MustCompile(`\$(\d+)`)

// Condition is one AND-ed term of a WHERE clause.
type Condition struct {
	Field string
	Type  ConditionType
	Value any

	sql    string
	params []any
}

// WhereCond compares a column with a bound value. For In the value must be a
// slice; an empty slice drops the condition.
func WhereCond(field string, op ConditionType, value any) Condition {
	return Condition{Field: field, Type: op, Value: value}
}

// WhereRawCond adds a hand-written SQL fragment. Its placeholders are
// numbered from $1 and renumbered to fit the surrounding query; a placeholder
// may be repeated.
func WhereRawCond(sql string, params ...any) Condition {
	return Condition{Type: raw, sql: sql, params: params}
}

// ListQueryOptions describes one list query.
type ListQueryOptions struct {
	Table      string
	Columns    []string
	Conditions []Condition
	OrderBy    string
	OrderDir   string
	Limit      int
	Offset     int
	CountOnly  bool
}

// ListQueryOption configures ListQueryOptions.
type ListQueryOption func(*ListQueryOptions)

// NewListQueryOptions applies opts to a query over table.
func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	o := &ListQueryOptions{Table: table, Limit: unset, Offset: unset}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithColumns sets the selected columns. Qualified names such as "c.title"
// are quoted per part.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) { o.Columns = cols }
}

// WithCondition adds a WHERE term.
func WithCondition(c Condition) ListQueryOption {
	return func(o *ListQueryOptions) { o.Conditions = append(o.Conditions, c) }
}

// WithOrderBy sets the sort column and direction. Directions other than
// ASC/DESC are ignored.
func WithOrderBy(column, dir string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.OrderBy = column
		o.OrderDir = dir
	}
}

// WithLimit sets LIMIT. Negative values leave it unset.
func WithLimit(n int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if n >= 0 {
			o.Limit = n
		}
	}
}

// WithOffset sets OFFSET. Negative values leave it unset.
func WithOffset(n int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if n >= 0 {
			o.Offset = n
		}
	}
}

// WithCountOnly turns the query into SELECT COUNT(*) without ordering or paging.
func WithCountOnly() ListQueryOption {
	return func(o *ListQueryOptions) { o.CountOnly = true }
}

// BuildListQuery renders o into SQL and its positional arguments.
func BuildListQuery(o *ListQueryOptions) (string, []any) {
	if o == nil {
		return "", nil
	}
	b := &queryBuilder{}

	b.sql.WriteString("SELECT ")
	switch {
	case o.CountOnly:
		b.sql.WriteString("COUNT(*)")
	case len(o.Columns) == 0:
		b.sql.WriteString("*")
	default:
		cols := make([]string, len(o.Columns))
		for i, c := range o.Columns {
			cols[i] = quoteQualified(c)
		}
		b.sql.WriteString(strings.Join(cols, ", "))
	}
	b.sql.WriteString(" FROM ")
	b.sql.WriteString(pgx.Identifier{o.Table}.Sanitize())

	b.where(o.Conditions)
	if o.CountOnly {
		return b.sql.String(), b.args
	}

	if o.OrderBy != "" {
		b.sql.WriteString(" ORDER BY ")
		b.sql.WriteString(quoteQualified(o.OrderBy))
		if dir := strings.ToUpper(strings.TrimSpace(o.OrderDir)); dir == "ASC" || dir == "DESC" {
			b.sql.WriteString(" " + dir)
		}
	}
	if o.Limit != unset {
		b.sql.WriteString(" LIMIT " + b.bind(o.Limit))
	}
	if o.Offset != unset {
		b.sql.WriteString(" OFFSET " + b.bind(o.Offset))
	}
	return b.sql.String(), b.args
}

type queryBuilder struct {
	sql  strings.Builder
	args []any
}

func (b *queryBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *queryBuilder) where(conds []Condition) {
	terms := make([]string, 0, len(conds))
	for _, c := range conds {
		if t := b.term(c); t != "" {
			terms = append(terms, t)
		}
	}
	if len(terms) > 0 {
		b.sql.WriteString(" WHERE ")
		b.sql.WriteString(strings.Join(terms, " AND "))
	}
}

func (b *queryBuilder) term(c Condition) string {
	switch c.Type {
	case raw:
		return b.rawTerm(c)
	case In:
		return b.inTerm(c)
	case Equal, NotEqual, LessThan, GreaterThan:
		if c.Field == "" {
			return ""
		}
		return fmt.Sprintf("%s %s %s", quoteQualified(c.Field), c.Type, b.bind(c.Value))
	default:
		return ""
	}
}

func (b *queryBuilder) inTerm(c Condition) string {
	if c.Field == "" {
		return ""
	}
	var values []any
	switch v := c.Value.(type) {
	case []string:
		for _, s := range v {
			values = append(values, s)
		}
	case []any:
		values = v
	}
	if len(values) == 0 {
		return ""
	}
	ph := make([]string, len(values))
	for i, v := range values {
		ph[i] = b.bind(v)
	}
	return fmt.Sprintf("%s IN (%s)", quoteQualified(c.Field), strings.Join(ph, ", "))
}

func (b *queryBuilder) rawTerm(c Condition) string {
	if strings.TrimSpace(c.sql) == "" {
		return ""
	}
	renumbered := make(map[int]string)
	return placeholderRE.ReplaceAllStringFunc(c.sql, func(m string) string {
		n, err := strconv.Atoi(m[1:])
		if err != nil || n < 1 || n > len(c.params) {
			return m
		}
		if ph, ok := renumbered[n]; ok {
			return ph
		}
		ph := b.bind(c.params[n-1])
		renumbered[n] = ph
		return ph
	})
}

func quoteQualified(name string) string {
	return pgx.Identifier(strings.Split(strings.TrimSpace(name), ".")).Sanitize()
}
