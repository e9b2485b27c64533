// ABOUTME: Composable query builder over named collections of a remote source
// ABOUTME: Builders are plain descriptions; a Source executes them

package query

import (
	"context"
	"encoding/json"
	"errors"
)

// Operator is a comparison used by a filter condition.
type Operator string

const (
	OpEq    Operator = "eq"
	OpIn    Operator = "in"
	OpGte   Operator = "gte"
	OpLte   Operator = "lte"
	OpILike Operator = "ilike"
)

// Condition is a single field predicate.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

// Eq builds an equality condition, mostly for use inside Or.
func Eq(field string, value any) Condition { return Condition{Field: field, Op: OpEq, Value: value} }

// ILike builds a case-insensitive pattern condition.
func ILike(field, pattern string) Condition {
	return Condition{Field: field, Op: OpILike, Value: pattern}
}

// Ordering sorts results by one field.
type Ordering struct {
	Field     string
	Ascending bool
}

// ResponseError is an error reported by the source in-band.
type ResponseError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *ResponseError) Error() string { return e.Message }

// Response is the resolved result of a builder. Data is a JSON array, a
// JSON object for Single queries, or nil when the source returned nothing.
type Response struct {
	Data  json.RawMessage `json:"data"`
	Count *int            `json:"count,omitempty"`
	Error *ResponseError  `json:"error,omitempty"`
}

// Source executes builders against a backing store.
type Source interface {
	Execute(ctx context.Context, q *Builder) (*Response, error)
}

// ErrNoSource is returned when a builder was created without a source.
var ErrNoSource = errors.New("query has no source")

// Client starts queries against a source.
type Client struct {
	source Source
}

// NewClient creates a client over source.
func NewClient(source Source) *Client {
	return &Client{source: source}
}

// From starts a query on a named collection.
func (c *Client) From(collection string) *Builder {
	return &Builder{collection: collection, source: c.source}
}

// Builder accumulates a query. Every method returns the same builder so
// calls can be chained.
type Builder struct {
	source     Source
	collection string
	fields     []string
	filters    []Condition
	orGroups   [][]Condition
	orders     []Ordering
	rangeSet   bool
	rangeFrom  int
	rangeTo    int
	limit      int
	single     bool
	count      bool
	update     map[string]any
}

// Select restricts the returned fields; no call means all fields.
func (b *Builder) Select(fields ...string) *Builder {
	for _, f := range fields {
		if f == "*" {
			b.fields = nil
			return b
		}
	}
	b.fields = append(b.fields, fields...)
	return b
}

func (b *Builder) Eq(field string, value any) *Builder {
	b.filters = append(b.filters, Condition{Field: field, Op: OpEq, Value: value})
	return b
}

func (b *Builder) In(field string, values ...any) *Builder {
	b.filters = append(b.filters, Condition{Field: field, Op: OpIn, Value: values})
	return b
}

func (b *Builder) Gte(field string, value any) *Builder {
	b.filters = append(b.filters, Condition{Field: field, Op: OpGte, Value: value})
	return b
}

func (b *Builder) Lte(field string, value any) *Builder {
	b.filters = append(b.filters, Condition{Field: field, Op: OpLte, Value: value})
	return b
}

// Or adds a group of conditions of which at least one must hold.
func (b *Builder) Or(conds ...Condition) *Builder {
	if len(conds) > 0 {
		b.orGroups = append(b.orGroups, conds)
	}
	return b
}

func (b *Builder) Order(field string, ascending bool) *Builder {
	b.orders = append(b.orders, Ordering{Field: field, Ascending: ascending})
	return b
}

// Range selects rows from..to inclusive, zero-based.
func (b *Builder) Range(from, to int) *Builder {
	b.rangeSet = true
	b.rangeFrom = from
	b.rangeTo = to
	return b
}

func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	return b
}

// Single expects exactly one row and returns it as an object.
func (b *Builder) Single() *Builder {
	b.single = true
	return b
}

// Count asks the source for the exact total matching the filters,
// ignoring range and limit.
func (b *Builder) Count() *Builder {
	b.count = true
	return b
}

// Update turns the query into an update of the matching rows.
func (b *Builder) Update(values map[string]any) *Builder {
	b.update = values
	return b
}

// Execute runs the query on the client's source.
func (b *Builder) Execute(ctx context.Context) (*Response, error) {
	if b.source == nil {
		return nil, ErrNoSource
	}
	return b.source.Execute(ctx, b)
}

func (b *Builder) Collection() string { return b.collection }
func (b *Builder) Fields() []string { return b.fields }
func (b *Builder) Filters() []Condition { return b.filters }
func (b *Builder) OrGroups() [][]Condition { return b.orGroups }
func (b *Builder) Orders() []Ordering { return b.orders }
func (b *Builder) LimitValue() int { return b.limit }
func (b *Builder) IsSingle() bool { return b.single }
func (b *Builder) WantsCount() bool { return b.count }
func (b *Builder) UpdateValues() map[string]any { return b.update }

// RowRange returns the requested inclusive row range, if any.
func (b *Builder) RowRange() (from, to int, ok bool) {
	return b.rangeFrom, b.rangeTo, b.rangeSet
}

// FilterValue returns the value of the first condition on field with op.
func (b *Builder) FilterValue(field string, op Operator) (any, bool) {
	for _, c := range b.filters {
		if c.Field == field && c.Op == op {
			return c.Value, true
		}
	}
	return nil, false
}
