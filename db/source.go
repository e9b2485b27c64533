// ABOUTME: SQLite implementation of the query source contract
// ABOUTME: Compiles builders into parameterised SQL and renders rows as JSON

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/harperreed/crmactivity/query"
)

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// In-band error codes, following the PostgreSQL/PostgREST codes callers
// of hosted backends already recognise.
const (
	CodeUndefinedTable  = "42P01"
	CodeUndefinedColumn = "42703"
	CodeSingleRow       = "PGRST116"
)

// Source executes query builders against a SQLite database.
type Source struct {
	db      *sql.DB
	mu      sync.Mutex
	columns map[string]map[string]string // table -> column -> declared type
}

// NewSource creates a source over an initialised database.
func NewSource(db *sql.DB) *Source {
	return &Source{
		db:      db,
		columns: make(map[string]map[string]string),
	}
}

// Execute runs q. Unknown tables or columns are reported in-band on the
// response; driver failures are returned as errors.
func (s *Source) Execute(ctx context.Context, q *query.Builder) (*query.Response, error) {
	table := q.Collection()
	cols, err := s.tableColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return errorResponse(CodeUndefinedTable, fmt.Sprintf("relation %q does not exist", table)), nil
	}

	where, args, bad := buildWhere(cols, q)
	if bad != "" {
		return errorResponse(CodeUndefinedColumn, fmt.Sprintf("column %q does not exist on %s", bad, table)), nil
	}

	if values := q.UpdateValues(); values != nil {
		return s.executeUpdate(ctx, table, cols, values, where, args)
	}
	return s.executeSelect(ctx, table, cols, q, where, args)
}

func (s *Source) executeUpdate(ctx context.Context, table string, cols map[string]string, values map[string]any, where string, args []any) (*query.Response, error) {
	if len(values) == 0 {
		return errorResponse("", "update has no values"), nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		if _, ok := cols[k]; !ok {
			return errorResponse(CodeUndefinedColumn, fmt.Sprintf("column %q does not exist on %s", k, table)), nil
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys))
	setArgs := make([]any, 0, len(keys)+len(args))
	for _, k := range keys {
		sets = append(sets, k+" = ?")
		setArgs = append(setArgs, sqlValue(values[k]))
	}
	if _, ok := cols["updated_at"]; ok && values["updated_at"] == nil {
		sets = append(sets, "updated_at = ?")
		setArgs = append(setArgs, time.Now().UTC())
	}
	setArgs = append(setArgs, args...)

	stmt := fmt.Sprintf("UPDATE %s SET %s%s", table, strings.Join(sets, ", "), where)
	result, err := s.db.ExecContext(ctx, stmt, setArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", table, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	count := int(affected)
	return &query.Response{Data: json.RawMessage(`[]`), Count: &count}, nil
}

func (s *Source) executeSelect(ctx context.Context, table string, cols map[string]string, q *query.Builder, where string, args []any) (*query.Response, error) {
	fields := q.Fields()
	selectList := "*"
	if len(fields) > 0 {
		for _, f := range fields {
			if _, ok := cols[f]; !ok {
				return errorResponse(CodeUndefinedColumn, fmt.Sprintf("column %q does not exist on %s", f, table)), nil
			}
		}
		selectList = strings.Join(fields, ", ")
	}

	resp := &query.Response{}
	if q.WantsCount() {
		var total int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+where, args...).Scan(&total); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		resp.Count = &total
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s%s", selectList, table, where)

	if orders := q.Orders(); len(orders) > 0 {
		parts := make([]string, 0, len(orders))
		for _, o := range orders {
			if _, ok := cols[o.Field]; !ok {
				return errorResponse(CodeUndefinedColumn, fmt.Sprintf("column %q does not exist on %s", o.Field, table)), nil
			}
			dir := "DESC"
			if o.Ascending {
				dir = "ASC"
			}
			parts = append(parts, o.Field+" "+dir)
		}
		b.WriteString(" ORDER BY " + strings.Join(parts, ", "))
	}

	switch from, to, ok := q.RowRange(); {
	case q.IsSingle():
		// Two rows are enough to tell "exactly one" from "more than one".
		b.WriteString(" LIMIT 2")
	case ok:
		n := to - from + 1
		if n < 0 {
			n = 0
		}
		fmt.Fprintf(&b, " LIMIT %d OFFSET %d", n, from)
	case q.LimitValue() > 0:
		fmt.Fprintf(&b, " LIMIT %d", q.LimitValue())
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	records, err := scanRows(rows, cols)
	if err != nil {
		return nil, err
	}

	if q.IsSingle() {
		if len(records) != 1 {
			return errorResponse(CodeSingleRow, fmt.Sprintf("expected a single row from %s, got %d", table, len(records))), nil
		}
		data, err := json.Marshal(records[0])
		if err != nil {
			return nil, err
		}
		resp.Data = data
		return resp, nil
	}

	data, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}
	resp.Data = data
	return resp, nil
}

// tableColumns returns the declared columns of table, or nil when the
// table does not exist.
func (s *Source) tableColumns(ctx context.Context, table string) (map[string]string, error) {
	if !identPattern.MatchString(table) {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cols, ok := s.columns[table]; ok {
		return cols, nil
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	cols := make(map[string]string)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		cols[name] = strings.ToUpper(colType)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(cols) > 0 {
		s.columns[table] = cols
	}
	return cols, nil
}

// buildWhere renders the filters and OR groups of q. The returned bad
// string names the first unknown column, if any.
func buildWhere(cols map[string]string, q *query.Builder) (string, []any, string) {
	var clauses []string
	var args []any

	for _, c := range q.Filters() {
		if _, ok := cols[c.Field]; !ok {
			return "", nil, c.Field
		}
		clause, cargs := renderCondition(c)
		clauses = append(clauses, clause)
		args = append(args, cargs...)
	}

	for _, group := range q.OrGroups() {
		parts := make([]string, 0, len(group))
		for _, c := range group {
			if _, ok := cols[c.Field]; !ok {
				return "", nil, c.Field
			}
			clause, cargs := renderCondition(c)
			parts = append(parts, clause)
			args = append(args, cargs...)
		}
		clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
	}

	if len(clauses) == 0 {
		return "", nil, ""
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, ""
}

func renderCondition(c query.Condition) (string, []any) {
	switch c.Op {
	case query.OpIn:
		values, _ := c.Value.([]any)
		if len(values) == 0 {
			return "1 = 0", nil
		}
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
		args := make([]any, len(values))
		for i, v := range values {
			args[i] = sqlValue(v)
		}
		return c.Field + " IN (" + marks + ")", args
	case query.OpGte:
		return c.Field + " >= ?", []any{sqlValue(c.Value)}
	case query.OpLte:
		return c.Field + " <= ?", []any{sqlValue(c.Value)}
	case query.OpILike:
		return c.Field + " LIKE ? ESCAPE '\\'", []any{sqlValue(c.Value)}
	default:
		if c.Value == nil {
			return c.Field + " IS NULL", nil
		}
		return c.Field + " = ?", []any{sqlValue(c.Value)}
	}
}

// sqlValue unwraps named string and bool types so the driver sees plain
// values.
func sqlValue(v any) any {
	if v == nil {
		return nil
	}
	if _, isTime := v.(time.Time); isTime {
		return v
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	}
	return v
}

func scanRows(rows *sql.Rows, cols map[string]string) ([]map[string]any, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		record := make(map[string]any, len(names))
		for i, name := range names {
			record[name] = convertValue(cols[name], values[i])
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func convertValue(declType string, v any) any {
	if v == nil {
		return nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}

	switch declType {
	case "BOOLEAN":
		switch val := v.(type) {
		case int64:
			return val != 0
		case bool:
			return val
		case string:
			return val == "1" || strings.EqualFold(val, "true")
		}
	case "JSON":
		if s, ok := v.(string); ok && json.Valid([]byte(s)) {
			return json.RawMessage(s)
		}
	}
	return v
}

func errorResponse(code, message string) *query.Response {
	return &query.Response{Error: &query.ResponseError{Code: code, Message: message}}
}
