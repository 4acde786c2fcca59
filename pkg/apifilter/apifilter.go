// Package apifilter turns URL query parameters into a store independent
// filter, sort, projection and paging description.
//
//	/interviews?status=completed&answered[gte]=2&sort=-created_at&fields=topic,role&page=2
//
// Keys may carry an operator in brackets. A repeated key or the in operator
// with a comma separated value becomes a membership test. The reserved keys
// page, sort, fields and limit never become conditions.
package apifilter

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

type Operator string

const (
	OpEq  Operator = "eq"
	OpNe  Operator = "ne"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpIn  Operator = "in"
)

const (
	DefaultSort    = "-created_at"
	DefaultPerPage = 10
)

var ErrInvalidQuery = errors.New("invalid query")

var reserved = map[string]bool{
	"page":   true,
	"sort":   true,
	"fields": true,
	"limit":  true,
}

var operators = map[Operator]bool{
	OpEq: true, OpNe: true, OpGt: true, OpGte: true, OpLt: true, OpLte: true, OpIn: true,
}

type Condition struct {
	Field  string
	Op     Operator
	Values []string
}

type SortField struct {
	Field string
	Desc  bool
}

type Query struct {
	Conditions []Condition
	Sort       []SortField
	Fields     []string
	Page       int
	Limit      int
	Skip       int
}

// Builder accumulates a Query. The first error encountered sticks and is
// returned by Filtered and Paginated.
type Builder struct {
	params map[string][]string
	forced map[string]bool
	query  Query
	err    error
}

func New(params map[string][]string) *Builder {
	if params == nil {
		params = map[string][]string{}
	}
	return &Builder{params: params, forced: map[string]bool{}}
}

func (b *Builder) Filter() *Builder {
	if b.err != nil {
		return b
	}

	keys := make([]string, 0, len(b.params))
	for k := range b.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		field, op, err := parseKey(key)
		if err != nil {
			b.err = err
			return b
		}
		if field == "" || reserved[field] || b.forced[field] {
			continue
		}

		values := nonEmpty(b.params[key])
		if len(values) == 0 {
			continue
		}

		switch op {
		case OpIn:
			var members []string
			for _, v := range values {
				members = append(members, nonEmpty(strings.Split(v, ","))...)
			}
			if len(members) > 0 {
				b.query.Conditions = append(b.query.Conditions, Condition{Field: field, Op: OpIn, Values: members})
			}
		case OpEq:
			if len(values) > 1 {
				b.query.Conditions = append(b.query.Conditions, Condition{Field: field, Op: OpIn, Values: values})
			} else {
				b.query.Conditions = append(b.query.Conditions, Condition{Field: field, Op: OpEq, Values: values})
			}
		default:
			for _, v := range values {
				b.query.Conditions = append(b.query.Conditions, Condition{Field: field, Op: op, Values: []string{v}})
			}
		}
	}
	return b
}

// Where sets a condition the caller controls, replacing any condition the
// client supplied for the same field, before or after Filter.
func (b *Builder) Where(field string, op Operator, values ...string) *Builder {
	b.forced[field] = true
	kept := b.query.Conditions[:0]
	for _, c := range b.query.Conditions {
		if c.Field != field {
			kept = append(kept, c)
		}
	}
	b.query.Conditions = append(kept, Condition{Field: field, Op: op, Values: values})
	return b
}

func (b *Builder) Sort() *Builder {
	if b.err != nil {
		return b
	}

	raw := first(b.params["sort"])
	if raw == "" {
		raw = DefaultSort
	}

	b.query.Sort = nil
	for _, part := range nonEmpty(strings.Split(raw, ",")) {
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimSpace(strings.TrimLeft(part, "-+"))
		if name == "" {
			continue
		}
		b.query.Sort = append(b.query.Sort, SortField{Field: name, Desc: desc})
	}
	return b
}

func (b *Builder) Select() *Builder {
	if b.err != nil {
		return b
	}
	b.query.Fields = nonEmpty(strings.Split(first(b.params["fields"]), ","))
	return b
}

func (b *Builder) Paginate(perPage int) *Builder {
	if b.err != nil {
		return b
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}

	page, err := strconv.Atoi(first(b.params["page"]))
	if err != nil || page < 1 {
		page = 1
	}
	if page-1 > math.MaxInt/perPage {
		b.err = fmt.Errorf("%w: page %d is out of range", ErrInvalidQuery, page)
		return b
	}

	b.query.Page = page
	b.query.Limit = perPage
	b.query.Skip = (page - 1) * perPage
	return b
}

// Filtered returns the query without paging, for counting matches.
func (b *Builder) Filtered() (Query, error) {
	if b.err != nil {
		return Query{}, b.err
	}
	q := b.clone()
	q.Page, q.Limit, q.Skip = 0, 0, 0
	return q, nil
}

func (b *Builder) Paginated() (Query, error) {
	if b.err != nil {
		return Query{}, b.err
	}
	return b.clone(), nil
}

func (b *Builder) clone() Query {
	q := b.query
	q.Conditions = append([]Condition(nil), b.query.Conditions...)
	q.Sort = append([]SortField(nil), b.query.Sort...)
	q.Fields = append([]string(nil), b.query.Fields...)
	return q
}

func parseKey(key string) (string, Operator, error) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return strings.TrimSpace(key), OpEq, nil
	}
	if !strings.HasSuffix(key, "]") {
		return "", "", fmt.Errorf("%w: malformed key %q", ErrInvalidQuery, key)
	}

	field := strings.TrimSpace(key[:open])
	op := Operator(strings.ToLower(key[open+1 : len(key)-1]))
	if !operators[op] {
		return "", "", fmt.Errorf("%w: unknown operator %q", ErrInvalidQuery, op)
	}
	return field, op, nil
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
