package apifilter

import (
	"fmt"
	"strings"
)

var sqlOperators = map[Operator]string{
	OpEq:  "=",
	OpNe:  "<>",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// SQLClause holds the fragments for a Postgres query. Values are always
// bound as $n placeholders starting at the argument offset given to ToSQL.
type SQLClause struct {
	Where   string
	OrderBy string
	Limit   string
	Args    []any
}

// ToSQL renders q against schema. firstArg is the placeholder number of the
// first generated argument.
func (q Query) ToSQL(schema Schema, firstArg int) (SQLClause, error) {
	if firstArg < 1 {
		firstArg = 1
	}
	var clause SQLClause
	next := firstArg

	placeholder := func(v any) string {
		clause.Args = append(clause.Args, v)
		p := fmt.Sprintf("$%d", next)
		next++
		return p
	}

	var predicates []string
	for _, c := range q.Conditions {
		field, ok := schema.lookup(c.Field)
		if !ok || field.SelectOnly || len(c.Values) == 0 {
			continue
		}
		values, err := field.convertAll(c.Values)
		if err != nil {
			return SQLClause{}, err
		}

		if c.Op == OpIn {
			holders := make([]string, len(values))
			for i, v := range values {
				holders[i] = placeholder(v)
			}
			predicates = append(predicates, fmt.Sprintf("%s IN (%s)", field.Column, strings.Join(holders, ", ")))
			continue
		}

		op, ok := sqlOperators[c.Op]
		if !ok {
			return SQLClause{}, fmt.Errorf("%w: unknown operator %q", ErrInvalidQuery, c.Op)
		}
		predicates = append(predicates, fmt.Sprintf("%s %s %s", field.Column, op, placeholder(values[0])))
	}
	if len(predicates) > 0 {
		clause.Where = "WHERE " + strings.Join(predicates, " AND ")
	}

	var orders []string
	for _, s := range q.Sort {
		field, ok := schema.lookup(s.Field)
		if !ok || field.SelectOnly {
			continue
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		orders = append(orders, field.Column+" "+dir)
	}
	if len(orders) > 0 {
		clause.OrderBy = "ORDER BY " + strings.Join(orders, ", ")
	}

	if q.Limit > 0 {
		clause.Limit = fmt.Sprintf("LIMIT %s OFFSET %s", placeholder(q.Limit), placeholder(q.Skip))
	}

	return clause, nil
}

// String joins the non-empty fragments with single spaces.
func (c SQLClause) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.Where, c.OrderBy, c.Limit} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
