package apifilter

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var bsonOperators = map[Operator]string{
	OpEq:  "$eq",
	OpNe:  "$ne",
	OpGt:  "$gt",
	OpGte: "$gte",
	OpLt:  "$lt",
	OpLte: "$lte",
	OpIn:  "$in",
}

type BSONQuery struct {
	Filter     bson.D
	Sort       bson.D
	Projection bson.D
	Skip       int64
	Limit      int64
}

// ToBSON renders q as a MongoDB filter. Conditions on the same field are
// merged into one operator document.
func (q Query) ToBSON(schema Schema) (BSONQuery, error) {
	out := BSONQuery{Filter: bson.D{}, Skip: int64(q.Skip), Limit: int64(q.Limit)}

	byKey := map[string]bson.D{}
	var order []string
	for _, c := range q.Conditions {
		field, ok := schema.lookup(c.Field)
		if !ok || field.SelectOnly || len(c.Values) == 0 {
			continue
		}
		values, err := field.convertAll(c.Values)
		if err != nil {
			return BSONQuery{}, err
		}
		op, ok := bsonOperators[c.Op]
		if !ok {
			return BSONQuery{}, fmt.Errorf("%w: unknown operator %q", ErrInvalidQuery, c.Op)
		}

		var operand any = values[0]
		if c.Op == OpIn {
			operand = bson.A(values)
		}

		if _, seen := byKey[field.Document]; !seen {
			order = append(order, field.Document)
		}
		byKey[field.Document] = append(byKey[field.Document], bson.E{Key: op, Value: operand})
	}
	for _, key := range order {
		out.Filter = append(out.Filter, bson.E{Key: key, Value: byKey[key]})
	}

	for _, s := range q.Sort {
		field, ok := schema.lookup(s.Field)
		if !ok || field.SelectOnly {
			continue
		}
		dir := 1
		if s.Desc {
			dir = -1
		}
		out.Sort = append(out.Sort, bson.E{Key: field.Document, Value: dir})
	}

	for _, name := range q.Fields {
		field, ok := schema.lookup(name)
		if !ok {
			continue
		}
		out.Projection = append(out.Projection, bson.E{Key: field.Document, Value: 1})
	}

	return out, nil
}

func (b BSONQuery) FindOptions() *options.FindOptions {
	opts := options.Find()
	if len(b.Sort) > 0 {
		opts.SetSort(b.Sort)
	}
	if len(b.Projection) > 0 {
		opts.SetProjection(b.Projection)
	}
	if b.Limit > 0 {
		opts.SetLimit(b.Limit).SetSkip(b.Skip)
	}
	return opts
}
