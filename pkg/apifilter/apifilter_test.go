package apifilter

import (
	"math"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

var testSchema = Schema{
	"id":         {Column: "id", Document: "_id", Kind: KindUUID},
	"user_id":    {Kind: KindUUID},
	"status":     {},
	"topic":      {},
	"role":       {},
	"answered":   {Kind: KindInt},
	"created_at": {Kind: KindTime},
}

func parse(t *testing.T, raw string) map[string][]string {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return values
}

func TestFilterEquality(t *testing.T) {
	q, err := New(parse(t, "status=completed&page=2&sort=topic&fields=topic&limit=5")).Filter().Filtered()
	require.NoError(t, err)

	assert.Equal(t, []Condition{{Field: "status", Op: OpEq, Values: []string{"completed"}}}, q.Conditions)
}

func TestFilterMembershipAndComparison(t *testing.T) {
	q, err := New(parse(t, "role=backend&role=frontend&topic[in]=go,rust&answered[gte]=2&answered[lt]=5")).Filter().Filtered()
	require.NoError(t, err)

	assert.Equal(t, []Condition{
		{Field: "answered", Op: OpGte, Values: []string{"2"}},
		{Field: "answered", Op: OpLt, Values: []string{"5"}},
		{Field: "role", Op: OpIn, Values: []string{"backend", "frontend"}},
		{Field: "topic", Op: OpIn, Values: []string{"go", "rust"}},
	}, q.Conditions)
}

func TestFilterUnknownOperator(t *testing.T) {
	_, err := New(parse(t, "answered[like]=2")).Filter().Sort().Paginate(10).Paginated()
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestFilterSkipsEmptyValues(t *testing.T) {
	q, err := New(parse(t, "status=&topic[in]=,")).Filter().Filtered()
	require.NoError(t, err)
	assert.Empty(t, q.Conditions)
}

func TestWhereOverridesClientCondition(t *testing.T) {
	owner := uuid.New().String()

	q, err := New(parse(t, "user_id="+uuid.New().String())).Filter().Where("user_id", OpEq, owner).Filtered()
	require.NoError(t, err)
	assert.Equal(t, []Condition{{Field: "user_id", Op: OpEq, Values: []string{owner}}}, q.Conditions)

	q, err = New(parse(t, "user_id="+uuid.New().String())).Where("user_id", OpEq, owner).Filter().Filtered()
	require.NoError(t, err)
	assert.Equal(t, []Condition{{Field: "user_id", Op: OpEq, Values: []string{owner}}}, q.Conditions)
}

func TestSort(t *testing.T) {
	q, err := New(nil).Sort().Filtered()
	require.NoError(t, err)
	assert.Equal(t, []SortField{{Field: "created_at", Desc: true}}, q.Sort)

	q, err = New(parse(t, "sort=topic,-answered")).Sort().Filtered()
	require.NoError(t, err)
	assert.Equal(t, []SortField{{Field: "topic"}, {Field: "answered", Desc: true}}, q.Sort)
}

func TestSelect(t *testing.T) {
	q, err := New(parse(t, "fields=topic, role,,")).Select().Filtered()
	require.NoError(t, err)
	assert.Equal(t, []string{"topic", "role"}, q.Fields)
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		perPage  int
		wantPage int
		wantSkip int
		wantLim  int
	}{
		{"first page by default", "", 2, 1, 0, 2},
		{"second page", "page=2", 2, 2, 2, 2},
		{"third page of ten", "page=3", 10, 3, 20, 10},
		{"invalid page", "page=abc", 5, 1, 0, 5},
		{"negative page", "page=-4", 5, 1, 0, 5},
		{"default per page", "page=2", 0, 2, DefaultPerPage, DefaultPerPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := New(parse(t, tt.raw)).Paginate(tt.perPage).Paginated()
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, q.Page)
			assert.Equal(t, tt.wantSkip, q.Skip)
			assert.Equal(t, tt.wantLim, q.Limit)
		})
	}
}

func TestPaginateRejectsOverflowingPage(t *testing.T) {
	lastPage := math.MaxInt/10 + 1

	for _, page := range []int{math.MaxInt, lastPage + 1} {
		t.Run(strconv.Itoa(page), func(t *testing.T) {
			b := New(parse(t, "page="+strconv.Itoa(page))).Filter().Paginate(10)

			_, err := b.Paginated()
			assert.ErrorIs(t, err, ErrInvalidQuery)
			_, err = b.Filtered()
			assert.ErrorIs(t, err, ErrInvalidQuery)
		})
	}

	q, err := New(parse(t, "page="+strconv.Itoa(lastPage))).Paginate(10).Paginated()
	require.NoError(t, err)
	assert.Equal(t, lastPage, q.Page)
	assert.Equal(t, (lastPage-1)*10, q.Skip)
	assert.Positive(t, q.Skip)
}

func TestFilteredDropsPaging(t *testing.T) {
	b := New(parse(t, "page=3&status=completed")).Filter().Paginate(10)

	filtered, err := b.Filtered()
	require.NoError(t, err)
	assert.Zero(t, filtered.Limit)
	assert.Zero(t, filtered.Skip)

	paginated, err := b.Paginated()
	require.NoError(t, err)
	assert.Equal(t, 10, paginated.Limit)
	assert.Equal(t, 20, paginated.Skip)
	assert.Equal(t, filtered.Conditions, paginated.Conditions)
}

func TestToSQL(t *testing.T) {
	owner := uuid.New()
	q, err := New(parse(t, "status=completed&topic[in]=go,rust&answered[gte]=2&bogus=1&sort=-created_at,nope,topic&page=2")).
		Filter().
		Where("user_id", OpEq, owner.String()).
		Sort().
		Paginate(5).
		Paginated()
	require.NoError(t, err)

	clause, err := q.ToSQL(testSchema, 1)
	require.NoError(t, err)

	assert.Equal(t, "WHERE answered >= $1 AND status = $2 AND topic IN ($3, $4) AND user_id = $5", clause.Where)
	assert.Equal(t, "ORDER BY created_at DESC, topic ASC", clause.OrderBy)
	assert.Equal(t, "LIMIT $6 OFFSET $7", clause.Limit)
	assert.Equal(t, []any{2, "completed", "go", "rust", owner, 5, 5}, clause.Args)
}

func TestToSQLNeverInterpolatesValues(t *testing.T) {
	q, err := New(map[string][]string{"status": {"'; DROP TABLE interviews; --"}}).Filter().Filtered()
	require.NoError(t, err)

	clause, err := q.ToSQL(testSchema, 3)
	require.NoError(t, err)
	assert.Equal(t, "WHERE status = $3", clause.Where)
	assert.NotContains(t, clause.String(), "DROP")
	assert.Equal(t, []any{"'; DROP TABLE interviews; --"}, clause.Args)
}

func TestToSQLRejectsBadValues(t *testing.T) {
	q, err := New(parse(t, "answered[gt]=many")).Filter().Filtered()
	require.NoError(t, err)

	_, err = q.ToSQL(testSchema, 1)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestToSQLEmpty(t *testing.T) {
	clause, err := Query{}.ToSQL(testSchema, 1)
	require.NoError(t, err)
	assert.Equal(t, "", clause.String())
	assert.Empty(t, clause.Args)
}

func TestToBSON(t *testing.T) {
	owner := uuid.New()
	q, err := New(parse(t, "answered[gte]=1&answered[lte]=3&role=a&role=b&created_at[gte]=2024-01-02&fields=topic,id&sort=topic")).
		Filter().
		Where("user_id", OpEq, owner.String()).
		Sort().
		Select().
		Paginate(4).
		Paginated()
	require.NoError(t, err)

	out, err := q.ToBSON(testSchema)
	require.NoError(t, err)

	assert.Equal(t, bson.D{
		{Key: "answered", Value: bson.D{{Key: "$gte", Value: 1}, {Key: "$lte", Value: 3}}},
		{Key: "created_at", Value: bson.D{{Key: "$gte", Value: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}}},
		{Key: "role", Value: bson.D{{Key: "$in", Value: bson.A{"a", "b"}}}},
		{Key: "user_id", Value: bson.D{{Key: "$eq", Value: owner}}},
	}, out.Filter)
	assert.Equal(t, bson.D{{Key: "topic", Value: 1}}, out.Sort)
	assert.Equal(t, bson.D{{Key: "topic", Value: 1}, {Key: "_id", Value: 1}}, out.Projection)
	assert.Equal(t, int64(0), out.Skip)
	assert.Equal(t, int64(4), out.Limit)

	opts := out.FindOptions()
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(4), *opts.Limit)
}

func TestProject(t *testing.T) {
	type item struct {
		ID    string `json:"id"`
		Topic string `json:"topic"`
		Role  string `json:"role"`
	}
	items := []item{{ID: "1", Topic: "go", Role: "backend"}}

	out, err := Project(items, []string{"topic"})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"id": "1", "topic": "go"}}, out)

	out, err = Project(items, nil)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"id": "1", "topic": "go", "role": "backend"}}, out)
}

func TestSelectOnlyFieldsAreNotQueryable(t *testing.T) {
	schema := Schema{
		"topic":     {},
		"questions": {SelectOnly: true},
	}
	q, err := New(map[string][]string{
		"questions": {"x"},
		"topic":     {"go"},
		"sort":      {"questions,-topic"},
		"fields":    {"questions"},
	}).Filter().Sort().Select().Paginated()
	require.NoError(t, err)

	clause, err := q.ToSQL(schema, 1)
	require.NoError(t, err)
	assert.Equal(t, "WHERE topic = $1 ORDER BY topic DESC", clause.String())

	out, err := q.ToBSON(schema)
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "topic", Value: bson.D{{Key: "$eq", Value: "go"}}}}, out.Filter)
	assert.Equal(t, bson.D{{Key: "topic", Value: -1}}, out.Sort)
	assert.Equal(t, bson.D{{Key: "questions", Value: 1}}, out.Projection)
}
