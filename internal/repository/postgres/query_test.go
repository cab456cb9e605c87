package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/medrec-api/internal/model"
)

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }

func TestQueryBuilderWhereClause(t *testing.T) {
	qb := newQueryBuilder()
	assert.Equal(t, "", qb.whereClause())

	qb.equal("owner_id", "abc")
	qb.contains("name", "flu")
	qb.span("created_at", model.Int64Range{Min: int64Ptr(10), Max: int64Ptr(20)})

	assert.Equal(t,
		" WHERE owner_id = $1 AND name ILIKE $2 AND created_at >= $3 AND created_at <= $4",
		qb.whereClause())
	assert.Equal(t, []interface{}{"abc", "%flu%", int64(10), int64(20)}, qb.args)
}

func TestQueryBuilderSkipsEmptyContains(t *testing.T) {
	qb := newQueryBuilder()
	qb.contains("name", "")
	assert.Equal(t, "", qb.whereClause())
}

func TestQueryBuilderOpenSpanBounds(t *testing.T) {
	qb := newQueryBuilder()
	qb.span("last_modified", model.Int64Range{Min: int64Ptr(5)})
	assert.Equal(t, " WHERE last_modified >= $1", qb.whereClause())

	qb = newQueryBuilder()
	qb.span("last_modified", model.Int64Range{Max: int64Ptr(9)})
	assert.Equal(t, " WHERE last_modified <= $1", qb.whereClause())

	qb = newQueryBuilder()
	qb.span("last_modified", model.Int64Range{})
	assert.Equal(t, "", qb.whereClause())
}

func TestOrderBy(t *testing.T) {
	sortable := map[string]string{"name": "name", "created": "created_at"}
	def := "last_modified DESC"

	tests := []struct {
		name string
		sort model.SortOrder
		want string
	}{
		{
			name: "unknown field falls back to default",
			sort: model.SortOrder{Field: "bogus"},
			want: " ORDER BY last_modified DESC, id ASC",
		},
		{
			name: "empty sort falls back to default",
			sort: model.SortOrder{},
			want: " ORDER BY last_modified DESC, id ASC",
		},
		{
			name: "ascending on known field",
			sort: model.SortOrder{Field: "name"},
			want: " ORDER BY name ASC, last_modified DESC, id ASC",
		},
		{
			name: "descending on known field",
			sort: model.SortOrder{Field: "created", Desc: true},
			want: " ORDER BY created_at DESC, last_modified DESC, id ASC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orderBy(tt.sort, sortable, def))
		})
	}
}

func TestPaginate(t *testing.T) {
	// No page size means the whole result set.
	assert.Equal(t, "", paginate(model.PageSpec{Page: 3}))

	assert.Equal(t, " LIMIT 10 OFFSET 0", paginate(model.PageSpec{Page: 0, PageSize: intPtr(10)}))
	assert.Equal(t, " LIMIT 10 OFFSET 20", paginate(model.PageSpec{Page: 2, PageSize: intPtr(10)}))

	// Negative pages clamp to the first page.
	assert.Equal(t, " LIMIT 5 OFFSET 0", paginate(model.PageSpec{Page: -1, PageSize: intPtr(5)}))
}
