package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medrec-api/internal/model"
	apperrors "github.com/jwalitptl/medrec-api/pkg/errors"
)

func bindFilter(t *testing.T, rawQuery string) FilterQuery {
	t.Helper()
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)

	var q FilterQuery
	require.NoError(t, c.ShouldBindQuery(&q))
	return q
}

func TestFilterQueryScope(t *testing.T) {
	requester := &model.Requester{ID: uuid.New(), Role: model.RoleDoctor}
	partner := uuid.New()

	q := bindFilter(t, "partner="+partner.String())
	scope, err := q.Scope(requester)
	require.NoError(t, err)
	assert.Equal(t, requester, scope.Requester)
	require.NotNil(t, scope.Partner)
	assert.Equal(t, partner, *scope.Partner)

	q = bindFilter(t, "")
	scope, err = q.Scope(requester)
	require.NoError(t, err)
	assert.Nil(t, scope.Partner)

	q = bindFilter(t, "partner=not-a-uuid")
	_, err = q.Scope(requester)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))
}

func TestFilterQueryPagination(t *testing.T) {
	q := bindFilter(t, "page=2&page_size=25")
	spec := q.PageSpec()
	assert.Equal(t, 2, spec.Page)
	require.NotNil(t, spec.PageSize)
	assert.Equal(t, 25, *spec.PageSize)

	// Absent page_size means the whole result set.
	q = bindFilter(t, "page=2")
	assert.Nil(t, q.PageSpec().PageSize)
}

func TestFilterQueryRanges(t *testing.T) {
	q := bindFilter(t, "created_min=100&modified_max=900")

	created := q.Created()
	require.NotNil(t, created.Min)
	assert.Equal(t, int64(100), *created.Min)
	assert.Nil(t, created.Max)

	modified := q.Modified()
	assert.Nil(t, modified.Min)
	require.NotNil(t, modified.Max)
	assert.Equal(t, int64(900), *modified.Max)
}

func TestFilterQuerySort(t *testing.T) {
	q := bindFilter(t, "sort_field=name&sort_desc=true")
	assert.Equal(t, model.SortOrder{Field: "name", Desc: true}, q.Sort())
}

func TestFilterQueryEntityID(t *testing.T) {
	id := uuid.New()

	q := bindFilter(t, "id="+id.String())
	got, err := q.EntityID()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, *got)

	q = bindFilter(t, "")
	got, err = q.EntityID()
	require.NoError(t, err)
	assert.Nil(t, got)

	q = bindFilter(t, "id=nope")
	_, err = q.EntityID()
	require.Error(t, err)
}

func TestRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", apperrors.NewNotFound("thing", nil), http.StatusNotFound},
		{"bad request", apperrors.NewBadRequest("bad", nil), http.StatusBadRequest},
		{"unauthorized", apperrors.Unauthorized("who"), http.StatusUnauthorized},
		{"forbidden", apperrors.Forbidden("no"), http.StatusForbidden},
		{"conflict", apperrors.NewConflict("dup", nil), http.StatusConflict},
		{"internal", apperrors.NewInternal(nil), http.StatusInternalServerError},
		{"unknown error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			RespondError(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
