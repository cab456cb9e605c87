package handler

import (
	"github.com/google/uuid"

	"github.com/jwalitptl/medrec-api/internal/model"
	apperrors "github.com/jwalitptl/medrec-api/pkg/errors"
)

// FilterQuery is the query-string surface shared by every filtered
// list endpoint. Absent fields are no-ops.
type FilterQuery struct {
	Partner     string `form:"partner"`
	ID          string `form:"id"`
	Page        int    `form:"page"`
	PageSize    *int   `form:"page_size"`
	SortField   string `form:"sort_field"`
	SortDesc    bool   `form:"sort_desc"`
	CreatedMin  *int64 `form:"created_min"`
	CreatedMax  *int64 `form:"created_max"`
	ModifiedMin *int64 `form:"modified_min"`
	ModifiedMax *int64 `form:"modified_max"`
}

func (q *FilterQuery) Scope(requester *model.Requester) (model.QueryScope, error) {
	scope := model.QueryScope{Requester: requester}
	if q.Partner != "" {
		partner, err := uuid.Parse(q.Partner)
		if err != nil {
			return scope, apperrors.NewBadRequest("invalid partner id", err)
		}
		scope.Partner = &partner
	}
	return scope, nil
}

func (q *FilterQuery) EntityID() (*uuid.UUID, error) {
	if q.ID == "" {
		return nil, nil
	}
	id, err := uuid.Parse(q.ID)
	if err != nil {
		return nil, apperrors.NewBadRequest("invalid id", err)
	}
	return &id, nil
}

func (q *FilterQuery) Sort() model.SortOrder {
	return model.SortOrder{Field: q.SortField, Desc: q.SortDesc}
}

func (q *FilterQuery) PageSpec() model.PageSpec {
	return model.PageSpec{Page: q.Page, PageSize: q.PageSize}
}

func (q *FilterQuery) Created() model.Int64Range {
	return model.Int64Range{Min: q.CreatedMin, Max: q.CreatedMax}
}

func (q *FilterQuery) Modified() model.Int64Range {
	return model.Int64Range{Min: q.ModifiedMin, Max: q.ModifiedMax}
}

// ParseOptionalUUID parses a query-string uuid, treating empty as
// absent.
func ParseOptionalUUID(raw, field string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.NewBadRequest("invalid "+field, err)
	}
	return &id, nil
}
