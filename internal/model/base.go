package model

import "github.com/google/uuid"

// SortOrder represents sorting parameters
type SortOrder struct {
	Field string `json:"field" form:"sort_field"`
	Desc  bool   `json:"desc" form:"sort_desc"`
}

// PageSpec represents common pagination parameters. A nil PageSize
// means the full result set is returned.
type PageSpec struct {
	Page     int  `json:"page" form:"page"`
	PageSize *int `json:"page_size" form:"page_size"`
}

// Int64Range is an inclusive range over epoch-millis fields. Nil
// bounds are open.
type Int64Range struct {
	Min *int64 `json:"min" form:"min"`
	Max *int64 `json:"max" form:"max"`
}

// QueryScope carries the identity a query runs on behalf of, plus the
// optional partner narrowing the result to one patient-doctor pair.
type QueryScope struct {
	Requester *Requester `json:"-"`
	Partner   *uuid.UUID `json:"partner,omitempty" form:"partner"`
}
