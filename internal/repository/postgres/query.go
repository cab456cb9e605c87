package postgres

import (
	"fmt"
	"strings"

	"github.com/jwalitptl/medrec-api/internal/model"
)

// queryBuilder accumulates WHERE conditions with positional args. The
// same conditions feed the COUNT query and the page query, so the
// reported total always reflects the pre-pagination match set.
type queryBuilder struct {
	conds []string
	args  []interface{}
}

func newQueryBuilder() *queryBuilder {
	return &queryBuilder{}
}

// next is the 1-based index the next placeholder will get.
func (b *queryBuilder) next() int {
	return len(b.args) + 1
}

func (b *queryBuilder) where(frag string, args ...interface{}) {
	b.conds = append(b.conds, frag)
	b.args = append(b.args, args...)
}

func (b *queryBuilder) equal(col string, v interface{}) {
	b.where(fmt.Sprintf("%s = $%d", col, b.next()), v)
}

// contains adds a case-insensitive substring match on col.
func (b *queryBuilder) contains(col, term string) {
	if term == "" {
		return
	}
	b.where(fmt.Sprintf("%s ILIKE $%d", col, b.next()), "%"+term+"%")
}

// span adds inclusive bounds on an epoch-millis column. Nil bounds are
// open.
func (b *queryBuilder) span(col string, r model.Int64Range) {
	if r.Min != nil {
		b.where(fmt.Sprintf("%s >= $%d", col, b.next()), *r.Min)
	}
	if r.Max != nil {
		b.where(fmt.Sprintf("%s <= $%d", col, b.next()), *r.Max)
	}
}

func (b *queryBuilder) whereClause() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// orderBy renders a deterministic ORDER BY: the requested field and
// direction when it is in the entity's sortable set, the default
// otherwise, always followed by the fixed tie-break so equal keys
// never reorder between pages.
func orderBy(sort model.SortOrder, sortable map[string]string, defaultOrder string) string {
	col, ok := sortable[sort.Field]
	if !ok {
		return " ORDER BY " + defaultOrder + ", id ASC"
	}
	dir := "ASC"
	if sort.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, %s, id ASC", col, dir, defaultOrder)
}

// paginate renders LIMIT/OFFSET. An unset page size returns the full
// result set.
func paginate(p model.PageSpec) string {
	if p.PageSize == nil {
		return ""
	}
	page := p.Page
	if page < 0 {
		page = 0
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", *p.PageSize, page**p.PageSize)
}
