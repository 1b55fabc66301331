package pagination

import "gorm.io/gorm"

const (
	DefaultPageSize = 20
	MaxPageSize     = 20
)

// OrderBy is one entry of an ordering specification. Only columns from the
// caller-supplied allow-list survive Normalize.
type OrderBy struct {
	Key  string `json:"key"`
	Desc bool   `json:"desc"`
}

type Page struct {
	Current  int       `json:"current"`
	PageSize int       `json:"pageSize"`
	Order    []OrderBy `json:"order"`
}

type Result[T any] struct {
	Data     []T   `json:"data"`
	Current  int   `json:"current"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

// Normalize clamps the page bounds and drops order keys outside the
// allow-list. Current < 1 becomes 1, PageSize is clamped to [1, MaxPageSize].
func (p Page) Normalize(orderKeys ...string) Page {
	out := p
	if out.Current < 1 {
		out.Current = 1
	}
	if out.PageSize < 1 {
		out.PageSize = DefaultPageSize
	}
	if out.PageSize > MaxPageSize {
		out.PageSize = MaxPageSize
	}
	allowed := make(map[string]bool, len(orderKeys))
	for _, k := range orderKeys {
		allowed[k] = true
	}
	var order []OrderBy
	for _, o := range p.Order {
		if allowed[o.Key] {
			order = append(order, o)
		}
	}
	out.Order = order
	return out
}

func (p Page) Offset() int {
	return (p.Current - 1) * p.PageSize
}

// Apply attaches pagination and ordering to a gorm query. Callers must
// Normalize first so only allow-listed columns reach the SQL.
func (p Page) Apply(tx *gorm.DB) *gorm.DB {
	for _, o := range p.Order {
		dir := " ASC"
		if o.Desc {
			dir = " DESC"
		}
		tx = tx.Order(o.Key + dir)
	}
	return tx.Offset(p.Offset()).Limit(p.PageSize)
}

// MapResult projects a page of entities into response objects while
// keeping the page bookkeeping.
func MapResult[T, S any](r Result[T], fn func(*T) S) Result[S] {
	data := make([]S, len(r.Data))
	for i := range r.Data {
		data[i] = fn(&r.Data[i])
	}
	return Result[S]{
		Data:     data,
		Current:  r.Current,
		PageSize: r.PageSize,
		Total:    r.Total,
	}
}

func NewResult[T any](data []T, page Page, total int64) Result[T] {
	if data == nil {
		data = []T{}
	}
	return Result[T]{
		Data:     data,
		Current:  page.Current,
		PageSize: page.PageSize,
		Total:    total,
	}
}
