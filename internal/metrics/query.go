package metrics

import (
	"fmt"
	"net/url"
	"strings"
)

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case Asc, Desc:
		return o, nil
	default:
		return "", fmt.Errorf("sort order must be asc or desc, got %q", s)
	}
}

// QueryState is the filter and sort state behind a metrics fetch.
type QueryState struct {
	StartDate string    `json:"start_date,omitempty"`
	EndDate   string    `json:"end_date,omitempty"`
	SortBy    string    `json:"sort_by,omitempty"`
	SortOrder SortOrder `json:"sort_order"`
}

// Validate checks the sort order. Dates are forwarded as entered; the API
// decides whether a range is acceptable.
func (q QueryState) Validate() error {
	_, err := ParseSortOrder(string(q.SortOrder))
	return err
}

// Values serializes the non-empty fields. sort_order is always present.
func (q QueryState) Values() url.Values {
	v := url.Values{}
	if q.StartDate != "" {
		v.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		v.Set("end_date", q.EndDate)
	}
	if q.SortBy != "" {
		v.Set("sort_by", q.SortBy)
	}
	v.Set("sort_order", string(q.SortOrder))
	return v
}

// Apply returns q updated with the parameters present in params. Absent
// parameters keep their current value; present but empty date parameters
// clear the filter.
func (q QueryState) Apply(params url.Values) (QueryState, error) {
	if _, ok := params["start_date"]; ok {
		q.StartDate = strings.TrimSpace(params.Get("start_date"))
	}
	if _, ok := params["end_date"]; ok {
		q.EndDate = strings.TrimSpace(params.Get("end_date"))
	}
	if s := params.Get("sort_order"); s != "" {
		o, err := ParseSortOrder(s)
		if err != nil {
			return q, err
		}
		q.SortOrder = o
	}
	if col := strings.TrimSpace(params.Get("sort_by")); col != "" {
		q.SortBy = col
	}
	return q, q.Validate()
}
