package metrics

import (
	"encoding/json"
	"strings"

	"metricsdash/internal/apiclient"
	"metricsdash/internal/format"
)

const (
	NoDataMessage        = "No data found for the applied filters."
	LoginRequiredMessage = "Log in to load the metrics."
	LoadErrorMessage     = "Error loading data."
)

// microsPerUnit converts *_micros values to currency units.
const microsPerUnit = 1_000_000

// MoneyFormatter renders a currency amount.
type MoneyFormatter interface {
	Format(amount float64) string
}

// Table is a renderable description of a metrics result.
type Table struct {
	Columns     []Column `json:"columns"`
	Rows        [][]Cell `json:"rows"`
	Placeholder string   `json:"placeholder,omitempty"`
	Error       string   `json:"error,omitempty"`
	RowCount    int      `json:"row_count"`
}

type Column struct {
	Key    string    `json:"key"`
	Label  string    `json:"label"`
	Sorted bool      `json:"sorted"`
	Order  SortOrder `json:"order,omitempty"`
	// SortQuery is the encoded query string that sorts by this column.
	SortQuery string `json:"sort_query"`
}

type Cell struct {
	Key      string `json:"key"`
	Text     string `json:"text"`
	Currency bool   `json:"currency,omitempty"`
}

// MessageTable is a table whose body is a single placeholder row.
func MessageTable(msg string) Table {
	return Table{Placeholder: msg}
}

// ErrorTable is a table whose body is a single error row.
func ErrorTable(detail string) Table {
	if detail == "" {
		detail = LoadErrorMessage
	}
	return Table{Error: detail}
}

// Render maps rows to a Table. Columns come from the first row's keys in
// order; every row is rendered against those columns.
func Render(rows []apiclient.Row, state QueryState, money MoneyFormatter) Table {
	if len(rows) == 0 {
		return MessageTable(NoDataMessage)
	}

	keys := rows[0].Keys
	t := Table{
		Columns:  make([]Column, 0, len(keys)),
		Rows:     make([][]Cell, 0, len(rows)),
		RowCount: len(rows),
	}
	for _, key := range keys {
		sortState := state
		sortState.SortBy = key
		col := Column{
			Key:       key,
			Label:     format.Label(key),
			SortQuery: sortState.Values().Encode(),
		}
		if state.SortBy == key {
			col.Sorted = true
			col.Order = state.SortOrder
		}
		t.Columns = append(t.Columns, col)
	}
	for _, row := range rows {
		cells := make([]Cell, 0, len(keys))
		for _, key := range keys {
			v, _ := row.Get(key)
			cells = append(cells, renderCell(key, v, money))
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

func renderCell(key string, v any, money MoneyFormatter) Cell {
	if money != nil && strings.Contains(key, "micros") {
		if amount, ok := numeric(v); ok {
			return Cell{Key: key, Text: money.Format(amount / microsPerUnit), Currency: true}
		}
	}
	return Cell{Key: key, Text: format.Plain(v)}
}

func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}
