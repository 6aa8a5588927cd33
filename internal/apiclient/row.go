package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Row is one metrics record. Keys holds the column names in the order the
// server wrote them; numbers are kept as json.Number.
type Row struct {
	Keys   []string
	Values map[string]any
}

// NewRow builds a row from alternating key/value pairs.
func NewRow(kv ...any) Row {
	r := Row{Values: make(map[string]any, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		k := fmt.Sprint(kv[i])
		if _, ok := r.Values[k]; !ok {
			r.Keys = append(r.Keys, k)
		}
		r.Values[k] = kv[i+1]
	}
	return r
}

func (r Row) Get(key string) (any, bool) {
	v, ok := r.Values[key]
	return v, ok
}

func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("row: expected object, got %v", tok)
	}
	r.Keys = nil
	r.Values = make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("row: expected key, got %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("row: value for %q: %w", key, err)
		}
		if _, dup := r.Values[key]; !dup {
			r.Keys = append(r.Keys, key)
		}
		r.Values[key] = v
	}
	_, err = dec.Token()
	return err
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.Values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
