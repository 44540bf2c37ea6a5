// Package parse turns raw AT command responses into typed field maps.
//
// Decoding is a pure function family: one decoder per command verb,
// selected through a registry resolved at construction time. Decoders are
// defensive; a short or malformed response yields a partial FieldMap,
// never an error.
package parse

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the representations a Value can hold.
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindCells
)

// Value is a tagged union of the scalar types a decoder can produce, plus
// the neighbour-cell list. The zero Value is an empty string.
type Value struct {
	kind  Kind
	str   string
	i     int64
	f     float64
	cells []Cell
}

// Cell is one entry of a neighbour-cell listing. Signal fields hold the
// vendor's raw integer units; a field the modem reported as unavailable is
// left at zero.
type Cell struct {
	Technology string `json:"technology"`
	Relation   string `json:"relation"`
	EARFCN     int    `json:"earfcn"`
	PCID       int    `json:"pcid"`
	RSRQ       int    `json:"rsrq"`
	RSRP       int    `json:"rsrp"`
	RSSI       int    `json:"rssi"`
	SINR       int    `json:"sinr"`
}

// String makes a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int makes an integer Value.
func Int(i int) Value { return Value{kind: KindInt, i: int64(i)} }

// Float makes a float Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// CellList makes a Value holding an ordered neighbour-cell list.
func CellList(cells []Cell) Value { return Value{kind: KindCells, cells: cells} }

// Unknown is the literal marker used when a vendor sentinel says a value
// exists but cannot be measured.
func Unknown() Value { return String("unknown") }

// Kind reports which representation the Value holds.
func (v Value) Kind() Kind { return v.kind }

// Int returns the integer representation, if the Value holds one.
func (v Value) Int() (int, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return int(v.i), true
}

// Float returns the float representation, if the Value holds one.
func (v Value) Float() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

// Cells returns the neighbour-cell list, if the Value holds one.
func (v Value) Cells() []Cell {
	if v.kind != KindCells {
		return nil
	}
	return v.cells
}

// Text renders the Value for columnar sinks.
func (v Value) Text() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindCells:
		parts := make([]string, 0, len(v.cells))
		for _, c := range v.cells {
			parts = append(parts, fmt.Sprintf("%s/%s earfcn=%d pcid=%d rsrp=%d rsrq=%d",
				c.Technology, c.Relation, c.EARFCN, c.PCID, c.RSRP, c.RSRQ))
		}
		return strings.Join(parts, "; ")
	default:
		return v.str
	}
}

// Equal reports whether two Values hold the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindCells:
		if len(v.cells) != len(o.cells) {
			return false
		}
		for i := range v.cells {
			if v.cells[i] != o.cells[i] {
				return false
			}
		}
		return true
	default:
		return v.str == o.str
	}
}

// MarshalJSON renders the underlying representation, not the union
// wrapper, so a FieldMap serialises as a plain JSON object.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindCells:
		return json.Marshal(v.cells)
	default:
		return json.Marshal(v.str)
	}
}

// FieldMap maps logical field names to decoded values. Keys come from the
// fixed vocabulary in fields.go.
type FieldMap map[string]Value

// Merge copies every entry of other into m, overwriting on collision.
// Existing keys that other does not re-supply are kept.
func (m FieldMap) Merge(other FieldMap) {
	for k, v := range other {
		m[k] = v
	}
}

// Clone returns a shallow copy of m.
func (m FieldMap) Clone() FieldMap {
	out := make(FieldMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
