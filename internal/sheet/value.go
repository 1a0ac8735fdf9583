// Package sheet holds the in-memory table model used by the PIM pipeline and
// the excelize-backed readers and writers that move tables in and out of
// workbooks.
//
// Cells carry a tagged Value (Empty, Text or Number). Concatenation always
// goes through Value.String, comparison through Value.Equal; there is no
// implicit coercion between text and numbers.
package sheet

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return "empty"
	}
}

// Value is a single cell value.
type Value struct {
	kind Kind
	text string
	num  float64
}

// Empty is the zero Value.
var Empty = Value{}

// Text returns a text Value. The empty string is still Text, not Empty;
// use IsBlank when both should be treated alike.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number returns a numeric Value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether v holds no value at all.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// IsBlank reports whether v is Empty or the empty string.
func (v Value) IsBlank() bool {
	return v.kind == KindEmpty || (v.kind == KindText && v.text == "")
}

// Float returns the numeric payload and whether v is a Number.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// String renders v as text: Empty is "", numbers use the shortest decimal
// form that round-trips ("12", not "12.0").
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Equal is exact equality: same kind and same payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == o.text
	case KindNumber:
		return v.num == o.num
	default:
		return true
	}
}

// Concat joins the text forms of vs without a separator.
func Concat(vs ...Value) Value {
	n := 0
	for _, v := range vs {
		if v.kind == KindText {
			n += len(v.text)
		}
	}
	buf := make([]byte, 0, n)
	for _, v := range vs {
		buf = append(buf, v.String()...)
	}
	return Text(string(buf))
}

// Any returns the value in the form excelize.SetCellValue expects.
func (v Value) Any() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return v.num
	default:
		return nil
	}
}

func (v Value) GoString() string {
	switch v.kind {
	case KindText:
		return fmt.Sprintf("sheet.Text(%q)", v.text)
	case KindNumber:
		return fmt.Sprintf("sheet.Number(%v)", v.num)
	default:
		return "sheet.Empty"
	}
}

// MarshalJSON encodes Empty as null, Number as a JSON number and Text as a
// JSON string.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(v.text)
	case KindNumber:
		return json.Marshal(v.num)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*v = Empty
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Text(s)
	default:
		var f float64
		if err := json.Unmarshal(b, &f); err != nil {
			return fmt.Errorf("sheet: decode value %s: %w", b, err)
		}
		*v = Number(f)
	}
	return nil
}
