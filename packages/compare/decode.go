package compare

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned when a body cannot be decoded as JSON.
var ErrInvalidJSON = errors.New("invalid JSON")

// FromJSON decodes data into a Value, keeping object keys in document order.
func FromJSON(data []byte) (Value, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	return fromResult(gjson.ParseBytes(data)), nil
}

// FromJSONString is FromJSON for string input.
func FromJSONString(s string) (Value, error) {
	if !gjson.Valid(s) {
		return nil, ErrInvalidJSON
	}
	return fromResult(gjson.Parse(s)), nil
}

// fromResult converts a gjson result into a Value. A result that does not
// exist converts to Null.
func fromResult(r gjson.Result) Value {
	switch r.Type {
	case gjson.False:
		return Bool(false)
	case gjson.True:
		return Bool(true)
	case gjson.Number:
		return Number{Float: r.Num, Literal: r.Raw}
	case gjson.String:
		return String(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			arr := Array{}
			r.ForEach(func(_, v gjson.Result) bool {
				arr = append(arr, fromResult(v))
				return true
			})
			return arr
		}
		obj := NewObject()
		r.ForEach(func(k, v gjson.Result) bool {
			obj.Set(k.Str, fromResult(v))
			return true
		})
		return obj
	}
	return Null{}
}

// MustFromJSON is FromJSONString that panics on invalid input. Intended for
// fixtures.
func MustFromJSON(s string) Value {
	v, err := FromJSONString(s)
	if err != nil {
		panic(fmt.Sprintf("compare: %v: %s", err, s))
	}
	return v
}
