package compare

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Kind is the JSON type of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

var kindNames = [...]string{"null", "boolean", "number", "string", "array", "object"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a decoded JSON value. The implementations are Null, Bool, Number,
// String, Array and *Object.
type Value interface {
	Kind() Kind
	MarshalJSON() ([]byte, error)
	isValue()
}

type Null struct{}

func (Null) Kind() Kind                   { return KindNull }
func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }
func (Null) isValue()                     {}

type Bool bool

func (Bool) Kind() Kind                     { return KindBool }
func (b Bool) MarshalJSON() ([]byte, error) { return []byte(strconv.FormatBool(bool(b))), nil }
func (Bool) isValue()                       {}

// Number keeps the literal text it was decoded from so it renders unchanged.
// Two numbers are equal when their float64 values are equal.
type Number struct {
	Float   float64
	Literal string
}

// NewNumber returns a Number without a source literal.
func NewNumber(f float64) Number {
	return Number{Float: f}
}

func (Number) Kind() Kind { return KindNumber }
func (n Number) MarshalJSON() ([]byte, error) {
	if n.Literal != "" {
		return []byte(n.Literal), nil
	}
	return []byte(strconv.FormatFloat(n.Float, 'g', -1, 64)), nil
}
func (Number) isValue() {}

type String string

func (String) Kind() Kind                     { return KindString }
func (s String) MarshalJSON() ([]byte, error) { return json.Marshal(string(s)) }
func (String) isValue()                       {}

type Array []Value

func (Array) Kind() Kind { return KindArray }
func (a Array) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := v.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
func (Array) isValue() {}

// Object is a JSON object that remembers key insertion order.
type Object struct {
	keys   []string
	fields map[string]Value
}

func NewObject() *Object {
	return &Object{fields: make(map[string]Value)}
}

// Set stores v under key. Re-setting a key replaces its value but keeps its
// original position, matching how duplicate keys decode.
func (o *Object) Set(key string, v Value) *Object {
	if _, ok := o.fields[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.fields[key] = v
	return o
}

func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.fields[key]
	return v, ok
}

func (o *Object) Has(key string) bool {
	_, ok := o.fields[key]
	return ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

func (o *Object) Len() int {
	return len(o.keys)
}

func (*Object) Kind() Kind { return KindObject }
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := o.fields[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
func (*Object) isValue() {}

// Equal reports whether a and b are deeply equal. Object key order is not
// significant; array order is.
func Equal(a, b Value) bool {
	a, b = orNull(a), orNull(b)
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Null:
		return true
	case Bool:
		return av == b.(Bool)
	case Number:
		return av.Float == b.(Number).Float
	case String:
		return av == b.(String)
	case Array:
		bv := b.(Array)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Object:
		bv := b.(*Object)
		if av.Len() != bv.Len() {
			return false
		}
		for _, k := range av.keys {
			other, ok := bv.fields[k]
			if !ok || !Equal(av.fields[k], other) {
				return false
			}
		}
		return true
	}
	return false
}

// Format renders v as compact JSON.
func Format(v Value) string {
	if v == nil {
		return ""
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return string(b)
}

func orNull(v Value) Value {
	if v == nil {
		return Null{}
	}
	return v
}
