package vm

import "strconv"

// ValueKind tags the payload of a RuntimeValue.
type ValueKind uint8

const (
	KindInteger ValueKind = iota
	KindString
)

// RuntimeValue holds either an integer or a string. Booleans are
// integers 0 and 1.
type RuntimeValue struct {
	kind    ValueKind
	integer int32
	str     string
}

// Integer returns an integer value.
func Integer(v int32) RuntimeValue {
	return RuntimeValue{kind: KindInteger, integer: v}
}

// String returns a string value.
func String(s string) RuntimeValue {
	return RuntimeValue{kind: KindString, str: s}
}

func (v RuntimeValue) Kind() ValueKind { return v.kind }
func (v RuntimeValue) IsInteger() bool { return v.kind == KindInteger }

// Int returns the integer payload. It is 0 for strings.
func (v RuntimeValue) Int() int32 { return v.integer }

// Str returns the string payload. It is "" for integers.
func (v RuntimeValue) Str() string { return v.str }

func (v RuntimeValue) String() string {
	if v.kind == KindString {
		return v.str
	}
	return strconv.Itoa(int(v.integer))
}
