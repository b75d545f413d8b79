// Package caps models the capability descriptions reported by capture
// devices: an ordered list of structures, each naming a media type and a set
// of typed fields such as width, height and framerate.
//
// The text form follows the GStreamer caps syntax, so output from the gst
// command line tools can be parsed directly.
package caps

import (
	"fmt"
	"strings"
)

// Value is a field value in a Structure. It is one of Int, IntRange, Fraction,
// FractionRange, List or String.
type Value interface {
	fmt.Stringer
	isValue()
}

// Int is a single integer value.
type Int int

// IntRange is an inclusive integer range.
type IntRange struct {
	Min, Max int
}

// Fraction is a rational value, typically a framerate.
type Fraction struct {
	Num, Den int
}

// FractionRange is an inclusive range of fractions.
type FractionRange struct {
	Min, Max Fraction
}

// List is a set of alternative values.
type List []Value

// String is a string value, e.g. a pixel format name.
type String string

func (Int) isValue()           {}
func (IntRange) isValue()      {}
func (Fraction) isValue()      {}
func (FractionRange) isValue() {}
func (List) isValue()          {}
func (String) isValue()        {}

func (v Int) String() string {
	return fmt.Sprintf("(int)%d", int(v))
}

func (v IntRange) String() string {
	return fmt.Sprintf("(int)[ %d, %d ]", v.Min, v.Max)
}

func (v Fraction) String() string {
	return fmt.Sprintf("(fraction)%d/%d", v.Num, v.Den)
}

func (v FractionRange) String() string {
	return fmt.Sprintf("(fraction)[ %d/%d, %d/%d ]", v.Min.Num, v.Min.Den, v.Max.Num, v.Max.Den)
}

func (v List) String() string {
	l := make([]string, len(v))
	for i, e := range v {
		l[i] = untyped(e)
	}
	prefix := ""
	if len(v) > 0 {
		prefix = typeName(v[0])
	}
	return prefix + "{ " + strings.Join(l, ", ") + " }"
}

func (v String) String() string {
	s := string(v)
	if strings.ContainsAny(s, " ,;=\"") || s == "" {
		s = fmt.Sprintf("%q", s)
	}
	return "(string)" + s
}

func typeName(v Value) string {
	s := v.String()
	if strings.HasPrefix(s, "(") {
		return s[:strings.Index(s, ")")+1]
	}
	return ""
}

func untyped(v Value) string {
	return strings.TrimPrefix(v.String(), typeName(v))
}

// Less reports whether f is smaller than g. Fractions with a zero denominator
// compare as zero.
func (f Fraction) Less(g Fraction) bool {
	return f.cmp(g) < 0
}

func (f Fraction) cmp(g Fraction) int {
	if f.Den == 0 || g.Den == 0 {
		a, b := 0, 0
		if f.Den != 0 {
			a = f.Num
		}
		if g.Den != 0 {
			b = g.Num
		}
		return a - b
	}
	// Denominators are positive in practice, cross multiplication keeps this exact.
	l := int64(f.Num) * int64(g.Den)
	r := int64(g.Num) * int64(f.Den)
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	}
	return 0
}

// Field is a single named value in a Structure.
type Field struct {
	Name  string
	Value Value
}

// Structure is one media type with its fields, in the order they were given.
type Structure struct {
	Name   string // E.g. "video/x-raw-yuv".
	Fields []Field
}

// Get returns the value of the named field.
func (s Structure) Get(name string) (Value, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// With returns a copy of s with the named field set to v, replacing an
// existing field of that name or appending a new one.
func (s Structure) With(name string, v Value) Structure {
	fields := make([]Field, 0, len(s.Fields)+1)
	found := false
	for _, f := range s.Fields {
		if f.Name == name {
			f.Value = v
			found = true
		}
		fields = append(fields, f)
	}
	if !found {
		fields = append(fields, Field{name, v})
	}
	return Structure{Name: s.Name, Fields: fields}
}

func (s Structure) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	for _, f := range s.Fields {
		fmt.Fprintf(&b, ", %s=%s", f.Name, f.Value)
	}
	return b.String()
}

// Caps is an ordered list of structures, as reported by a device.
type Caps []Structure

// IsEmpty returns whether caps contains no structures.
func (c Caps) IsEmpty() bool {
	return len(c) == 0
}

func (c Caps) String() string {
	if len(c) == 0 {
		return "EMPTY"
	}
	l := make([]string, len(c))
	for i, s := range c {
		l[i] = s.String()
	}
	return strings.Join(l, "; ")
}
