package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// AttrClass is the value class of an attribute.
type AttrClass uint8

const (
	ClassString AttrClass = 1
	ClassInt    AttrClass = 2
	ClassFloat  AttrClass = 3
)

// Well-known attribute names.
const (
	AttrFillValue  = "_FillValue"
	AttrValidRange = "valid_range"
)

// Attribute is a named, typed value attached to a file or dataset.
type Attribute struct {
	Name   string
	Class  AttrClass
	Str    string
	Ints   []int64
	Floats []float64
}

// StringAttr returns a string attribute.
func StringAttr(name, value string) Attribute {
	return Attribute{Name: name, Class: ClassString, Str: value}
}

// IntAttr returns an integer attribute holding one or more values.
func IntAttr(name string, values ...int64) Attribute {
	return Attribute{Name: name, Class: ClassInt, Ints: values}
}

// FloatAttr returns a floating-point attribute holding one or more values.
func FloatAttr(name string, values ...float64) Attribute {
	return Attribute{Name: name, Class: ClassFloat, Floats: values}
}

// Len returns the number of values held by a numeric attribute, or 1 for strings.
func (a Attribute) Len() int {
	switch a.Class {
	case ClassInt:
		return len(a.Ints)
	case ClassFloat:
		return len(a.Floats)
	default:
		return 1
	}
}

// Int returns value i of a numeric attribute as int64.
func (a Attribute) Int(i int) (int64, bool) {
	switch a.Class {
	case ClassInt:
		if i < len(a.Ints) {
			return a.Ints[i], true
		}
	case ClassFloat:
		if i < len(a.Floats) {
			return int64(a.Floats[i]), true
		}
	case ClassString:
		if i == 0 {
			v, err := strconv.ParseInt(strings.TrimSpace(a.Str), 10, 64)
			return v, err == nil
		}
	}
	return 0, false
}

// String renders the attribute value the way it is reported to callers that
// only understand text: numeric values are comma separated.
func (a Attribute) String() string {
	switch a.Class {
	case ClassString:
		return a.Str
	case ClassInt:
		parts := make([]string, len(a.Ints))
		for i, v := range a.Ints {
			parts[i] = strconv.FormatInt(v, 10)
		}
		return strings.Join(parts, ",")
	case ClassFloat:
		parts := make([]string, len(a.Floats))
		for i, v := range a.Floats {
			parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("<class %d>", a.Class)
	}
}

// Attrs is an ordered attribute list with unique names.
type Attrs []Attribute

// Get returns the attribute with the given name.
func (as Attrs) Get(name string) (Attribute, bool) {
	for _, a := range as {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Set replaces the attribute with the same name or appends a new one.
func (as *Attrs) Set(a Attribute) {
	for i := range *as {
		if (*as)[i].Name == a.Name {
			(*as)[i] = a
			return
		}
	}
	*as = append(*as, a)
}

// Names returns the attribute names in declaration order.
func (as Attrs) Names() []string {
	names := make([]string, len(as))
	for i, a := range as {
		names[i] = a.Name
	}
	return names
}
