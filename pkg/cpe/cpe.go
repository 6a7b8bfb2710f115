// Package cpe parses and models CPE-style platform identifiers
// (part/vendor/product/version) used to describe a host's operating
// system, hardware and installed software.
package cpe

import (
	"errors"
	"fmt"
	"strings"
)

// Part classifies what a platform identifier describes.
type Part string

const (
	PartOS          Part = "o"
	PartHardware    Part = "h"
	PartApplication Part = "a"
)

// Any is the wildcard field value: it matches anything at zero penalty.
const Any = "*"

// ErrInvalidComponent is returned when a string cannot be parsed into the
// part/vendor/product/version shape.
var ErrInvalidComponent = errors.New("invalid platform identifier")

// Identifier is an immutable parsed platform identifier.
type Identifier struct {
	Part    Part
	Vendor  string
	Product string
	Version string
}

// IsAny reports whether a field value is a wildcard.
func IsAny(field string) bool {
	return field == Any || field == ""
}

// Parse accepts both CPE URI form ("cpe:/o:acme:linux:5.1") and CPE 2.3
// formatted strings ("cpe:2.3:o:acme:linux:5.1:*:*:*:*:*:*:*").
// Absent fields and "-" normalize to the wildcard "*".
func Parse(s string) (Identifier, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Identifier{}, fmt.Errorf("%w: empty string", ErrInvalidComponent)
	}

	var fields []string
	switch {
	case strings.HasPrefix(s, "cpe:2.3:"):
		fields = strings.Split(s[len("cpe:2.3:"):], ":")
	case strings.HasPrefix(s, "cpe:/"):
		fields = strings.Split(s[len("cpe:/"):], ":")
	default:
		return Identifier{}, fmt.Errorf("%w: %q lacks a cpe prefix", ErrInvalidComponent, s)
	}

	if len(fields) == 0 || fields[0] == "" {
		return Identifier{}, fmt.Errorf("%w: %q has no part field", ErrInvalidComponent, s)
	}

	part := Part(fields[0])
	switch part {
	case PartOS, PartHardware, PartApplication:
	default:
		return Identifier{}, fmt.Errorf("%w: unknown part %q in %q", ErrInvalidComponent, fields[0], s)
	}

	id := Identifier{
		Part:    part,
		Vendor:  normalizeField(fieldAt(fields, 1)),
		Product: normalizeField(fieldAt(fields, 2)),
		Version: normalizeField(fieldAt(fields, 3)),
	}

	// A bare "cpe:/o" with nothing to compare against is not a usable identifier.
	if IsAny(id.Vendor) && IsAny(id.Product) {
		return Identifier{}, fmt.Errorf("%w: %q names neither vendor nor product", ErrInvalidComponent, s)
	}

	return id, nil
}

func fieldAt(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return Any
}

func normalizeField(f string) string {
	f = strings.TrimSpace(strings.ToLower(f))
	if f == "" || f == "-" {
		return Any
	}
	return f
}

// String renders the identifier in CPE URI form, trimming trailing wildcards.
func (id Identifier) String() string {
	parts := []string{string(id.Part), id.Vendor, id.Product, id.Version}
	end := len(parts)
	for end > 1 && parts[end-1] == Any {
		end--
	}
	return "cpe:/" + strings.Join(parts[:end], ":")
}
