// Package condition decides the outcome of Logic nodes from sampled screen content.
//
// Evaluation never fails: anything that cannot be compared evaluates to false.
package condition

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/aretw0/autopilot/pkg/domain"
)

// Text compares recognized text against the reference.
func Text(op domain.Operator, reference, sampled string) bool {
	switch op {
	case domain.OpContains, domain.OpLike:
		return strings.Contains(strings.ToLower(sampled), strings.ToLower(reference))
	case domain.OpEqual:
		return sampled == reference
	case domain.OpNotEqual:
		return sampled != reference
	case domain.OpLess, domain.OpLessEqual, domain.OpGreater, domain.OpGreaterEqual:
		s, err := parseNumber(sampled)
		if err != nil {
			return false
		}
		r, err := parseNumber(reference)
		if err != nil {
			return false
		}
		return compare(op, s, r)
	}
	return false
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func compare(op domain.Operator, a, b float64) bool {
	switch op {
	case domain.OpLess:
		return a < b
	case domain.OpLessEqual:
		return a <= b
	case domain.OpGreater:
		return a > b
	case domain.OpGreaterEqual:
		return a >= b
	}
	return false
}

// Color compares a sampled pixel against a "#RRGGBB" reference (the "#" is optional).
// Only = and != are meaningful; other operators and malformed references yield false.
func Color(op domain.Operator, reference string, sampled color.RGBA) bool {
	ref, ok := ParseHex(reference)
	if !ok {
		return false
	}
	same := ref.R == sampled.R && ref.G == sampled.G && ref.B == sampled.B
	switch op {
	case domain.OpEqual:
		return same
	case domain.OpNotEqual:
		return !same
	}
	return false
}

// ParseHex parses "#RRGGBB" or "RRGGBB" into an opaque color.
func ParseHex(s string) (color.RGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}

// Hex formats a color as "#RRGGBB".
func Hex(c color.RGBA) string {
	const digits = "0123456789ABCDEF"
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{c.R, c.G, c.B} {
		b[1+2*i] = digits[v>>4]
		b[2+2*i] = digits[v&0x0f]
	}
	return string(b)
}

// Sample is a screen reading taken for a Logic node. Only the field matching the node's
// logic action is meaningful.
type Sample struct {
	Text  string
	Color color.RGBA
}

// Evaluate applies the logic spec to a sample.
func Evaluate(spec *domain.LogicSpec, s Sample) bool {
	if spec == nil {
		return false
	}
	switch spec.Action {
	case domain.TextLogic:
		return Text(spec.Operator, spec.Reference, s.Text)
	case domain.ColorLogic:
		return Color(spec.Operator, spec.Reference, s.Color)
	}
	return false
}
