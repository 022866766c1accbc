package condition_test

import (
	"image/color"
	"testing"

	"github.com/aretw0/autopilot/internal/condition"
	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name      string
		op        domain.Operator
		reference string
		sampled   string
		want      bool
	}{
		{"contains lower", domain.OpContains, "OK", "all ok now", true},
		{"contains upper", domain.OpContains, "OK", "ALL OK NOW", true},
		{"contains miss", domain.OpContains, "OK", "no", false},
		{"like is substring", domain.OpLike, "ok", "Looks OK", true},
		{"like is not a pattern", domain.OpLike, "o%k", "ok", false},
		{"equal exact", domain.OpEqual, "Done", "Done", true},
		{"equal is case sensitive", domain.OpEqual, "Done", "done", false},
		{"not equal", domain.OpNotEqual, "Done", "done", true},
		{"greater below", domain.OpGreater, "10", "9.5", false},
		{"greater above", domain.OpGreater, "10", "10.1", true},
		{"greater not a number", domain.OpGreater, "10", "abc", false},
		{"greater bad reference", domain.OpGreater, "ten", "11", false},
		{"less with spaces", domain.OpLess, " 3 ", " 2.5\n", true},
		{"less equal boundary", domain.OpLessEqual, "3", "3", true},
		{"greater equal boundary", domain.OpGreaterEqual, "3", "3.0", true},
		{"empty sample compares false", domain.OpLess, "3", "", false},
		{"unknown operator", domain.Operator("~"), "a", "a", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, condition.Text(tt.op, tt.reference, tt.sampled))
		})
	}
}

func TestColor(t *testing.T) {
	green := color.RGBA{G: 255, A: 255}
	almost := color.RGBA{G: 254, A: 255}

	assert.True(t, condition.Color(domain.OpEqual, "#00FF00", green))
	assert.False(t, condition.Color(domain.OpEqual, "#00FF00", almost))
	assert.True(t, condition.Color(domain.OpEqual, "00ff00", green), "hash is optional")
	assert.True(t, condition.Color(domain.OpNotEqual, "#00FF00", almost))
	assert.False(t, condition.Color(domain.OpGreater, "#00FF00", green), "ordering is meaningless for colors")
	assert.False(t, condition.Color(domain.OpEqual, "green", green))
	assert.False(t, condition.Color(domain.OpNotEqual, "#00FF0", almost), "malformed references never match")
}

func TestHex(t *testing.T) {
	c, ok := condition.ParseHex("#1a2B3c")
	assert.True(t, ok)
	assert.Equal(t, color.RGBA{R: 0x1a, G: 0x2b, B: 0x3c, A: 0xff}, c)
	assert.Equal(t, "#1A2B3C", condition.Hex(c))

	_, ok = condition.ParseHex("#GGGGGG")
	assert.False(t, ok)
}

func TestEvaluate(t *testing.T) {
	text := &domain.LogicSpec{Action: domain.TextLogic, Operator: domain.OpContains, Reference: "ready"}
	assert.True(t, condition.Evaluate(text, condition.Sample{Text: "Server READY"}))

	col := &domain.LogicSpec{Action: domain.ColorLogic, Operator: domain.OpEqual, Reference: "#FF0000"}
	assert.True(t, condition.Evaluate(col, condition.Sample{Color: color.RGBA{R: 255, A: 255}}))
	assert.False(t, condition.Evaluate(col, condition.Sample{Text: "#FF0000"}))

	assert.False(t, condition.Evaluate(nil, condition.Sample{}))
	assert.False(t, condition.Evaluate(&domain.LogicSpec{Action: "shape_logic"}, condition.Sample{}))
}
