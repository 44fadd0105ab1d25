package domain

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueConversions(t *testing.T) {
	tests := []struct {
		name      string
		value     Value
		wantInt   int
		wantIntOK bool
		wantText  string
	}{
		{name: "bare int", value: RawValue(" 42 "), wantInt: 42, wantIntOK: true, wantText: "42"},
		{name: "quoted int", value: RawValue(`"17"`), wantInt: 17, wantIntOK: true, wantText: "17"},
		{name: "decimal truncates", value: RawValue("12.9"), wantInt: 12, wantIntOK: true, wantText: "12.9"},
		{name: "single quoted text", value: RawValue("'red'"), wantText: "red"},
		{name: "string constructor", value: StringValue("dark blue"), wantText: "dark blue"},
		{name: "garbage", value: RawValue("abc"), wantText: "abc"},
		{name: "empty", value: RawValue(""), wantText: ""},
		{name: "nan", value: RawValue("NaN"), wantText: "NaN"},
		{name: "infinity", value: RawValue("-Inf"), wantText: "-Inf"},
		{name: "huge float", value: RawValue("1e300"), wantText: "1e300"},
		{name: "huge int", value: RawValue("1000000000000000000"), wantText: "1000000000000000000"},
		{name: "int32 max", value: RawValue("2147483647"), wantInt: 2147483647, wantIntOK: true, wantText: "2147483647"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := tt.value.Int()
			assert.Equal(t, tt.wantIntOK, ok)
			assert.Equal(t, tt.wantInt, n)
			assert.Equal(t, tt.wantText, tt.value.Text())
		})
	}
}

func TestValueTuple(t *testing.T) {
	parts, ok := RawValue("(255, 0, 128)").Tuple()
	require.True(t, ok)
	assert.Equal(t, []int{255, 0, 128}, parts)

	parts, ok = TupleValue(1, 2, 3).Tuple()
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3}, parts)

	_, ok = RawValue("(1, x)").Tuple()
	assert.False(t, ok)
	_, ok = RawValue("()").Tuple()
	assert.False(t, ok)
	_, ok = RawValue("12").Tuple()
	assert.False(t, ok)
}

func TestSplitArgsRespectsQuotesAndParens(t *testing.T) {
	args := SplitArgs(`a=1, b="x,y", c=(1, 2, 3), d='it\'s, ok'`)

	require.Len(t, args, 4)
	assert.Equal(t, ` c=(1, 2, 3)`, args[2])
}

func TestIsSingleArg(t *testing.T) {
	assert.True(t, IsSingleArg(`"a, b"`))
	assert.True(t, IsSingleArg("(1, 2)"))
	assert.False(t, IsSingleArg("1, 2"))
	assert.False(t, IsSingleArg("(1"))
	assert.False(t, IsSingleArg("1)"))
	assert.False(t, IsSingleArg(`'open`))
}

func TestCommandParamUsesLastBinding(t *testing.T) {
	cmd := NewCommand(CommandDrawCircle,
		Param{Name: "x", Value: IntValue(1)},
		Param{Name: "x", Value: IntValue(2)},
	)

	v, ok := cmd.Param("x")
	require.True(t, ok)
	n, _ := v.Int()
	assert.Equal(t, 2, n)

	_, ok = cmd.Param("radius")
	assert.False(t, ok)
}

func TestProgramStringAndUnknownCommands(t *testing.T) {
	program := Program{Commands: []Command{
		NewCommand("spin_thing", Param{Name: "x", Value: IntValue(1)}),
		NewCommand(CommandFillRect, Param{Name: "color", Value: StringValue("red")}),
		NewCommand("wobble"),
	}}

	assert.Equal(t, "spin_thing(x=1)\nfill_rect(color=\"red\")\nwobble()", program.String())
	assert.Equal(t, []string{"spin_thing", "wobble"}, program.UnknownCommands())
	assert.Equal(t, 3, program.Len())
}

func TestLookupCommandFamilies(t *testing.T) {
	spec, ok := LookupCommand(CommandFillEllipse)
	require.True(t, ok)
	assert.Equal(t, FamilyEllipse, spec.Family)
	assert.True(t, spec.Filled)

	spec, ok = LookupCommand(CommandDrawLine)
	require.True(t, ok)
	assert.False(t, spec.Filled)
	assert.Contains(t, spec.Params, "width")

	assert.False(t, IsKnownCommand("draw_star"))
}

func TestAcceptBoundaryAndNaN(t *testing.T) {
	assert.True(t, Accept(0.8, 0.8))
	assert.False(t, Accept(0.7999, 0.8))
	assert.False(t, Accept(math.NaN(), 0))
	assert.False(t, Accept(1, math.NaN()))

	d := Decide(SignalSimilarity, 0.82, 0.8)
	assert.True(t, d.Accepted())
	assert.Equal(t, VerdictAccepted, d.Verdict)
}

func TestExampleRecordValidate(t *testing.T) {
	assert.NoError(t, ExampleRecord{Intent: "a", DSL: "set_background()"}.Validate())
	assert.Error(t, ExampleRecord{DSL: "x()"}.Validate())
	assert.Error(t, ExampleRecord{Intent: "a", DSL: "  "}.Validate())
	assert.Error(t, ExampleRecord{Intent: "a", DSL: "x()", Provenance: &Provenance{Source: "guessed"}}.Validate())
}

func TestValidateBucket(t *testing.T) {
	for _, name := range []string{"examples", "red_shapes", "v2-curated"} {
		assert.NoError(t, ValidateBucket(name), name)
	}
	for _, name := range []string{"", "Examples", "../x", "a/b", "-lead", "with space"} {
		assert.ErrorIs(t, ValidateBucket(name), ErrInvalidBucket, name)
	}
}

func TestAppendBoundedKeepsNewest(t *testing.T) {
	var records []ExampleRecord
	for _, intent := range []string{"A", "B", "C"} {
		records = AppendBounded(records, ExampleRecord{Intent: intent}, 2)
	}

	require.Len(t, records, 2)
	assert.Equal(t, "B", records[0].Intent)
	assert.Equal(t, "C", records[1].Intent)

	unbounded := AppendBounded(records, ExampleRecord{Intent: "D"}, 0)
	assert.Len(t, unbounded, 3)
	assert.Len(t, records, 2)
}

func TestTopKRanksSharedKeywords(t *testing.T) {
	records := []ExampleRecord{
		{Intent: "a green tree"},
		{Intent: "a red cat sitting on a blue chair"},
	}

	top := TopK(records, "a red cat on a chair", 2)

	require.Len(t, top, 2)
	assert.Equal(t, "a red cat sitting on a blue chair", top[0].Intent)
	assert.Equal(t, "a green tree", top[1].Intent)
}

func TestTopKExactMatchRanksFirst(t *testing.T) {
	records := []ExampleRecord{
		{Intent: "big red circle on blue square"},
		{Intent: "Red Circle"},
		{Intent: "red circle with red border"},
	}

	top := TopK(records, "red circle", 1)

	require.Len(t, top, 1)
	assert.Equal(t, "Red Circle", top[0].Intent)
	assert.Equal(t, 2+ExactMatchBonus, KeywordScore("red circle", "Red Circle"))
}

func TestTopKTiesKeepInsertionOrder(t *testing.T) {
	var records []ExampleRecord
	for i := range 5 {
		records = append(records, ExampleRecord{Intent: fmt.Sprintf("shape %d", i)})
	}

	top := TopK(records, "shape", 3)

	require.Len(t, top, 3)
	assert.Equal(t, "shape 0", top[0].Intent)
	assert.Equal(t, "shape 1", top[1].Intent)
	assert.Equal(t, "shape 2", top[2].Intent)
	assert.Nil(t, TopK(records, "shape", 0))
	assert.Nil(t, TopK(nil, "shape", 3))
}

func TestFormatFewShot(t *testing.T) {
	got := FormatFewShot([]ExampleRecord{
		{Intent: "a red circle", DSL: "fill_circle(color=\"red\")\n"},
	})

	assert.Equal(t, "Examples:\nExample 1:\nInput: \"a red circle\"\nOutput:\nfill_circle(color=\"red\")\n", got)
	assert.Empty(t, FormatFewShot(nil))
}

func TestComputeStats(t *testing.T) {
	records := []ExampleRecord{
		{Intent: "a", Provenance: &Provenance{Source: SourceExploratory}},
		{Intent: "b", Provenance: &Provenance{Source: SourceSupervised}},
		{Intent: "c"},
		{Intent: "d", Provenance: &Provenance{Source: SourceExploratory}},
	}

	stats := ComputeStats("examples", records)

	assert.Equal(t, 4, stats.TotalExamples)
	assert.Equal(t, 2, stats.ExploratoryCount)
	assert.Equal(t, 2, stats.SupervisedCount)
	assert.InDelta(t, 0.5, stats.ExploratoryRatio, 1e-9)
	assert.Zero(t, ComputeStats("empty", nil).ExploratoryRatio)
}

func TestSyntheticLabel(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{name: "color and shape", description: "A large Red circle in the middle", want: "a red circle"},
		{name: "first color wins", description: "blue and green squares", want: "a blue rectangle"},
		{name: "plural shape", description: "two orange triangles", want: "a orange triangle"},
		{name: "oval", description: "a purple oval.", want: "a purple ellipse"},
		{name: "color only", description: "mostly yellow noise", want: "a yellow shape"},
		{name: "no color", description: "a circle on a canvas", want: "a geometric shape"},
		{name: "punctuation", description: "teal-colored lines, crossing", want: "a teal line"},
		{name: "empty", description: "", want: "a geometric shape"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SyntheticLabel(tt.description, nil))
		})
	}
}

func TestSyntheticLabelUsesGivenPalette(t *testing.T) {
	assert.Equal(t, "a crimson circle", SyntheticLabel("a crimson circle", []string{"crimson"}))
	assert.Equal(t, "a geometric shape", SyntheticLabel("a red circle", []string{"crimson"}))
}

func TestDefaultCatalogIsValidAndScaled(t *testing.T) {
	catalog := DefaultCatalog(512, 512)
	require.NoError(t, catalog.Validate())
	assert.Len(t, catalog, 10)

	small := DefaultCatalog(256, 128)
	require.NoError(t, small.Validate())
	for _, tmpl := range small {
		for _, param := range tmpl.Params {
			if param.Kind != ParamRange || param.Name == "width" {
				continue
			}
			assert.LessOrEqual(t, param.Max, 256, "%s.%s", tmpl.Command, param.Name)
		}
	}
}

func TestCatalogValidateRejectsBadTemplates(t *testing.T) {
	tests := []struct {
		name    string
		catalog Catalog
	}{
		{name: "empty", catalog: nil},
		{name: "unknown command", catalog: Catalog{{Command: "draw_star", Weight: 1}}},
		{name: "negative weight", catalog: Catalog{{Command: CommandFillRect, Weight: -1}}},
		{name: "zero total", catalog: Catalog{{Command: CommandFillRect}}},
		{name: "inverted range", catalog: Catalog{{Command: CommandFillRect, Weight: 1, Params: []ParamSpec{{Name: "x", Kind: ParamRange, Min: 5, Max: 1}}}}},
		{name: "empty fixed value", catalog: Catalog{{Command: CommandFillRect, Weight: 1, Params: []ParamSpec{{Name: "x", Kind: ParamFixed}}}}},
		{name: "fixed value splits", catalog: Catalog{{Command: CommandFillRect, Weight: 1, Params: []ParamSpec{{Name: "x", Kind: ParamFixed, Fixed: "1, y=2"}}}}},
		{name: "unknown kind", catalog: Catalog{{Command: CommandFillRect, Weight: 1, Params: []ParamSpec{{Name: "x", Kind: "dice"}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.catalog.Validate())
		})
	}
}

func TestRuleValidate(t *testing.T) {
	assert.NoError(t, Rule{Name: "reds", Description: "anything red"}.Validate())
	assert.ErrorIs(t, Rule{Name: "Reds", Description: "anything red"}.Validate(), ErrInvalidBucket)
	assert.Error(t, Rule{Name: "reds", Description: " "}.Validate())
}

func TestRunSummaryDuration(t *testing.T) {
	start := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, 90*time.Second, RunSummary{StartedAt: start, FinishedAt: start.Add(90 * time.Second)}.Duration())
	assert.Zero(t, RunSummary{FinishedAt: start}.Duration())
	assert.Zero(t, RunSummary{StartedAt: start, FinishedAt: start.Add(-time.Second)}.Duration())
}
