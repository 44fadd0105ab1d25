package dsl

import (
	"math/rand/v2"
	"testing"

	"github.com/bnema/drawloop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paramText(t *testing.T, cmd domain.Command, name string) string {
	t.Helper()

	v, ok := cmd.Param(name)
	require.True(t, ok, "param %s", name)
	return v.Text()
}

func TestParseProgram(t *testing.T) {
	program := Parse(`
# a comment
set_background(color="white")

draw_circle(x=60, y=60, radius=40, color="blue")
fill_rect(x=1, y=2, w=3, h=4, color=(255, 0, 0))
`)

	require.Equal(t, 3, program.Len())
	assert.Equal(t, domain.CommandSetBackground, program.Commands[0].Name)
	assert.Equal(t, "white", paramText(t, program.Commands[0], "color"))

	radius, ok := program.Commands[1].Param("radius")
	require.True(t, ok)
	n, ok := radius.Int()
	require.True(t, ok)
	assert.Equal(t, 40, n)

	color, ok := program.Commands[2].Param("color")
	require.True(t, ok)
	tuple, ok := color.Tuple()
	require.True(t, ok)
	assert.Equal(t, []int{255, 0, 0}, tuple)
}

func TestParseNeverFails(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantNames []string
	}{
		{name: "empty", input: "", wantNames: nil},
		{name: "only comments", input: "# one\n   # two", wantNames: nil},
		{name: "bare command", input: "clear", wantNames: []string{"clear"}},
		{name: "missing close paren", input: "draw_line(x1=1, y1=2", wantNames: []string{"draw_line"}},
		{name: "nameless call", input: "(x=1)", wantNames: nil},
		{name: "unknown command kept", input: "spin_thing(x=1)\ndraw_rect(x=10)", wantNames: []string{"spin_thing", "draw_rect"}},
		{name: "garbage", input: "))((,,==\"", wantNames: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program := Parse(tt.input)

			var names []string
			for _, cmd := range program.Commands {
				names = append(names, cmd.Name)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestParseLineIgnoresUnnamedArguments(t *testing.T) {
	cmd, ok := ParseLine(`draw_rect(10, x=5, =3, color="red, green")`)
	require.True(t, ok)

	require.Len(t, cmd.Params, 2)
	assert.Equal(t, "x", cmd.Params[0].Name)
	assert.Equal(t, "red, green", paramText(t, cmd, "color"))
}

func TestProgramStringParsesBack(t *testing.T) {
	synth := NewSynthesizer(rand.New(rand.NewPCG(7, 11)), DefaultSynthesizerOptions(512, 512))

	for range 50 {
		program := synth.Synthesize(4, 8)
		reparsed := Parse(program.String())
		assert.Equal(t, program.String(), reparsed.String())
		assert.Equal(t, program.Len(), reparsed.Len())
	}
}

func TestSynthesizerIsDeterministicForSeed(t *testing.T) {
	a := NewSynthesizer(rand.New(rand.NewPCG(42, 1)), DefaultSynthesizerOptions(512, 512))
	b := NewSynthesizer(rand.New(rand.NewPCG(42, 1)), DefaultSynthesizerOptions(512, 512))

	for range 10 {
		assert.Equal(t, a.Synthesize(4, 8).String(), b.Synthesize(4, 8).String())
	}
}

func TestSynthesizerProducesKnownCommandsWithinBounds(t *testing.T) {
	synth := NewSynthesizer(rand.New(rand.NewPCG(3, 5)), DefaultSynthesizerOptions(512, 512))

	for range 200 {
		program := synth.Synthesize(4, 8)

		require.NotZero(t, program.Len())
		assert.Equal(t, domain.CommandSetBackground, program.Commands[0].Name)
		assert.Empty(t, program.UnknownCommands())
		// Background plus at most N-1 template draws, a cluster of up to 4 and up to 3 details.
		assert.LessOrEqual(t, program.Len(), 8+4+3)

		for _, cmd := range program.Commands[1:] {
			assert.NotEqual(t, domain.CommandSetBackground, cmd.Name)
			for _, param := range cmd.Params {
				if param.Name == "color" {
					assert.Contains(t, domain.DefaultPalette, param.Value.Text())
				}
			}
		}
	}
}

func TestSynthesizerWithoutExtrasHonoursCommandRange(t *testing.T) {
	opts := DefaultSynthesizerOptions(512, 512)
	opts.ClusterProbability = 0
	opts.DetailProbability = 0
	synth := NewSynthesizer(rand.New(rand.NewPCG(9, 9)), opts)

	for range 100 {
		n := synth.Synthesize(4, 8).Len()
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 8)
	}

	assert.Equal(t, 1, synth.Synthesize(0, -3).Len())
}

func TestSynthesizerUsesCustomCatalog(t *testing.T) {
	opts := SynthesizerOptions{
		Catalog: domain.Catalog{{
			Command: domain.CommandDrawLine,
			Weight:  1,
			Params: []domain.ParamSpec{
				{Name: "x1", Kind: domain.ParamFixed, Fixed: "5"},
				{Name: "color", Kind: domain.ParamPalette},
			},
		}},
		Palette: []string{"navy"},
	}
	synth := NewSynthesizer(rand.New(rand.NewPCG(1, 2)), opts)

	program := synth.Synthesize(3, 3)

	require.Equal(t, 3, program.Len())
	assert.Equal(t, `set_background(color="navy")`, program.Commands[0].String())
	for _, cmd := range program.Commands[1:] {
		assert.Equal(t, `draw_line(x1=5, color="navy")`, cmd.String())
	}
}

func TestFixedValuesRoundTripThroughParseLine(t *testing.T) {
	tests := []struct {
		name  string
		fixed string
		valid bool
	}{
		{name: "number", fixed: "30", valid: true},
		{name: "quoted with comma", fixed: `"red, dark"`, valid: true},
		{name: "tuple", fixed: "(0, 128, 255)", valid: true},
		{name: "escaped quote", fixed: `"say \"hi\""`, valid: true},
		{name: "top level comma", fixed: "1, y=2", valid: false},
		{name: "stray close paren", fixed: "4)", valid: false},
		{name: "open tuple", fixed: "(1, 2", valid: false},
		{name: "unbalanced quote", fixed: `"red`, valid: false},
		{name: "newline", fixed: "1\n2", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := domain.Catalog{{
				Command: domain.CommandDrawLine,
				Weight:  1,
				Params:  []domain.ParamSpec{{Name: "width", Kind: domain.ParamFixed, Fixed: tt.fixed}},
			}}

			err := catalog.Validate()
			if !tt.valid {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			command, ok := ParseLine(domain.CommandDrawLine + "(width=" + tt.fixed + ", color=\"red\")")
			require.True(t, ok)
			require.Len(t, command.Params, 2)
			assert.Equal(t, "width", command.Params[0].Name)
			assert.Equal(t, tt.fixed, command.Params[0].Value.Raw())
			assert.Equal(t, `"red"`, command.Params[1].Value.Raw())
		})
	}
}
