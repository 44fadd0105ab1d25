package domain

import (
	"errors"
	"fmt"
)

type ParamKind string

const (
	ParamFixed   ParamKind = "fixed"
	ParamPalette ParamKind = "palette"
	ParamRange   ParamKind = "range"
)

type ParamSpec struct {
	Name  string
	Kind  ParamKind
	Fixed string
	Min   int
	Max   int
}

type Template struct {
	Command string
	Weight  float64
	Params  []ParamSpec
}

type Catalog []Template

func (c Catalog) Validate() error {
	if len(c) == 0 {
		return errors.New("template catalog is empty")
	}

	total := 0.0
	for _, tmpl := range c {
		if !IsKnownCommand(tmpl.Command) {
			return fmt.Errorf("template command %q is not in the vocabulary", tmpl.Command)
		}
		if tmpl.Weight < 0 {
			return fmt.Errorf("template %q has negative weight", tmpl.Command)
		}
		total += tmpl.Weight
		for _, param := range tmpl.Params {
			switch param.Kind {
			case ParamFixed:
				if raw := RawValue(param.Fixed).Raw(); raw == "" || !IsSingleArg(raw) {
					return fmt.Errorf("template %q param %q has fixed value %q that does not survive as one parameter", tmpl.Command, param.Name, param.Fixed)
				}
			case ParamPalette:
			case ParamRange:
				if param.Min > param.Max {
					return fmt.Errorf("template %q param %q has min %d > max %d", tmpl.Command, param.Name, param.Min, param.Max)
				}
			default:
				return fmt.Errorf("template %q param %q has unknown kind %q", tmpl.Command, param.Name, param.Kind)
			}
		}
	}
	if total <= 0 {
		return errors.New("template catalog weights sum to zero")
	}

	return nil
}

const referenceCanvas = 512

// DefaultCatalog returns the weighted template set, with coordinate ranges
// sized for a width x height canvas.
func DefaultCatalog(width, height int) Catalog {
	xs := func(lo, hi int) ParamSpec { return rangeSpec("", scale(lo, width), scale(hi, width)) }
	ys := func(lo, hi int) ParamSpec { return rangeSpec("", scale(lo, height), scale(hi, height)) }
	named := func(name string, spec ParamSpec) ParamSpec {
		spec.Name = name
		return spec
	}
	color := ParamSpec{Name: "color", Kind: ParamPalette}

	circle := []ParamSpec{named("x", xs(20, 492)), named("y", ys(20, 492)), named("radius", xs(5, 150)), color}
	rect := []ParamSpec{named("x", xs(20, 450)), named("y", ys(20, 450)), named("w", xs(10, 250)), named("h", ys(10, 250)), color}
	ellipse := []ParamSpec{named("x", xs(20, 450)), named("y", ys(20, 450)), named("w", xs(10, 200)), named("h", ys(10, 200)), color}
	triangle := []ParamSpec{
		named("x1", xs(20, 492)), named("y1", ys(20, 492)),
		named("x2", xs(20, 492)), named("y2", ys(20, 492)),
		named("x3", xs(20, 492)), named("y3", ys(20, 492)),
		color,
	}

	return Catalog{
		{Command: CommandFillCircle, Weight: 0.15, Params: circle},
		{Command: CommandDrawCircle, Weight: 0.12, Params: circle},
		{Command: CommandFillRect, Weight: 0.15, Params: rect},
		{Command: CommandDrawRect, Weight: 0.12, Params: rect},
		{Command: CommandFillEllipse, Weight: 0.08, Params: ellipse},
		{Command: CommandDrawEllipse, Weight: 0.08, Params: ellipse},
		{Command: CommandDrawLine, Weight: 0.12, Params: []ParamSpec{
			named("x1", xs(20, 492)), named("y1", ys(20, 492)),
			named("x2", xs(20, 492)), named("y2", ys(20, 492)),
			color,
			rangeSpec("width", 1, 15),
		}},
		{Command: CommandFillTriangle, Weight: 0.05, Params: triangle},
		{Command: CommandDrawTriangle, Weight: 0.05, Params: triangle},
		{Command: CommandSetBackground, Weight: 0.08, Params: []ParamSpec{color}},
	}
}

func rangeSpec(name string, lo, hi int) ParamSpec {
	if hi < lo {
		hi = lo
	}

	return ParamSpec{Name: name, Kind: ParamRange, Min: lo, Max: hi}
}

func scale(v, size int) int {
	if size <= 0 || size == referenceCanvas {
		return v
	}

	return v * size / referenceCanvas
}
