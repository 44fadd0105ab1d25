package canvas

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/bnema/drawloop/internal/domain"
	"golang.org/x/image/colornames"
)

// ParseColor accepts CSS color names, #rgb / #rrggbb hex, and (r,g,b) tuples.
func ParseColor(value string) (color.Color, bool) {
	return parseColorValue(domain.RawValue(value))
}

func parseColorValue(v domain.Value) (color.Color, bool) {
	if parts, ok := v.Tuple(); ok {
		return tupleColor(parts)
	}

	text := strings.ToLower(strings.TrimSpace(v.Text()))
	if text == "" {
		return nil, false
	}
	if strings.HasPrefix(text, "#") {
		return hexColor(text[1:])
	}
	if named, ok := colornames.Map[text]; ok {
		return named, true
	}
	if named, ok := colornames.Map[strings.ReplaceAll(text, " ", "")]; ok {
		return named, true
	}
	if strings.HasPrefix(text, "(") {
		if parts, ok := domain.RawValue(text).Tuple(); ok {
			return tupleColor(parts)
		}
	}

	return nil, false
}

func tupleColor(parts []int) (color.Color, bool) {
	if len(parts) != 3 && len(parts) != 4 {
		return nil, false
	}

	c := color.NRGBA{R: channel(parts[0]), G: channel(parts[1]), B: channel(parts[2]), A: 255}
	if len(parts) == 4 {
		c.A = channel(parts[3])
	}

	return c, true
}

func hexColor(hex string) (color.Color, bool) {
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return nil, false
	}

	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, false
	}

	return color.NRGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 255}, true
}

func channel(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}
