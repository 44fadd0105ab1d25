package domain

import (
	"slices"
	"strings"
	"unicode"
)

const genericLabel = "a geometric shape"

var DefaultPalette = []string{
	"red", "green", "blue", "yellow", "orange", "purple",
	"brown", "black", "white", "gray", "pink", "cyan",
	"magenta", "lime", "navy", "teal", "maroon", "olive",
}

var shapeKeywords = map[string]string{
	"circle":    "circle",
	"rectangle": "rectangle",
	"square":    "rectangle",
	"line":      "line",
	"triangle":  "triangle",
	"ellipse":   "ellipse",
	"oval":      "ellipse",
}

// SyntheticLabel builds a short intent for an exploratory example from the
// first palette color and the first shape keyword in the description.
// Without a color the label falls back to a generic one.
func SyntheticLabel(description string, palette []string) string {
	if len(palette) == 0 {
		palette = DefaultPalette
	}

	var color, shape string
	for _, word := range words(description) {
		if color == "" && slices.Contains(palette, word) {
			color = word
		}
		if shape == "" {
			shape = shapeKeyword(word)
		}
		if color != "" && shape != "" {
			break
		}
	}

	if color == "" {
		return genericLabel
	}
	if shape == "" {
		shape = "shape"
	}

	return "a " + color + " " + shape
}

func shapeKeyword(word string) string {
	if shape, ok := shapeKeywords[word]; ok {
		return shape
	}
	if singular, ok := strings.CutSuffix(word, "s"); ok {
		return shapeKeywords[singular]
	}

	return ""
}

func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
