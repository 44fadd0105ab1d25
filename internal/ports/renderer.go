package ports

import (
	"image"

	"github.com/bnema/drawloop/internal/domain"
)

// Renderer turns a program into a raster image. Implementations must not fail
// on malformed commands.
type Renderer interface {
	Render(program domain.Program) image.Image
}

// Synthesizer produces random programs for exploration.
type Synthesizer interface {
	Synthesize(minCommands, maxCommands int) domain.Program
}
