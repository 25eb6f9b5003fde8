package hud

import (
	"fmt"
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nfnt/resize"
)

const upperHalf = "▀"

// Blocks draws img as cols x rows terminal cells. Each cell shows two
// vertically stacked pixels using the upper half block, foreground for the
// top pixel and background for the bottom one.
func Blocks(img image.Image, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}

	scaled := resize.Resize(uint(cols), uint(rows*2), img, resize.NearestNeighbor)
	b := scaled.Bounds()

	var sb strings.Builder
	for y := 0; y < rows; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < cols; x++ {
			top := hexColor(scaled.At(b.Min.X+x, b.Min.Y+2*y).RGBA())
			bottom := hexColor(scaled.At(b.Min.X+x, b.Min.Y+2*y+1).RGBA())
			sb.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(top)).
				Background(lipgloss.Color(bottom)).
				Render(upperHalf))
		}
	}
	return sb.String()
}

func hexColor(r, g, b, _ uint32) string {
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
