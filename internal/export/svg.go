// Package export renders canvases and flight traces as SVG documents.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/launchsim/internal/sequence"
	"github.com/san-kum/launchsim/internal/viz"
)

const background = "#0a0a0a"

type Point struct{ X, Y float64 }

// CanvasSVG draws each lit braille dot as a circle, scale units apart.
func CanvasSVG(c *viz.Canvas, scale float64, fill string) string {
	if c == nil {
		return ""
	}
	w, h := float64(c.PixelWidth())*scale, float64(c.PixelHeight())*scale

	var sb strings.Builder
	writeHeader(&sb, w, h)
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", fill)
	r := scale * 0.4
	for y := 0; y < c.PixelHeight(); y++ {
		for x := 0; x < c.PixelWidth(); x++ {
			if c.IsSet(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					(float64(x)+0.5)*scale, (float64(y)+0.5)*scale, r)
			}
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// TrajectorySVG fits points into a width x height path with 10% padding on
// each axis. Fewer than two points produce no document.
func TrajectorySVG(points []Point, width, height int, stroke string) string {
	if len(points) < 2 {
		return ""
	}
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	padX, padY := span(minX, maxX)*0.1, span(minY, maxY)*0.1
	minX, maxX = minX-padX, maxX+padX
	minY, maxY = minY-padY, maxY+padY
	rangeX, rangeY := span(minX, maxX), span(minY, maxY)

	var sb strings.Builder
	writeHeader(&sb, float64(width), float64(height))
	fmt.Fprintf(&sb, "<path fill=\"none\" stroke=\"%s\" stroke-width=\"1.5\" d=\"", stroke)
	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n</svg>")
	return sb.String()
}

// AltitudeTrace is altitude against elapsed time.
func AltitudeTrace(frames []sequence.Frame) []Point {
	out := make([]Point, len(frames))
	for i, f := range frames {
		out[i] = Point{X: f.Elapsed, Y: f.Altitude()}
	}
	return out
}

func span(lo, hi float64) float64 {
	if hi == lo {
		return 1
	}
	return hi - lo
}

func writeHeader(sb *strings.Builder, w, h float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, w, h, w, h, background)
}
