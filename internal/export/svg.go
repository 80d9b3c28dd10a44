package export

import (
	"fmt"
	"math"
	"strings"
)

// Palette is the default group color cycle.
var Palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

type SVGOptions struct {
	Width, Height int
	Radius        float64
	Background    string
	LinkColor     string
	// Fit scales the layout into the image. Otherwise layout coordinates
	// are used as pixels.
	Fit bool
}

func DefaultSVGOptions(width, height int) SVGOptions {
	return SVGOptions{
		Width:      width,
		Height:     height,
		Radius:     5,
		Background: "#ffffff",
		LinkColor:  "#999999",
		Fit:        true,
	}
}

// LayoutSVG renders a frame as a static SVG document: links as lines and
// nodes as circles colored by group.
func LayoutSVG(f Frame, opts SVGOptions) string {
	project := identity
	if opts.Fit && len(f.Nodes) > 0 {
		project = fit(f.Nodes, opts)
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, opts.Width, opts.Height, opts.Width, opts.Height, opts.Background))

	sb.WriteString(fmt.Sprintf(`<g stroke="%s" stroke-opacity="0.6">
`, opts.LinkColor))
	for _, l := range f.Links {
		x1, y1 := project(l.X1, l.Y1)
		x2, y2 := project(l.X2, l.Y2)
		width := math.Sqrt(math.Max(l.Value, 1))
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke-width="%.2f"/>
`, x1, y1, x2, y2, width))
	}
	sb.WriteString("</g>\n")

	sb.WriteString(`<g stroke="#fff" stroke-width="1.5">
`)
	for _, n := range f.Nodes {
		x, y := project(n.X, n.Y)
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"><title>%s</title></circle>
`, x, y, opts.Radius, GroupColor(n.Group), escape(n.ID)))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

func GroupColor(group int) string {
	if group < 0 {
		group = -group
	}
	return Palette[group%len(Palette)]
}

func identity(x, y float64) (float64, float64) { return x, y }

func fit(nodes []FrameNode, opts SVGOptions) func(x, y float64) (float64, float64) {
	minX, maxX := nodes[0].X, nodes[0].X
	minY, maxY := nodes[0].Y, nodes[0].Y
	for _, n := range nodes {
		minX, maxX = math.Min(minX, n.X), math.Max(maxX, n.X)
		minY, maxY = math.Min(minY, n.Y), math.Max(maxY, n.Y)
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	// uniform scale keeps distances comparable on both axes
	scale := math.Min(float64(opts.Width)/rangeX, float64(opts.Height)/rangeY)
	offX := (float64(opts.Width) - rangeX*scale) / 2
	offY := (float64(opts.Height) - rangeY*scale) / 2

	return func(x, y float64) (float64, float64) {
		return offX + (x-minX)*scale, offY + (y-minY)*scale
	}
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
