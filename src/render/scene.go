package render

import (
	"image/color"

	"github.com/llilyshkall/it-camp/src/animation"
	"github.com/llilyshkall/it-camp/src/linkage"
)

// Palette colours a scene.
type Palette struct {
	Background color.RGBA
	Ground     color.RGBA
	Body       color.RGBA
	Shade      color.RGBA
	Marker     color.RGBA
}

// DefaultPalette is the blue-on-white look of the web page.
func DefaultPalette() Palette {
	return Palette{
		Background: color.RGBA{255, 255, 255, 255},
		Ground:     color.RGBA{218, 235, 247, 255},
		Body:       color.RGBA{10, 115, 183, 255},
		Shade:      color.RGBA{71, 150, 201, 255},
		Marker:     color.RGBA{230, 90, 40, 255},
	}
}

// Raster draws frames onto a reusable canvas. It implements
// animation.Renderer.
type Raster struct {
	*Canvas
	Palette Palette

	frames int
}

// NewRaster returns a w x h renderer with the default palette.
func NewRaster(w, h int) *Raster {
	return &Raster{Canvas: NewCanvas(w, h), Palette: DefaultPalette()}
}

// Frames returns how many frames have been drawn.
func (r *Raster) Frames() int { return r.frames }

// Render draws f, replacing the previous picture.
func (r *Raster) Render(f animation.Frame) {
	g := f.Geometry
	o := g.Pivot
	pal := r.Palette
	w := float64(r.img.Bounds().Dx())
	h := float64(r.img.Bounds().Dy())

	r.Fill(pal.Background)
	r.Rect(0, g.RodBottomY, w, h-g.RodBottomY, pal.Ground)

	// tower
	base := g.RodBottomY - 20
	r.Rect(o.X-100, base, 200, 20, pal.Body)
	r.Polygon([]linkage.Point{
		{X: o.X - 70, Y: base},
		{X: o.X + 70, Y: base},
		{X: o.X + 30, Y: o.Y + 25},
		{X: o.X - 30, Y: o.Y + 25},
	}, pal.Shade)
	r.Line(o.X-52, base, o.X-12, o.Y+25, 6, pal.Body)
	r.Line(o.X+52, base, o.X+12, o.Y+25, 6, pal.Body)
	r.Line(o.X-30, o.Y+25, o.X+30, o.Y+25, 6, pal.Body)

	// walking beam and horsehead, drawn level and turned by the beam angle
	th := f.BeamAngle
	r.Polygon(beamShape(o, th, -170, -15, 360, 30), pal.Body)
	r.Polygon(beamShape(o, th, -20, -15, 60, 30), pal.Shade)
	r.Polygon(beamShape(o, th, 50, -15, 40, 30), pal.Shade)
	r.Polygon(horsehead(o, th), pal.Body)
	r.Polygon(beamShape(o, th, -185, -3, 14, 8), pal.Body)

	// crank
	c := g.CrankCenter
	r.Circle(c.X, c.Y, 32, pal.Body)
	r.Line(c.X, c.Y, f.CrankPin.X, f.CrankPin.Y, 10, pal.Shade)

	// pitman
	r.Line(f.CrankPin.X, f.CrankPin.Y, f.BeamAttach.X, f.BeamAttach.Y, 6, pal.Body)

	// polished rod and shoe
	hx := f.Horsehead.X
	r.Line(hx, f.RodTopY, hx, g.RodBottomY, 4, pal.Body)
	r.Polygon([]linkage.Point{
		{X: o.X - 225, Y: g.RodBottomY},
		{X: o.X - 155, Y: g.RodBottomY},
		{X: o.X - 190, Y: g.RodBottomY + 20},
	}, pal.Body)

	if f.ShowPivotMarkers {
		for _, p := range []linkage.Point{o, c, f.BeamAttach, f.CrankPin} {
			r.Circle(p.X, p.Y, 6, pal.Marker)
		}
	}
	r.frames++
}

// beamShape returns the rectangle at offset (dx, dy) from the pivot with
// size w x h, turned by th around the pivot.
func beamShape(o linkage.Point, th, dx, dy, w, h float64) []linkage.Point {
	corners := []linkage.Point{
		{X: o.X + dx, Y: o.Y + dy},
		{X: o.X + dx + w, Y: o.Y + dy},
		{X: o.X + dx + w, Y: o.Y + dy + h},
		{X: o.X + dx, Y: o.Y + dy + h},
	}
	for i, p := range corners {
		corners[i] = rotate(p, o, th)
	}
	return corners
}

// horsehead outlines the curved head at the left end of the beam.
func horsehead(o linkage.Point, th float64) []linkage.Point {
	at := func(dx, dy float64) linkage.Point { return linkage.Point{X: o.X + dx, Y: o.Y + dy} }

	pts := []linkage.Point{at(-170, -14)}
	pts = cubic(pts, at(-170, -14), at(-190, -25), at(-220, -30), at(-240, -5), 12)
	pts = append(pts, at(-240, 5))
	pts = cubic(pts, at(-240, 5), at(-215, 35), at(-180, 20), at(-170, 15), 12)
	for i, p := range pts {
		pts[i] = rotate(p, o, th)
	}
	return pts
}
