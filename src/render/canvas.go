// Package render rasterises animation frames into RGBA images.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/llilyshkall/it-camp/src/linkage"
)

// Canvas is a thin set of filled-shape primitives over an image.RGBA.
// Coordinates are in pixels and may fall outside the image; shapes are
// clipped.
type Canvas struct {
	img *image.RGBA
}

// NewCanvas allocates a w x h canvas.
func NewCanvas(w, h int) *Canvas {
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// Image returns the backing image. It is reused between frames.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Fill paints the whole canvas.
func (c *Canvas) Fill(col color.RGBA) {
	b := c.img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c.img.SetRGBA(x, y, col)
		}
	}
}

// clip converts a float box to pixel bounds inside the image.
func (c *Canvas) clip(minX, minY, maxX, maxY float64) (x0, y0, x1, y1 int) {
	b := c.img.Bounds()
	x0 = max(int(math.Floor(minX)), b.Min.X)
	y0 = max(int(math.Floor(minY)), b.Min.Y)
	x1 = min(int(math.Ceil(maxX)), b.Max.X)
	y1 = min(int(math.Ceil(maxY)), b.Max.Y)
	return
}

// Rect fills the axis-aligned box with top-left corner (x, y).
func (c *Canvas) Rect(x, y, w, h float64, col color.RGBA) {
	x0 := int(math.Round(x))
	y0 := int(math.Round(y))
	x1 := int(math.Round(x + w))
	y1 := int(math.Round(y + h))

	b := c.img.Bounds()
	x0, y0 = max(x0, b.Min.X), max(y0, b.Min.Y)
	x1, y1 = min(x1, b.Max.X), min(y1, b.Max.Y)
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			c.img.SetRGBA(px, py, col)
		}
	}
}

// Circle fills a disc. A pixel is covered when its center is inside.
func (c *Canvas) Circle(cx, cy, r float64, col color.RGBA) {
	x0, y0, x1, y1 := c.clip(cx-r, cy-r, cx+r, cy+r)
	rsq := r * r
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			dx := (float64(x) + 0.5) - cx
			dy := (float64(y) + 0.5) - cy
			if dx*dx+dy*dy <= rsq {
				c.img.SetRGBA(x, y, col)
			}
		}
	}
}

// Line draws a thick segment by stamping discs along it.
func (c *Canvas) Line(x1, y1, x2, y2, width float64, col color.RGBA) {
	dx := x2 - x1
	dy := y2 - y1
	dist := math.Hypot(dx, dy)
	if dist < 1e-6 {
		c.Circle(x1, y1, width/2, col)
		return
	}
	steps := max(int(dist/0.8), 1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		c.Circle(x1+t*dx, y1+t*dy, width/2, col)
	}
}

// Polygon fills a simple polygon with the even-odd rule.
func (c *Canvas) Polygon(pts []linkage.Point, col color.RGBA) {
	if len(pts) < 3 {
		return
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	x0, y0, x1, y1 := c.clip(minX, minY, maxX, maxY)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if inside(pts, float64(x)+0.5, float64(y)+0.5) {
				c.img.SetRGBA(x, y, col)
			}
		}
	}
}

// inside is the crossing-number test.
func inside(pts []linkage.Point, x, y float64) bool {
	in := false
	j := len(pts) - 1
	for i := range pts {
		a, b := pts[i], pts[j]
		if (a.Y > y) != (b.Y > y) && x < (b.X-a.X)*(y-a.Y)/(b.Y-a.Y)+a.X {
			in = !in
		}
		j = i
	}
	return in
}

// rotate turns p around o by angle a.
func rotate(p, o linkage.Point, a float64) linkage.Point {
	sin, cos := math.Sincos(a)
	d := p.Sub(o)
	return linkage.Point{
		X: o.X + d.X*cos - d.Y*sin,
		Y: o.Y + d.X*sin + d.Y*cos,
	}
}

// cubic appends n points of the Bezier curve p0..p3, excluding p0.
func cubic(dst []linkage.Point, p0, p1, p2, p3 linkage.Point, n int) []linkage.Point {
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		u := 1 - t
		dst = append(dst, linkage.Point{
			X: u*u*u*p0.X + 3*u*u*t*p1.X + 3*u*t*t*p2.X + t*t*t*p3.X,
			Y: u*u*u*p0.Y + 3*u*u*t*p1.Y + 3*u*t*t*p2.Y + t*t*t*p3.Y,
		})
	}
	return dst
}
