package img

import (
	"math/rand"
)

// Shape class names in sorted order, matching the class ordering LoadDir
// derives from the directory layout.
var ShapeNames = []string{"circle", "square", "triangle"}

// DrawShape draws a single randomly positioned and colored shape on a black canvas
// of the given size. kind is "circle" or "triangle", anything else draws a square.
func DrawShape(size int, kind string, rng *rand.Rand) *Image {
	m := NewRGB(size, size)
	col := RGB{
		R: 0.25 + 0.75*rng.Float32(),
		G: 0.25 + 0.75*rng.Float32(),
		B: 0.25 + 0.75*rng.Float32(),
	}
	// shape extent and position chosen so that it always fits on the canvas
	spread := size / 4
	if spread < 1 {
		spread = 1
	}
	half := size/8 + rng.Intn(spread)
	if half < 1 && size > 2 {
		half = 1
	}
	cx := half + rng.Intn(size-2*half)
	cy := half + rng.Intn(size-2*half)
	switch kind {
	case "circle":
		for y := cy - half; y <= cy+half; y++ {
			for x := cx - half; x <= cx+half; x++ {
				dx, dy := x-cx, y-cy
				if dx*dx+dy*dy <= half*half {
					m.Set(x, y, col)
				}
			}
		}
	case "triangle":
		// isoceles: apex at top centre, base along the bottom edge of the extent
		for y := cy - half; y <= cy+half; y++ {
			span := (y - cy + half) / 2
			for x := cx - span; x <= cx+span; x++ {
				m.Set(x, y, col)
			}
		}
	default:
		for y := cy - half; y <= cy+half; y++ {
			for x := cx - half; x <= cx+half; x++ {
				m.Set(x, y, col)
			}
		}
	}
	return m
}

// GenerateShapes creates an in-memory data set of count random images per shape class.
func GenerateShapes(size, count int, rng *rand.Rand) *Data {
	var images []*Image
	var labels []int32
	for ix, name := range ShapeNames {
		for i := 0; i < count; i++ {
			images = append(images, DrawShape(size, name, rng))
			labels = append(labels, int32(ix))
		}
	}
	return NewData(ShapeNames, labels, images)
}
