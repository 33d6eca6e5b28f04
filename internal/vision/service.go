package vision

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/spartronics4915/camstream/internal/camera"
)

type algorithm func(img image.Image) (*Target, image.Image, error)

type service struct {
	algorithms map[string]algorithm
}

// NewService returns the built-in algorithm registry. "cam" locates the
// brightest green region (retroreflective tape under an LED ring) and draws
// a bounding box with a crosshair; "gray" is a diagnostic pass that never
// detects anything.
func NewService() Engine {
	return &service{algorithms: map[string]algorithm{
		"cam":  greenTarget,
		"gray": grayscale,
	}}
}

func (s *service) Process(frame *camera.Frame, selector string) (*Target, image.Image, error) {
	algo, ok := s.algorithms[selector]
	if !ok {
		return nil, nil, fmt.Errorf("unknown algorithm %q", selector)
	}
	return algo(frame.Image)
}

// Pixels count below which a green blob is treated as noise.
const minTargetArea = 40

func greenTarget(img image.Image) (*Target, image.Image, error) {
	bounds := img.Bounds()
	annotated := image.NewRGBA(bounds)
	draw.Draw(annotated, bounds, img, bounds.Min, draw.Src)

	var count, sumX, sumY int
	minX, minY := bounds.Max.X, bounds.Max.Y
	maxX, maxY := bounds.Min.X, bounds.Min.Y
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			r8, g8, b8 := int(r>>8), int(g>>8), int(b>>8)
			if g8 > 128 && g8 > r8+40 && g8 > b8+40 {
				count++
				sumX += x
				sumY += y
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}

	if count < minTargetArea {
		return nil, annotated, nil
	}

	target := &Target{X: sumX / count, Y: sumY / count, Area: count}
	red := color.RGBA{R: 255, A: 255}
	drawRect(annotated, image.Rect(minX, minY, maxX+1, maxY+1), red)
	drawCrosshair(annotated, target.X, target.Y, red)
	return target, annotated, nil
}

func grayscale(img image.Image) (*Target, image.Image, error) {
	bounds := img.Bounds()
	annotated := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			annotated.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return nil, annotated, nil
}

func drawRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	r = r.Intersect(img.Bounds())
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

func drawCrosshair(img *image.RGBA, cx, cy int, c color.Color) {
	const arm = 6
	b := img.Bounds()
	for x := cx - arm; x <= cx+arm; x++ {
		if (image.Point{X: x, Y: cy}).In(b) {
			img.Set(x, cy, c)
		}
	}
	for y := cy - arm; y <= cy+arm; y++ {
		if (image.Point{X: cx, Y: y}).In(b) {
			img.Set(cx, y, c)
		}
	}
}
