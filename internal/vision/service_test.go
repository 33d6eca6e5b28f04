package vision

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/spartronics4915/camstream/internal/camera"
)

func frameWithGreenRect(r image.Rectangle) *camera.Frame {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	green := color.RGBA{G: 255, A: 255}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, y, green)
		}
	}
	return &camera.Frame{Image: img, CapturedAt: time.Now()}
}

func TestGreenTargetDetected(t *testing.T) {
	engine := NewService()
	frame := frameWithGreenRect(image.Rect(20, 20, 30, 30))

	target, annotated, err := engine.Process(frame, "cam")
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if target == nil {
		t.Fatal("expected a target for a 10x10 green blob")
	}
	if target.Area != 100 {
		t.Errorf("area = %d, want 100", target.Area)
	}
	if target.X != 24 || target.Y != 24 {
		t.Errorf("centroid = (%d,%d), want (24,24)", target.X, target.Y)
	}
	if annotated == nil {
		t.Fatal("expected an annotated frame")
	}
	if annotated.Bounds() != frame.Image.Bounds() {
		t.Errorf("annotated bounds %v differ from frame bounds %v", annotated.Bounds(), frame.Image.Bounds())
	}
}

func TestNoTargetOnDarkFrame(t *testing.T) {
	engine := NewService()
	frame := &camera.Frame{Image: image.NewRGBA(image.Rect(0, 0, 64, 64)), CapturedAt: time.Now()}

	target, annotated, err := engine.Process(frame, "cam")
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if target != nil {
		t.Errorf("dark frame produced target %+v, want none", target)
	}
	if annotated == nil {
		t.Error("a frame without a target still needs an annotated copy to stream")
	}
}

func TestSmallBlobIgnored(t *testing.T) {
	engine := NewService()
	frame := frameWithGreenRect(image.Rect(10, 10, 13, 13))

	target, _, err := engine.Process(frame, "cam")
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if target != nil {
		t.Errorf("9-pixel blob produced target %+v, want noise rejection", target)
	}
}

func TestGrayNeverDetects(t *testing.T) {
	engine := NewService()
	frame := frameWithGreenRect(image.Rect(20, 20, 40, 40))

	target, annotated, err := engine.Process(frame, "gray")
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if target != nil {
		t.Errorf("gray pass produced target %+v, want none", target)
	}
	if annotated == nil {
		t.Fatal("expected a grayscale frame")
	}
}

func TestUnknownSelector(t *testing.T) {
	engine := NewService()
	frame := frameWithGreenRect(image.Rect(0, 0, 8, 8))

	if _, _, err := engine.Process(frame, "nonsense"); err == nil {
		t.Error("unknown selector must fail so the session terminates")
	}
}
