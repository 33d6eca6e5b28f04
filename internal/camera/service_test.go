package camera

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeDriver struct {
	opens     int
	closes    int
	err       error
	nilHandle bool
}

func (d *fakeDriver) Open(ctx context.Context, cfg Config) (Handle, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.nilHandle {
		return nil, nil
	}
	d.opens++
	return &fakeDriverHandle{driver: d}, nil
}

type fakeDriverHandle struct {
	driver *fakeDriver
}

func (h *fakeDriverHandle) NextFrame(ctx context.Context) (*Frame, error) {
	return nil, errors.New("not implemented")
}

func (h *fakeDriverHandle) NextJPEG(ctx context.Context) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (h *fakeDriverHandle) Close() error {
	h.driver.closes++
	return nil
}

func TestExclusiveAcquisition(t *testing.T) {
	driver := &fakeDriver{}
	guard := NewService(driver)
	ctx := context.Background()

	first, err := guard.Open(ctx, Config{})
	if err != nil {
		t.Fatalf("first open failed: %v", err)
	}

	second := make(chan Handle, 1)
	go func() {
		h, err := guard.Open(ctx, Config{})
		if err != nil {
			t.Errorf("second open failed: %v", err)
			return
		}
		second <- h
	}()

	select {
	case <-second:
		t.Fatal("second open completed while first handle was still held")
	case <-time.After(50 * time.Millisecond):
	}

	if err := first.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	select {
	case h := <-second:
		_ = h.Close()
	case <-time.After(time.Second):
		t.Fatal("second open did not complete after the first handle was released")
	}
}

func TestDoubleCloseReleasesOnce(t *testing.T) {
	driver := &fakeDriver{}
	guard := NewService(driver)
	ctx := context.Background()

	h, err := guard.Open(ctx, Config{})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("repeated close must be a no-op, got: %v", err)
	}
	if driver.closes != 1 {
		t.Errorf("driver closed %d times, want exactly once", driver.closes)
	}

	// A leaked or double-released slot would break this open.
	h, err = guard.Open(ctx, Config{})
	if err != nil {
		t.Fatalf("open after double close failed: %v", err)
	}
	_ = h.Close()
}

func TestOpenFailureReleasesSlot(t *testing.T) {
	driver := &fakeDriver{err: errors.New("device busy")}
	guard := NewService(driver)
	ctx := context.Background()

	if _, err := guard.Open(ctx, Config{}); err == nil {
		t.Fatal("open should have failed")
	}

	driver.err = nil
	h, err := guard.Open(ctx, Config{})
	if err != nil {
		t.Fatalf("slot leaked by failed open: %v", err)
	}
	_ = h.Close()
}

func TestOpenNilHandleIsAnError(t *testing.T) {
	driver := &fakeDriver{nilHandle: true}
	guard := NewService(driver)

	if _, err := guard.Open(context.Background(), Config{}); err == nil {
		t.Fatal("a nil driver handle must be reported as an acquisition failure")
	}

	driver.nilHandle = false
	h, err := guard.Open(context.Background(), Config{})
	if err != nil {
		t.Fatalf("slot leaked by nil-handle open: %v", err)
	}
	_ = h.Close()
}

func TestAcquireHonorsContext(t *testing.T) {
	driver := &fakeDriver{}
	guard := NewService(driver)

	h, err := guard.Open(context.Background(), Config{})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer h.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := guard.Open(ctx, Config{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("waiting open returned %v, want deadline exceeded", err)
	}
}
