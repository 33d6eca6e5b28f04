package camera

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

type service struct {
	driver Source
	slot   *semaphore.Weighted
}

// NewService wraps a raw driver with the hardware-exclusivity guard: a
// single-slot semaphore acquired before the driver opens and released only
// after the handle closes, so correctness does not depend on timing.
func NewService(driver Source) Source {
	return &service{driver: driver, slot: semaphore.NewWeighted(1)}
}

func (s *service) Open(ctx context.Context, cfg Config) (Handle, error) {
	if err := s.slot.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for camera slot: %w", err)
	}

	h, err := s.driver.Open(ctx, cfg)
	if err != nil {
		s.slot.Release(1)
		return nil, fmt.Errorf("opening camera: %w", err)
	}
	if h == nil {
		s.slot.Release(1)
		return nil, fmt.Errorf("camera driver returned no handle")
	}
	return &guardedHandle{Handle: h, slot: s.slot}, nil
}

type guardedHandle struct {
	Handle
	slot *semaphore.Weighted
	once sync.Once
}

// Close releases the driver handle and then the acquisition slot. Repeated
// calls are no-ops so teardown stays safe on every exit path.
func (h *guardedHandle) Close() error {
	var err error
	h.once.Do(func() {
		err = h.Handle.Close()
		h.slot.Release(1)
	})
	return err
}
