package core

import (
	"context"
	"sync/atomic"
)

// ManualHeightSource is a HeightSource driven by the host.
type ManualHeightSource struct {
	height atomic.Uint64
}

func NewManualHeightSource(start uint64) *ManualHeightSource {
	source := &ManualHeightSource{}
	source.height.Store(start)
	return source
}

func (s *ManualHeightSource) CurrentHeight(context.Context) (uint64, error) {
	if s == nil {
		return 0, nil
	}
	return s.height.Load(), nil
}

// Set moves the height forward. Lower values are ignored.
func (s *ManualHeightSource) Set(height uint64) {
	if s == nil {
		return
	}
	for {
		current := s.height.Load()
		if height <= current {
			return
		}
		if s.height.CompareAndSwap(current, height) {
			return
		}
	}
}

func (s *ManualHeightSource) Advance(delta uint64) uint64 {
	if s == nil {
		return 0
	}
	return s.height.Add(delta)
}
