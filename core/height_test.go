package core

import (
	"context"
	"testing"
)

func TestManualHeightSource_NeverMovesBackwards(t *testing.T) {
	source := NewManualHeightSource(10)
	source.Set(5)
	if height, _ := source.CurrentHeight(context.Background()); height != 10 {
		t.Fatalf("expected height to stay at 10, got %d", height)
	}
	source.Set(12)
	if got := source.Advance(3); got != 15 {
		t.Fatalf("expected 15 after advance, got %d", got)
	}
}
