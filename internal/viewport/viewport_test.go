package viewport

import (
	"testing"
)

func testConfig() Config {
	return NewConfig([]int{40, 60, 80, 100, 140, 200, 300})
}

func TestApply_ZoomClampsAtBothEnds(t *testing.T) {
	cfg := testConfig()
	s := State{}

	for i := 0; i < 20; i++ {
		s = Apply(cfg, s, Action{Kind: ActionZoomIn}, 500)
	}
	if s.ZoomIndex != 0 {
		t.Errorf("zoom in past minimum: index %d, want 0", s.ZoomIndex)
	}

	for i := 0; i < 20; i++ {
		s = Apply(cfg, s, Action{Kind: ActionZoomOut}, 500)
	}
	if s.ZoomIndex != len(cfg.ZoomLevels)-1 {
		t.Errorf("zoom out past maximum: index %d, want %d", s.ZoomIndex, len(cfg.ZoomLevels)-1)
	}
}

func TestApply_ZoomPreservesScrollOffset(t *testing.T) {
	cfg := testConfig()
	s := State{ZoomIndex: 3, ScrollOffset: 123}

	s2 := Apply(cfg, s, Action{Kind: ActionZoomIn}, 500)
	if s2.ScrollOffset != 123 {
		t.Errorf("zoom in moved offset: %d", s2.ScrollOffset)
	}
	s3 := Apply(cfg, s, Action{Kind: ActionZoomOut}, 500)
	if s3.ScrollOffset != 123 {
		t.Errorf("zoom out moved offset: %d", s3.ScrollOffset)
	}
}

func TestApply_ScrollByClampsToMaxOffset(t *testing.T) {
	cfg := testConfig()
	s := State{ZoomIndex: 3} // visible 100

	s = Apply(cfg, s, Action{Kind: ActionScrollBy, Delta: 1_000_000}, 500)
	if s.ScrollOffset != 400 {
		t.Errorf("huge scroll: offset %d, want maxOffset 400", s.ScrollOffset)
	}

	s = Apply(cfg, s, Action{Kind: ActionScrollBy, Delta: -1_000_000}, 500)
	if s.ScrollOffset != 0 {
		t.Errorf("huge reverse scroll: offset %d, want 0", s.ScrollOffset)
	}
}

func TestApply_GoToLatestAndOldest(t *testing.T) {
	cfg := testConfig()
	s := State{ZoomIndex: 3, ScrollOffset: 17}

	s = Apply(cfg, s, Action{Kind: ActionGoToOldest}, 500)
	if s.ScrollOffset != 400 {
		t.Errorf("go to oldest: offset %d, want 400", s.ScrollOffset)
	}
	s = Apply(cfg, s, Action{Kind: ActionGoToLatest}, 500)
	if s.ScrollOffset != 0 {
		t.Errorf("go to latest: offset %d, want 0", s.ScrollOffset)
	}
}

func TestApply_SetTimeframeSnapsToLive(t *testing.T) {
	cfg := testConfig()
	s := State{ZoomIndex: 2, ScrollOffset: 250}

	s = Apply(cfg, s, Action{Kind: ActionSetTimeframe}, 500)
	if s.ScrollOffset != 0 {
		t.Errorf("timeframe switch: offset %d, want 0", s.ScrollOffset)
	}
	if s.ZoomIndex != 2 {
		t.Errorf("timeframe switch changed zoom: %d", s.ZoomIndex)
	}
}

func TestApply_IsPure(t *testing.T) {
	cfg := testConfig()
	s := State{ZoomIndex: 1, ScrollOffset: 5}
	_ = Apply(cfg, s, Action{Kind: ActionScrollBy, Delta: 50}, 500)
	if s.ZoomIndex != 1 || s.ScrollOffset != 5 {
		t.Errorf("reducer mutated its input: %+v", s)
	}
}

func TestEffectiveOffset_Invariant(t *testing.T) {
	cfg := testConfig()
	// Sweep the state space: every combination must satisfy
	// 0 <= effectiveOffset <= maxOffset.
	for zoom := 0; zoom < len(cfg.ZoomLevels); zoom++ {
		for _, total := range []int{0, 1, 39, 40, 99, 100, 101, 499, 500} {
			for _, offset := range []int{0, 1, 50, 400, 499, 500, 10_000} {
				s := State{ZoomIndex: zoom, ScrollOffset: offset}
				eff := cfg.EffectiveOffset(s, total)
				max := cfg.MaxOffset(s, total)
				if eff < 0 || eff > max {
					t.Fatalf("zoom=%d total=%d offset=%d: eff=%d outside [0,%d]",
						zoom, total, offset, eff, max)
				}
				if (eff == 0) != cfg.IsAtLatest(s, total) {
					t.Fatalf("IsAtLatest inconsistent at zoom=%d total=%d offset=%d", zoom, total, offset)
				}
			}
		}
	}
}
