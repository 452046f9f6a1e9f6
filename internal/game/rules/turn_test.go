package rules

import "testing"

func TestPhaseProgression(t *testing.T) {
	expected := []Phase{PhaseNotPlaying, PhaseAction, PhaseBuy, PhaseCleanup, PhaseNotPlaying}

	for i := 0; i < len(expected)-1; i++ {
		if !expected[i].CanAdvanceTo(expected[i+1]) {
			t.Fatalf("expected %s to advance to %s", expected[i], expected[i+1])
		}
	}

	if PhaseAction.CanAdvanceTo(PhaseCleanup) {
		t.Fatalf("action phase must not skip buy")
	}
	if PhaseNotPlaying.CanAdvanceTo(PhaseBuy) {
		t.Fatalf("idle player must enter action first")
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseBuy.String() != "BUY" {
		t.Fatalf("expected BUY, got %s", PhaseBuy)
	}
	if Phase(42).String() != "PHASE_42" {
		t.Fatalf("expected fallback name, got %s", Phase(42))
	}
}

func TestTurnOrderAdvanceWraps(t *testing.T) {
	to := NewTurnOrder(3)

	seen := []int{to.Active()}
	for i := 0; i < 4; i++ {
		seen = append(seen, to.Advance())
	}

	want := []int{0, 1, 2, 0, 1}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("turn %d: expected seat %d, got %d", i, want[i], seen[i])
		}
	}
	if to.TurnNumber() != 5 {
		t.Fatalf("expected turn number 5, got %d", to.TurnNumber())
	}
}

func TestTurnOrderRepeatKeepsSeat(t *testing.T) {
	to := NewTurnOrder(2)
	to.Advance()

	if got := to.Repeat(); got != 1 {
		t.Fatalf("expected extra turn for seat 1, got %d", got)
	}
	if to.TurnNumber() != 3 {
		t.Fatalf("expected turn number 3, got %d", to.TurnNumber())
	}
}

func TestTurnOrderAfter(t *testing.T) {
	to := NewTurnOrder(4)

	if got := to.After(3, 1); got != 0 {
		t.Fatalf("expected seat after 3 to be 0, got %d", got)
	}
	if got := to.After(0, -1); got != 3 {
		t.Fatalf("expected seat before 0 to be 3, got %d", got)
	}
}
