package rules

import (
	"fmt"
)

// Phase is the per-player turn phase.
type Phase int

const (
	PhaseNotPlaying Phase = iota
	PhaseAction
	PhaseBuy
	PhaseCleanup
)

var phaseNames = map[Phase]string{
	PhaseNotPlaying: "NOT_PLAYING",
	PhaseAction:     "ACTION",
	PhaseBuy:        "BUY",
	PhaseCleanup:    "CLEANUP",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// next returns the phase that legally follows p within a turn.
func (p Phase) next() Phase {
	switch p {
	case PhaseNotPlaying:
		return PhaseAction
	case PhaseAction:
		return PhaseBuy
	case PhaseBuy:
		return PhaseCleanup
	default:
		return PhaseNotPlaying
	}
}

// CanAdvanceTo reports whether a player in phase p may move to target.
func (p Phase) CanAdvanceTo(target Phase) bool {
	return p.next() == target
}

// TurnOrder tracks whose turn it is among a fixed number of seats.
type TurnOrder struct {
	seats      int
	index      int
	turnNumber int
}

// NewTurnOrder creates a turn order starting at seat 0, turn 1.
func NewTurnOrder(seats int) *TurnOrder {
	return &TurnOrder{
		seats:      seats,
		index:      0,
		turnNumber: 1,
	}
}

// Active returns the seat index of the active player.
func (to *TurnOrder) Active() int {
	return to.index
}

// Seats returns the number of seats in rotation.
func (to *TurnOrder) Seats() int {
	return to.seats
}

// TurnNumber returns the current turn number (1-based). Extra turns count.
func (to *TurnOrder) TurnNumber() int {
	return to.turnNumber
}

// Advance rotates to the next seat, wrapping modulo the seat count.
func (to *TurnOrder) Advance() int {
	if to.seats > 0 {
		to.index = (to.index + 1) % to.seats
	}
	to.turnNumber++
	return to.index
}

// Repeat starts another turn for the same seat.
func (to *TurnOrder) Repeat() int {
	to.turnNumber++
	return to.index
}

// After returns the seat offset positions after from, in table order.
func (to *TurnOrder) After(from, offset int) int {
	if to.seats == 0 {
		return 0
	}
	return ((from+offset)%to.seats + to.seats) % to.seats
}
