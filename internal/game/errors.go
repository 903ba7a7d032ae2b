package game

import "errors"

// Game errors
var (
	ErrNoDish       = errors.New("no dish loaded")
	ErrPhaseClosed  = errors.New("phase no longer accepts guesses")
	ErrPhaseOpen    = errors.New("phase is still in progress")
	ErrPhaseLocked  = errors.New("phase not reached yet")
	ErrNotComplete  = errors.New("game not complete")
	ErrEmptyGuess   = errors.New("guess cannot be empty")
	ErrInvalidGuess = errors.New("protein guess must be zero or more grams")
	ErrUnknownPhase = errors.New("unknown phase")
)
