package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrUnknownKind  = errors.New("unknown leaderboard kind")
	ErrInvalidRound = errors.New("invalid round")
)
