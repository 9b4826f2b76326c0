package scoreboard

import "errors"

// Sentinel kinds for scoreboard client errors.
var (
	ErrFetchBoard  = errors.New("board fetch failed")
	ErrDecodeBoard = errors.New("board payload malformed")
)
