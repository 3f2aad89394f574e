package pathfinding

import (
	"errors"
	"fmt"
)

// ErrPathfinding is wrapped by every search failure. Callers that do not care
// why a request failed can test for it alone.
var ErrPathfinding = errors.New("pathfinding failed")

// Search failure kinds.
var (
	ErrBlocked        = fmt.Errorf("%w: start or end tile is blocked", ErrPathfinding)
	ErrNoPath         = fmt.Errorf("%w: no route to goal", ErrPathfinding)
	ErrIterationLimit = fmt.Errorf("%w: iteration limit exceeded", ErrPathfinding)
)

// Worker pool errors.
var (
	ErrPoolClosed = errors.New("pathfinding pool closed")
	ErrQueueFull  = errors.New("pathfinding queue full")
)
