// Package chomp holds the feedback state machine for the Chomper character.
// It is pure UI state: the machine only decides which animation plays and for
// how long, callers own the timers and must drop a pending settle timer
// whenever a new effect lands.
package chomp

import (
	"fmt"
	"sync"
	"time"
)

// State is the character's current animation.
type State int

const (
	Idle State = iota
	Chomping
	Dancing
)

func (s State) String() string {
	switch s {
	case Chomping:
		return "chomping"
	case Dancing:
		return "dancing"
	}
	return "idle"
}

const (
	ChompDuration = time.Second
	DanceDuration = 3 * time.Second
)

// Effect tells the caller which animation to show and when to call Settle.
type Effect struct {
	State    State
	Duration time.Duration
}

// Chomper tracks the incomplete-task count and derives animations from its
// transitions. Safe for concurrent use: the bot's settle timers fire on their
// own goroutines while handlers read the face and speech.
type Chomper struct {
	mu        sync.Mutex
	state     State
	remaining int
	tracked   bool
}

func New() *Chomper {
	return &Chomper{}
}

func (c *Chomper) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Remaining is the last incomplete-task count the machine saw.
func (c *Chomper) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// TrackCount records the incomplete-task count after a list refresh. A count
// dropping from positive to zero triggers the victory dance.
func (c *Chomper) TrackCount(n int) (Effect, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, seen := c.remaining, c.tracked
	c.remaining = n
	c.tracked = true
	if seen && prev > 0 && n == 0 {
		c.state = Dancing
		return Effect{State: Dancing, Duration: DanceDuration}, true
	}
	return Effect{}, false
}

// TaskChomped fires when the user completes a task, before the list refresh.
// Completing the last remaining task yields no chomp: the zero transition in
// TrackCount plays the dance instead, never both.
func (c *Chomper) TaskChomped() (Effect, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining > 1 {
		c.state = Chomping
		return Effect{State: Chomping, Duration: ChompDuration}, true
	}
	return Effect{}, false
}

// Settle returns the character to idle once an effect's duration has elapsed.
func (c *Chomper) Settle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Idle
}

// Speech is the line in the character's speech bubble.
func (c *Chomper) Speech() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speech()
}

// Face is the character itself.
func (c *Chomper) Face() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.face()
}

// Present returns the face and the speech line as one consistent snapshot, so
// a settle landing between the two reads can't mix states.
func (c *Chomper) Present() (face, speech string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.face(), c.speech()
}

func (c *Chomper) speech() string {
	switch {
	case c.state == Dancing && c.remaining == 0:
		return "All done! Great job! 🎊"
	case c.state == Chomping:
		return "Nom nom! 😋"
	case c.remaining == 0:
		return "Ready for tasks!"
	case c.remaining == 1:
		return "1 task to chomp!"
	default:
		return fmt.Sprintf("%d tasks to chomp!", c.remaining)
	}
}

func (c *Chomper) face() string {
	if c.state == Dancing {
		return "🎉🦖🎉"
	}
	return "🦖"
}
