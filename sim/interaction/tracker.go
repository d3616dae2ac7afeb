// Package interaction turns pointer and touch events into a world-space
// pointer position and velocity on the z=0 reference plane.
package interaction

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
)

// State of the pointer state machine.
type State uint8

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// EventType enumerates input events.
type EventType uint8

const (
	PointerDown EventType = iota
	PointerMove
	PointerUp
	PointerLeave
	TouchStart
	TouchMove
	TouchEnd
)

var eventNames = [...]string{"pointerdown", "pointermove", "pointerup", "pointerleave", "touchstart", "touchmove", "touchend"}

func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return fmt.Sprintf("event(%d)", uint8(t))
}

// ParseEventType is the inverse of EventType.String.
func ParseEventType(s string) (EventType, error) {
	for i, name := range eventNames {
		if name == s {
			return EventType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown event type %q", s)
}

// Event is a single input event in screen pixels.
type Event struct {
	Type EventType
	X, Y float32
	At   time.Time
}

// Pointer is the latest tracked pointer state.
type Pointer struct {
	Active   bool
	World    mgl32.Vec3
	Velocity mgl32.Vec3 // world units per second
}

// Tracker is the Idle/Active state machine. Only the latest point and
// velocity are kept. Not safe for concurrent use.
type Tracker struct {
	camera   Camera
	state    State
	world    mgl32.Vec3
	velocity mgl32.Vec3
	lastAt   time.Time
}

// NewTracker creates an idle tracker projecting through camera.
func NewTracker(camera Camera) *Tracker {
	return &Tracker{camera: camera}
}

// SetCamera replaces the projection camera, e.g. after a viewport resize.
func (t *Tracker) SetCamera(c Camera) {
	t.camera = c
}

// Camera returns the projection camera.
func (t *Tracker) Camera() Camera {
	return t.camera
}

// State returns the current state.
func (t *Tracker) State() State {
	return t.state
}

// Pointer returns a snapshot of the tracked pointer.
func (t *Tracker) Pointer() Pointer {
	return Pointer{Active: t.state == Active, World: t.world, Velocity: t.velocity}
}

// Handle applies ev. It returns true if ev changed the tracked state.
func (t *Tracker) Handle(ev Event) bool {
	switch ev.Type {
	case PointerDown, TouchStart:
		return t.press(ev)
	case PointerMove, TouchMove:
		return t.move(ev)
	case PointerUp, PointerLeave, TouchEnd:
		return t.release(ev)
	}
	return false
}

// press always enters Active. The world point is kept when the press does
// not project onto the plane.
func (t *Tracker) press(ev Event) bool {
	if t.state != Active {
		logrus.WithField("event", ev.Type).Debug("pointer active")
	}
	t.state = Active
	t.lastAt = ev.At
	if p, ok := t.camera.ProjectToPlane(ev.X, ev.Y); ok {
		t.world = p
	}
	return true
}

// move re-projects while Active; moves while Idle are ignored.
func (t *Tracker) move(ev Event) bool {
	if t.state != Active {
		return false
	}
	p, ok := t.camera.ProjectToPlane(ev.X, ev.Y)
	if !ok {
		return false
	}
	if dt := ev.At.Sub(t.lastAt).Seconds(); dt > 0 {
		t.velocity = p.Sub(t.world).Mul(float32(1 / dt))
	}
	t.world = p
	t.lastAt = ev.At
	return true
}

func (t *Tracker) release(ev Event) bool {
	if t.state == Idle {
		return false
	}
	logrus.WithField("event", ev.Type).Debug("pointer idle")
	t.state = Idle
	return true
}

// Decay scales the velocity by factor. Called every animation frame
// regardless of state so the pointer trails off instead of stopping.
func (t *Tracker) Decay(factor float32) {
	t.velocity = t.velocity.Mul(factor)
}
