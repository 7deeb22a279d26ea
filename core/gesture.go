package core

import (
	"math"
	"time"
)

type GestureState int

const (
	GestureIdle GestureState = iota
	GestureDrag
	GesturePinch
)

func (s GestureState) String() string {
	switch s {
	case GestureDrag:
		return "drag"
	case GesturePinch:
		return "pinch"
	default:
		return "idle"
	}
}

// PointerEvent is a host pointer sample in canvas pixels. A zero At disables
// double-click detection for the event.
type PointerEvent struct {
	ID      int
	Kind    PointerKind
	X, Y    float64
	Primary bool
	At      time.Time
}

const (
	DefaultWheelStep         = 0.25
	DefaultDoubleClickWindow = 300 * time.Millisecond
	doubleClickSlop          = 6.0
)

type pointer struct {
	kind PointerKind
	x, y float64
}

// Gestures turns pointer, wheel and double-click input into camera, pulse and
// motion changes.
//
//	Idle --down--> Drag --down--> Pinch
//	Drag --up--> Idle (inertia)  Pinch --up--> Drag (one left) or Idle
type Gestures struct {
	WheelStep         float64
	DoubleClickWindow time.Duration
	// TiltOptIn makes the primary pointer-down request tilt access.
	TiltOptIn bool

	rig    *CameraRig
	pulses *Pulses
	motion *Motion

	state    GestureState
	pointers map[int]pointer
	order    []int
	dragID   int
	pinchA   int
	pinchB   int
	baseDist float64

	lastDown  time.Time
	lastDownX float64
	lastDownY float64
}

func NewGestures(rig *CameraRig, pulses *Pulses, motion *Motion) *Gestures {
	return &Gestures{
		WheelStep:         DefaultWheelStep,
		DoubleClickWindow: DefaultDoubleClickWindow,
		rig:               rig,
		pulses:            pulses,
		motion:            motion,
		pointers:          make(map[int]pointer),
	}
}

func (g *Gestures) State() GestureState { return g.state }

func (g *Gestures) Pointers() int { return len(g.pointers) }

func (g *Gestures) PointerDown(ev PointerEvent) {
	if _, dup := g.pointers[ev.ID]; dup {
		g.PointerMove(ev)
		return
	}
	first := len(g.pointers) == 0
	g.pointers[ev.ID] = pointer{kind: ev.Kind, x: ev.X, y: ev.Y}
	g.order = append(g.order, ev.ID)

	if ev.Primary || first {
		g.primaryDown(ev)
	}

	switch len(g.pointers) {
	case 1:
		g.enterDrag(ev.ID)
	case 2:
		g.enterPinch()
	}
}

func (g *Gestures) primaryDown(ev PointerEvent) {
	if g.pulses != nil {
		g.pulses.Emit()
	}
	if g.TiltOptIn && g.rig.TiltPermission() == TiltUnrequested {
		g.rig.RequestTiltPermission()
	}
	if ev.At.IsZero() {
		return
	}
	if !g.lastDown.IsZero() &&
		ev.At.Sub(g.lastDown) <= g.DoubleClickWindow &&
		math.Hypot(ev.X-g.lastDownX, ev.Y-g.lastDownY) <= doubleClickSlop {
		g.DoubleClick()
		g.lastDown = time.Time{}
		return
	}
	g.lastDown, g.lastDownX, g.lastDownY = ev.At, ev.X, ev.Y
}

func (g *Gestures) enterDrag(id int) {
	g.state = GestureDrag
	g.dragID = id
	g.rig.SetPointerHeld(true)
}

func (g *Gestures) enterPinch() {
	g.state = GesturePinch
	g.pinchA, g.pinchB = g.order[0], g.order[1]
	g.baseDist = g.pinchDistance()
	g.rig.BeginPinch()
	g.rig.SetPointerHeld(true)
}

func (g *Gestures) pinchDistance() float64 {
	a, b := g.pointers[g.pinchA], g.pointers[g.pinchB]
	return math.Hypot(a.x-b.x, a.y-b.y)
}

func (g *Gestures) PointerMove(ev PointerEvent) {
	prev, ok := g.pointers[ev.ID]
	if !ok {
		return
	}
	g.pointers[ev.ID] = pointer{kind: prev.kind, x: ev.X, y: ev.Y}

	switch g.state {
	case GestureDrag:
		if ev.ID == g.dragID {
			g.rig.ApplyDrag(ev.X-prev.x, ev.Y-prev.y, prev.kind)
		}
	case GesturePinch:
		if ev.ID != g.pinchA && ev.ID != g.pinchB {
			return
		}
		dist := g.pinchDistance()
		if g.baseDist <= 0 {
			// Coincident touch-down: the first separation becomes the baseline.
			if dist > 0 {
				g.baseDist = dist
				g.rig.BeginPinch()
			}
			return
		}
		g.rig.ApplyPinchRatio(dist / g.baseDist)
	}
}

func (g *Gestures) PointerUp(id int) { g.release(id) }

func (g *Gestures) PointerCancel(id int) { g.release(id) }

func (g *Gestures) release(id int) {
	if _, ok := g.pointers[id]; !ok {
		return
	}
	delete(g.pointers, id)
	for i, v := range g.order {
		if v == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}

	switch len(g.pointers) {
	case 0:
		g.state = GestureIdle
		g.rig.SetPointerHeld(false)
	case 1:
		if g.state == GesturePinch {
			// The survivor's stored position is the new drag origin.
			g.rig.StopInertia()
		}
		g.enterDrag(g.order[0])
	default:
		if id == g.pinchA || id == g.pinchB {
			g.enterPinch()
		}
	}
}

// Reset forgets every pointer, as on focus loss.
func (g *Gestures) Reset() {
	clear(g.pointers)
	g.order = g.order[:0]
	g.state = GestureIdle
	g.rig.SetPointerHeld(false)
}

// Wheel zooms by delta notches; positive moves the camera away.
func (g *Gestures) Wheel(delta float64) {
	g.rig.ApplyZoom(delta * g.WheelStep)
}

func (g *Gestures) DoubleClick() {
	if g.motion != nil {
		g.motion.Toggle()
	}
}
