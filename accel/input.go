package accel

import (
	"time"

	"github.com/gekko3d/galaxy/core"
	"github.com/go-gl/glfw/v3.3/glfw"
)

const mousePointerID = 0

func (p *Pipeline) attachInput() {
	w := p.Window
	g := p.scene.Gestures

	w.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		p.Resize()
	})

	w.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		x, y := w.GetCursorPos()
		switch action {
		case glfw.Press:
			g.PointerDown(core.PointerEvent{
				ID:      mousePointerID,
				Kind:    core.PointerMouse,
				X:       x,
				Y:       y,
				Primary: true,
				At:      time.Now(),
			})
		case glfw.Release:
			g.PointerUp(mousePointerID)
		}
	})

	w.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		g.PointerMove(core.PointerEvent{ID: mousePointerID, Kind: core.PointerMouse, X: x, Y: y})
	})

	w.SetScrollCallback(func(_ *glfw.Window, xoff, yoff float64) {
		// Scrolling up moves the camera closer.
		g.Wheel(-yoff)
	})

	w.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape, glfw.KeyQ:
			w.SetShouldClose(true)
		case glfw.KeySpace:
			g.DoubleClick()
		}
	})

	w.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		if !focused {
			g.Reset()
		}
	})
}

func (p *Pipeline) detachInput() {
	w := p.Window
	w.SetFramebufferSizeCallback(nil)
	w.SetMouseButtonCallback(nil)
	w.SetCursorPosCallback(nil)
	w.SetScrollCallback(nil)
	w.SetKeyCallback(nil)
	w.SetFocusCallback(nil)
}
