package accel

import "github.com/go-gl/glfw/v3.3/glfw"

// gamepadTilt reads the left stick of the first connected gamepad as a tilt
// sensor. Stick X drives yaw and stick Y drives pitch.
type gamepadTilt struct {
	joy glfw.Joystick
}

func findGamepad() (glfw.Joystick, bool) {
	for joy := glfw.Joystick1; joy <= glfw.JoystickLast; joy++ {
		if joy.Present() && joy.IsGamepad() {
			return joy, true
		}
	}
	return glfw.Joystick1, false
}

// RequestPermission succeeds when a gamepad is connected at the time of the
// request.
func (g *gamepadTilt) RequestPermission() bool {
	joy, ok := findGamepad()
	if ok {
		g.joy = joy
	}
	return ok
}

func (g *gamepadTilt) Read() (gamma, beta float64, ok bool) {
	if !g.joy.IsGamepad() {
		return 0, 0, false
	}
	state := g.joy.GetGamepadState()
	if state == nil {
		return 0, 0, false
	}
	return float64(state.Axes[glfw.AxisLeftX]), float64(state.Axes[glfw.AxisLeftY]), true
}
