package accel

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// GLFW is process-global; every open pipeline holds one reference.
var glfwRefs struct {
	sync.Mutex
	n int
}

func acquireGLFW() error {
	glfwRefs.Lock()
	defer glfwRefs.Unlock()
	if glfwRefs.n == 0 {
		if err := glfw.Init(); err != nil {
			return err
		}
	}
	glfwRefs.n++
	return nil
}

func releaseGLFW() {
	glfwRefs.Lock()
	defer glfwRefs.Unlock()
	if glfwRefs.n == 0 {
		return
	}
	glfwRefs.n--
	if glfwRefs.n == 0 {
		glfw.Terminate()
	}
}
