package platform

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/spaghettifunk/lumen/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// GraphicsAPI selects which client API the window is created for.
type GraphicsAPI int

const (
	// APINone creates a window with no client API, as Vulkan requires.
	APINone GraphicsAPI = iota
	// APIOpenGL creates a 4.1 core profile context and makes it current.
	APIOpenGL
)

type Platform struct {
	Window *glfw.Window
	api    GraphicsAPI

	// OnResize fires from the framebuffer size callback.
	OnResize func(width, height uint16)
}

func New(api GraphicsAPI) (*Platform, error) {
	return &Platform{api: api}, nil
}

func (p *Platform) Startup(applicationName string, x uint32, y uint32, width uint32, height uint32) error {
	if err := glfw.Init(); err != nil {
		core.LogFatal("failed to initialize glfw: %s", err)
		return err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	switch p.api {
	case APIOpenGL:
		glfw.WindowHint(glfw.ContextVersionMajor, 4)
		glfw.WindowHint(glfw.ContextVersionMinor, 1)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	default:
		glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.
	}

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		core.LogFatal("failed to create window: %s", err)
		return err
	}
	p.Window = window

	if p.api == APIOpenGL {
		p.Window.MakeContextCurrent()
		glfw.SwapInterval(1)
	}

	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetPos(int(x), int(y))
	p.Window.Show()

	return nil
}

func (p *Platform) Shutdown() error {
	glfw.Terminate()
	return nil
}

func (p *Platform) PumpMessages() {
	glfw.PollEvents()
}

// ShouldClose reports whether the user asked the window to close.
func (p *Platform) ShouldClose() bool {
	return p.Window.ShouldClose()
}

// SwapBuffers presents the back buffer. Only meaningful with APIOpenGL.
func (p *Platform) SwapBuffers() {
	p.Window.SwapBuffers()
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	if p.OnResize != nil {
		p.OnResize(uint16(width), uint16(height))
	}
}
