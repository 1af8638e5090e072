package engine

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/platform"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/headless"
	"github.com/spaghettifunk/lumen/engine/renderer/opengl"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage Stage
	gameInstance *Game
	isRunning    bool
	isSuspended  bool
	platform     *platform.Platform
	renderer     *renderer.Renderer
	rendererCfg  renderer.Config
	width        uint32
	height       uint32
	clock        *core.Clock
	lastTime     float64
}

func New(g *Game) (*Engine, error) {
	cfg := g.ApplicationConfig
	if cfg == nil {
		return nil, fmt.Errorf("game carries no application config")
	}
	core.SetLogLevel(cfg.logLevel())

	api := platform.APINone
	if cfg.Backend == "opengl" {
		api = platform.APIOpenGL
	}
	p, err := platform.New(api)
	if err != nil {
		return nil, err
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		clock:        core.NewClock(),
		platform:     p,
		isRunning:    true,
		isSuspended:  false,
		width:        cfg.StartWidth,
		height:       cfg.StartHeight,
		lastTime:     0,
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	cfg := e.gameInstance.ApplicationConfig

	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e.onEvent)
	core.EventRegister(core.EVENT_CODE_RESIZED, e.onResized)

	if err := e.platform.Startup(cfg.Name, cfg.StartPosX, cfg.StartPosY, cfg.StartWidth, cfg.StartHeight); err != nil {
		return err
	}
	e.platform.OnResize = func(width, height uint16) {
		core.EventFire(core.EventContext{
			Type: core.EVENT_CODE_RESIZED,
			Data: &core.SystemEvent{WindowWidth: uint32(width), WindowHeight: uint32(height)},
		})
	}

	policy, err := cfg.missingAssetPolicy()
	if err != nil {
		return err
	}

	var backend renderer.Backend
	switch cfg.Backend {
	case "opengl":
		backend = opengl.New(opengl.Config{Present: e.platform.SwapBuffers})
	case "headless":
		backend = headless.New()
	default:
		return fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	e.rendererCfg = renderer.Config{
		AppName:        cfg.Name,
		Width:          cfg.StartWidth,
		Height:         cfg.StartHeight,
		Resolver:       e.gameInstance.Resolver,
		OnMissingAsset: policy,
		FramesInFlight: cfg.FramesInFlight,
		ShaderDir:      cfg.ShaderDir,
	}
	r, err := renderer.New(backend, e.rendererCfg)
	if err != nil {
		return err
	}
	e.renderer = r

	if cfg.RenderPath != "" {
		if err := e.renderer.LoadPathFile(cfg.RenderPath); err != nil {
			return err
		}
	}

	if err := e.gameInstance.FnInitialize(); err != nil {
		return err
	}
	if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
		return err
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning {
		e.platform.PumpMessages()
		if e.platform.ShouldClose() {
			e.isRunning = false
			break
		}

		if e.isSuspended {
			continue
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime

		if err := e.gameInstance.FnUpdate(delta); err != nil {
			core.LogFatal("Game update failed, shutting down.")
			e.isRunning = false
			break
		}

		frame, err := e.gameInstance.FnRender(delta)
		if err != nil {
			core.LogFatal("Game render failed, shutting down.")
			e.isRunning = false
			break
		}

		if err := e.renderer.DrawFrame(frame, delta); err != nil {
			if !e.recoverFrom(err) {
				e.isRunning = false
				break
			}
		}

		e.lastTime = currentTime
	}

	return nil
}

// recoverFrom handles a failed frame. A lost device gets one reinitialize
// attempt; anything else ends the run loop.
func (e *Engine) recoverFrom(err error) bool {
	var lost *core.DeviceLostError
	if !errors.As(err, &lost) {
		core.LogError("frame dispatch failed: %s", err.Error())
		return false
	}

	core.LogWarn("device lost on %s backend, reinitializing", lost.Backend)
	core.EventFire(core.EventContext{Type: core.EVENT_CODE_DEVICE_LOST, Data: lost})

	if rerr := e.renderer.Reinitialize(e.rendererCfg); rerr != nil {
		core.LogError("device recovery failed: %s", rerr.Error())
		return false
	}
	return true
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	e.isRunning = false

	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			return err
		}
	}
	if err := core.EventSystemShutdown(); err != nil {
		return err
	}
	if e.renderer != nil {
		if err := e.renderer.Shutdown(); err != nil {
			return err
		}
	}
	return e.platform.Shutdown()
}

// GetFramebufferSize returns the width and height (in this order)
// of the application framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onEvent(context core.EventContext) {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning = false
	}
}

func (e *Engine) onResized(context core.EventContext) {
	se, ok := context.Data.(*core.SystemEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}

	width := se.WindowWidth
	height := se.WindowHeight
	if width == e.width && height == e.height {
		return
	}
	e.width = width
	e.height = height

	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if err := e.gameInstance.FnOnResize(width, height); err != nil {
		core.LogError(err.Error())
	}
	if err := e.renderer.Resized(uint16(width), uint16(height)); err != nil {
		core.LogError(err.Error())
	}
}
