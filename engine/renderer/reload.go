package renderer

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/lumen/engine/core"
)

// ShaderWatcher watches shader source directories and accumulates the names
// of changed shaders. The watcher goroutine only records names; eviction of
// the affected pipeline objects happens when the render thread drains the
// set at a frame boundary.
type ShaderWatcher struct {
	fsnotify *fsnotify.Watcher

	mutex   sync.Mutex
	pending map[string]struct{}

	done     chan struct{}
	isClosed bool
}

// NewShaderWatcher watches dir and all sub-directories.
func NewShaderWatcher(dir string) (*ShaderWatcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &ShaderWatcher{
		fsnotify: fsWatch,
		pending:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	if err := w.addRecursive(dir); err != nil {
		fsWatch.Close()
		return nil, err
	}
	go w.start()
	return w, nil
}

func (w *ShaderWatcher) addRecursive(name string) error {
	return filepath.Walk(name, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.fsnotify.Add(path)
		}
		return nil
	})
}

func (w *ShaderWatcher) start() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			name := shaderName(event.Name)
			if name == "" {
				continue
			}
			w.mutex.Lock()
			w.pending[name] = struct{}{}
			w.mutex.Unlock()
			core.LogDebug("shader source changed: %s", name)
		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogWarn("shader watcher: %s", err.Error())
		}
	}
}

// shaderName maps a source file path to the shader name used in pipeline
// keys: the base name without extension ("Builtin.ShaderWorld.frag.glsl"
// and "Builtin.ShaderWorld.vert.glsl" both map to "Builtin.ShaderWorld").
func shaderName(file string) string {
	base := filepath.Base(file)
	for {
		ext := filepath.Ext(base)
		if ext == "" {
			return base
		}
		switch strings.ToLower(ext) {
		case ".glsl", ".spv", ".vert", ".frag":
			base = strings.TrimSuffix(base, ext)
		default:
			return base
		}
	}
}

// Drain returns the accumulated shader names and clears the set.
func (w *ShaderWatcher) Drain() []string {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	names := make([]string, 0, len(w.pending))
	for name := range w.pending {
		names = append(names, name)
	}
	w.pending = make(map[string]struct{})
	return names
}

func (w *ShaderWatcher) Close() {
	if w.isClosed {
		return
	}
	w.isClosed = true
	close(w.done)
	w.fsnotify.Close()
}
