// Package assets owns the data behind the renderer's opaque handles. The
// renderer core only ever sees handles plus the AssetResolver boundary;
// loading, naming and lifetime stay on this side.
package assets

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// Registry hands out handles for registered assets and resolves them back.
// Registration and resolution may happen on different goroutines; the frame
// producer resolves while the game thread imports.
type Registry struct {
	mu sync.RWMutex

	nextMesh     metadata.MeshHandle
	nextMaterial metadata.MaterialHandle
	nextTexture  metadata.TextureHandle

	meshes    map[metadata.MeshHandle]*metadata.MeshData
	materials map[metadata.MaterialHandle]*metadata.MaterialData
	shaders   map[string]*metadata.ShaderData
	textures  map[metadata.TextureHandle]image.Image

	meshNames     map[string]metadata.MeshHandle
	materialNames map[string]metadata.MaterialHandle
	textureNames  map[string]metadata.TextureHandle
}

var _ metadata.AssetResolver = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{
		meshes:        make(map[metadata.MeshHandle]*metadata.MeshData),
		materials:     make(map[metadata.MaterialHandle]*metadata.MaterialData),
		shaders:       make(map[string]*metadata.ShaderData),
		textures:      make(map[metadata.TextureHandle]image.Image),
		meshNames:     make(map[string]metadata.MeshHandle),
		materialNames: make(map[string]metadata.MaterialHandle),
		textureNames:  make(map[string]metadata.TextureHandle),
	}
}

// RegisterMesh stores the mesh and returns its handle.
func (r *Registry) RegisterMesh(mesh *metadata.MeshData) metadata.MeshHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextMesh++
	r.meshes[r.nextMesh] = mesh
	if mesh.Name != "" {
		r.meshNames[mesh.Name] = r.nextMesh
	}
	return r.nextMesh
}

// RegisterMaterial stores the material and returns its handle.
func (r *Registry) RegisterMaterial(material *metadata.MaterialData) metadata.MaterialHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextMaterial++
	r.materials[r.nextMaterial] = material
	if material.Name != "" {
		r.materialNames[material.Name] = r.nextMaterial
	}
	return r.nextMaterial
}

// RegisterShader stores shader stages under the shader's name.
func (r *Registry) RegisterShader(shader *metadata.ShaderData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shaders[shader.Name] = shader
}

// RegisterTexture stores the decoded image and returns its handle.
func (r *Registry) RegisterTexture(name string, img image.Image) metadata.TextureHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextTexture++
	r.textures[r.nextTexture] = img
	if name != "" {
		r.textureNames[name] = r.nextTexture
	}
	return r.nextTexture
}

// ImportMesh loads an OBJ model from disk and registers it.
func (r *Registry) ImportMesh(path string) (metadata.MeshHandle, error) {
	mesh, err := loaders.LoadMesh(path)
	if err != nil {
		return 0, err
	}
	core.LogDebug("imported mesh %q (%d vertices, %d indices)", mesh.Name, len(mesh.Vertices), len(mesh.Indices))
	return r.RegisterMesh(mesh), nil
}

// ImportMaterial loads a .lmt material from disk and registers it. A diffuse
// map reference must name a texture imported beforehand.
func (r *Registry) ImportMaterial(path string) (metadata.MaterialHandle, error) {
	material, diffuseMapName, err := loaders.LoadMaterial(path)
	if err != nil {
		return 0, err
	}
	if diffuseMapName != "" {
		handle, ok := r.TextureByName(diffuseMapName)
		if !ok {
			return 0, fmt.Errorf("material %s: diffuse map %q is not imported", path, diffuseMapName)
		}
		material.DiffuseMap = handle
	}
	return r.RegisterMaterial(material), nil
}

// ImportShader loads both stages of a shader and registers them under name.
// Each stage file may be GLSL text or a SPIR-V binary.
func (r *Registry) ImportShader(name, vertexPath, fragmentPath string) error {
	shader := &metadata.ShaderData{Name: name}
	var err error
	shader.VertexSource, shader.VertexSPIRV, err = loaders.LoadShaderStage(vertexPath)
	if err != nil {
		return err
	}
	shader.FragmentSource, shader.FragmentSPIRV, err = loaders.LoadShaderStage(fragmentPath)
	if err != nil {
		return err
	}
	r.RegisterShader(shader)
	return nil
}

// ImportTexture decodes an image from disk and registers it under its
// base name without extension.
func (r *Registry) ImportTexture(path string) (metadata.TextureHandle, error) {
	img, err := loaders.LoadImage(path)
	if err != nil {
		return 0, err
	}
	name := path
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return r.RegisterTexture(name, img), nil
}

// MeshByName returns the handle registered for the named mesh.
func (r *Registry) MeshByName(name string) (metadata.MeshHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.meshNames[name]
	return h, ok
}

// MaterialByName returns the handle registered for the named material.
func (r *Registry) MaterialByName(name string) (metadata.MaterialHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.materialNames[name]
	return h, ok
}

// TextureByName returns the handle registered for the named texture.
func (r *Registry) TextureByName(name string) (metadata.TextureHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.textureNames[name]
	return h, ok
}

func (r *Registry) ResolveMesh(handle metadata.MeshHandle) (*metadata.MeshData, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.meshes[handle]
	return m, ok
}

func (r *Registry) ResolveMaterial(handle metadata.MaterialHandle) (*metadata.MaterialData, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.materials[handle]
	return m, ok
}

func (r *Registry) ResolveShader(name string) (*metadata.ShaderData, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shaders[name]
	return s, ok
}

func (r *Registry) ResolveTexture(handle metadata.TextureHandle) (image.Image, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	img, ok := r.textures[handle]
	return img, ok
}
