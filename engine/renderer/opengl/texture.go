package opengl

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	xdraw "golang.org/x/image/draw"

	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// texture returns the resident texture object for a handle, uploading it
// with a full mip pyramid on first use.
func (b *Backend) texture(handle metadata.TextureHandle) (uint32, error) {
	if tex, ok := b.textures[handle]; ok {
		return tex, nil
	}
	img, ok := b.resolver.ResolveTexture(handle)
	if !ok {
		return 0, fmt.Errorf("texture handle %d did not resolve", handle)
	}
	tex := uploadTexture(buildPyramid(img))
	b.textures[handle] = tex
	return tex, nil
}

// buildPyramid generates the mip chain by repeated halving. Catmull-Rom
// gives a decent downscale without ringing on typical material textures.
func buildPyramid(img image.Image) []*image.RGBA {
	base := toRGBA(img)
	pyramid := []*image.RGBA{base}
	nx, ny := base.Bounds().Dx(), base.Bounds().Dy()
	for nx > 1 || ny > 1 {
		nx, ny = max(nx/2, 1), max(ny/2, 1)
		level := image.NewRGBA(image.Rect(0, 0, nx, ny))
		xdraw.CatmullRom.Scale(level, level.Bounds(), pyramid[len(pyramid)-1], pyramid[len(pyramid)-1].Bounds(), xdraw.Src, nil)
		pyramid = append(pyramid, level)
	}
	return pyramid
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	rgba := image.NewRGBA(img.Bounds())
	xdraw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, xdraw.Src)
	return rgba
}

func uploadTexture(pyramid []*image.RGBA) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)

	for level, rgba := range pyramid {
		nx, ny := rgba.Bounds().Dx(), rgba.Bounds().Dy()
		gl.TexImage2D(gl.TEXTURE_2D, int32(level), gl.RGBA, int32(nx), int32(ny), 0, gl.RGBA,
			gl.UNSIGNED_BYTE, unsafe.Pointer(&rgba.Pix[0]))
	}

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}
