package loaders

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// LoadMesh parses a Wavefront OBJ file into interleaved vertex data.
// Faces with more than three corners are triangulated as a fan; vertices
// shared across faces are deduplicated by their v/vt/vn index triple.
func LoadMesh(path string) (*metadata.MeshData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var (
		positions []math.Vec3
		normals   []math.Vec3
		texcoords []math.Vec2
	)
	mesh := &metadata.MeshData{
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}
	seen := make(map[[3]int]uint32)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
			}
			positions = append(positions, math.NewVec3(v[0], v[1], v[2]))
		case "vn":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
			}
			normals = append(normals, math.NewVec3(v[0], v[1], v[2]))
		case "vt":
			v, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
			}
			texcoords = append(texcoords, math.Vec2{X: v[0], Y: v[1]})
		case "f":
			corners := fields[1:]
			if len(corners) < 3 {
				return nil, fmt.Errorf("%s:%d: face with %d corners", path, lineNo, len(corners))
			}
			idx := make([]uint32, len(corners))
			for i, corner := range corners {
				index, err := resolveCorner(corner, positions, normals, texcoords, seen, mesh)
				if err != nil {
					return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
				}
				idx[i] = index
			}
			for i := 1; i+1 < len(idx); i++ {
				mesh.Indices = append(mesh.Indices, idx[0], idx[i], idx[i+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(mesh.Vertices) == 0 {
		return nil, fmt.Errorf("%s: no geometry", path)
	}
	return mesh, nil
}

// resolveCorner turns one "v/vt/vn" face corner into a vertex index,
// emitting a new vertex the first time the triple appears.
func resolveCorner(corner string, positions, normals []math.Vec3, texcoords []math.Vec2, seen map[[3]int]uint32, mesh *metadata.MeshData) (uint32, error) {
	parts := strings.Split(corner, "/")
	triple := [3]int{}
	for i := 0; i < len(parts) && i < 3; i++ {
		if parts[i] == "" {
			continue
		}
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return 0, fmt.Errorf("bad face corner %q", corner)
		}
		triple[i] = n
	}

	if index, ok := seen[triple]; ok {
		return index, nil
	}

	vertex := math.Vertex3D{Colour: math.NewVec4(1, 1, 1, 1)}
	pos, err := objIndex(triple[0], len(positions))
	if err != nil {
		return 0, fmt.Errorf("position index in %q: %w", corner, err)
	}
	vertex.Position = positions[pos]

	if triple[1] != 0 {
		ti, err := objIndex(triple[1], len(texcoords))
		if err != nil {
			return 0, fmt.Errorf("texcoord index in %q: %w", corner, err)
		}
		vertex.Texcoord = texcoords[ti]
	}
	if triple[2] != 0 {
		ni, err := objIndex(triple[2], len(normals))
		if err != nil {
			return 0, fmt.Errorf("normal index in %q: %w", corner, err)
		}
		vertex.Normal = normals[ni]
	}

	index := uint32(len(mesh.Vertices))
	mesh.Vertices = append(mesh.Vertices, vertex)
	seen[triple] = index
	return index, nil
}

// objIndex maps a 1-based (possibly negative, end-relative) OBJ index to a
// slice offset.
func objIndex(n, length int) (int, error) {
	switch {
	case n > 0 && n <= length:
		return n - 1, nil
	case n < 0 && -n <= length:
		return length + n, nil
	}
	return 0, fmt.Errorf("index %d out of range (have %d)", n, length)
}

func parseFloats(fields []string, want int) ([]float32, error) {
	if len(fields) < want {
		return nil, fmt.Errorf("expected %d values, got %d", want, len(fields))
	}
	out := make([]float32, want)
	for i := 0; i < want; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", fields[i])
		}
		out[i] = float32(f)
	}
	return out, nil
}
