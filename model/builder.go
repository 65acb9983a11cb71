package model

import (
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
)

var defaultColor = mgl32.Vec3{1, 1, 1}

// Builder collects deduplicated vertices and the indices into them.
type Builder struct {
	Vertices []Vertex
	Indices  []uint32
}

// LoadModel decodes a Wavefront OBJ file. A material library next to it with
// the same base name is read when present.
func (b *Builder) LoadModel(path string) error {
	meshFile, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open model")
	}
	defer meshFile.Close()

	var matFile io.Reader = strings.NewReader("")
	if f, err := os.Open(strings.TrimSuffix(path, ".obj") + ".mtl"); err == nil {
		defer f.Close()
		matFile = f
	}

	if err := b.Decode(meshFile, matFile); err != nil {
		return errors.Wrapf(err, "load model %s", path)
	}
	return nil
}

func (b *Builder) Decode(mesh, materials io.Reader) error {
	decoder, err := obj.DecodeReader(mesh, materials)
	if err != nil {
		return errors.Wrap(err, "decode obj")
	}

	b.Vertices = nil
	b.Indices = nil
	uniqueVertices := make(map[Vertex]uint32)

	for _, decodedObj := range decoder.Objects {
		for _, face := range decodedObj.Faces {
			// Fan out polygons into triangles
			for i := 2; i < len(face.Vertices); i++ {
				for _, corner := range []int{0, i - 1, i} {
					if err := b.addVertex(decoder, uniqueVertices, face, corner); err != nil {
						return err
					}
				}
			}
		}
	}

	if len(b.Vertices) < 3 {
		return errors.Newf("model has %d vertices, need at least 3", len(b.Vertices))
	}
	return nil
}

func (b *Builder) addVertex(decoder *obj.Decoder, uniqueVertices map[Vertex]uint32, face obj.Face, corner int) error {
	vertInd := face.Vertices[corner]
	if vertInd < 0 || vertInd*3+2 >= len(decoder.Vertices) {
		return errors.Newf("face references missing vertex %d", vertInd)
	}

	vert := Vertex{
		Position: mgl32.Vec3{
			decoder.Vertices[vertInd*3],
			decoder.Vertices[vertInd*3+1],
			decoder.Vertices[vertInd*3+2],
		},
		Color: defaultColor,
	}

	if corner < len(face.Normals) {
		if normInd := face.Normals[corner]; normInd >= 0 && normInd*3+2 < len(decoder.Normals) {
			vert.Normal = mgl32.Vec3{
				decoder.Normals[normInd*3],
				decoder.Normals[normInd*3+1],
				decoder.Normals[normInd*3+2],
			}
		}
	}

	if corner < len(face.Uvs) {
		if uvInd := face.Uvs[corner]; uvInd >= 0 && uvInd*2+1 < len(decoder.Uvs) {
			vert.UV = mgl32.Vec2{
				decoder.Uvs[uvInd*2],
				decoder.Uvs[uvInd*2+1],
			}
		}
	}

	index, vertexExists := uniqueVertices[vert]
	if !vertexExists {
		index = uint32(len(b.Vertices))
		b.Vertices = append(b.Vertices, vert)
		uniqueVertices[vert] = index
	}

	b.Indices = append(b.Indices, index)
	return nil
}
