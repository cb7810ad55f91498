package render3d

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
)

// MaterialKind selects how a surface is shaded
type MaterialKind uint8

const (
	MaterialLit MaterialKind = iota
	MaterialUnlit
	MaterialEnvMap
)

// Material describes surface shading.
// Lit surfaces use the scene lighting and, with Reflectivity > 0, blend in the
// scene environment. EnvMap surfaces show EnvMap along the reflected view ray.
type Material struct {
	Kind         MaterialKind
	Color        Color3
	Reflectivity float64
	EnvMap       *CubeTexture
}

// Object is a mesh placed in the scene
type Object struct {
	Name string
	Mesh *Mesh3D
	Pose
	Scale    mgl64.Vec3
	Material Material
	Hidden   bool
}

func NewObject(name string, mesh *Mesh3D, mat Material) *Object {
	return &Object{
		Name:     name,
		Mesh:     mesh,
		Pose:     NewPose(mgl64.Vec3{}),
		Scale:    mgl64.Vec3{1, 1, 1},
		Material: mat,
	}
}

// SetRotation sets the orientation from Euler angles
func (o *Object) SetRotation(e Euler) {
	o.Orientation = e.Quat()
}

// Matrix returns the model matrix
func (o *Object) Matrix() mgl64.Mat4 {
	return Compose(o.Position, o.Orientation, o.Scale)
}

// Scene is a flat list of objects plus background and lighting
type Scene struct {
	Objects     []*Object
	Background  Skybox
	Environment Skybox
	Lighting    LightingSetup
	ClearColor  color.NRGBA
}

func NewScene() *Scene {
	return &Scene{
		Lighting:   DefaultLighting(),
		ClearColor: color.NRGBA{0, 0, 0, 255},
	}
}

func (s *Scene) Add(o *Object) {
	s.Objects = append(s.Objects, o)
}

// Find returns the first object with the given name
func (s *Scene) Find(name string) *Object {
	for _, o := range s.Objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}
