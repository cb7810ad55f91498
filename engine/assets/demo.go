package assets

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/1siamBot/fisheye-engine/engine/core"
	"github.com/1siamBot/fisheye-engine/engine/render3d"
)

// Demo object names
const (
	DemoCube  = "cube"
	DemoTorus = "torus"
)

const orbitRadius = 3

// DefaultSky is the background used until an image is loaded
func DefaultSky() *render3d.GradientSkybox {
	return &render3d.GradientSkybox{
		HorizonColor: render3d.Color3{R: 0.78, G: 0.84, B: 0.9},
		ZenithColor:  render3d.Color3{R: 0.25, G: 0.45, B: 0.8},
		GroundColor:  render3d.Color3{R: 0.35, G: 0.31, B: 0.27},
	}
}

// DemoScene builds a box and a torus knot that orbit the origin, plus the
// animator moving them. Both share a glossy white material.
func DemoScene() (*render3d.Scene, core.Animator) {
	scene := render3d.NewScene()
	sky := DefaultSky()
	scene.Background = sky
	scene.Environment = sky

	glossy := render3d.Material{
		Kind:         render3d.MaterialLit,
		Color:        render3d.White,
		Reflectivity: 0.6,
	}

	cube := render3d.NewObject(DemoCube, render3d.MakeBox(1.5, 1.5, 1.5, render3d.White), glossy)
	torus := render3d.NewObject(DemoTorus, render3d.MakeTorusKnot(1.5, 0.3, 128, 16, 2, 3, render3d.White), glossy)
	scene.Add(cube)
	scene.Add(torus)

	animate := func(elapsed float64) {
		placeOrbiting(cube, elapsed, elapsed)
		placeOrbiting(torus, elapsed+10, elapsed)
	}
	animate(0)
	return scene, animate
}

// placeOrbiting positions o on its orbit at phase t and spins it by spin
func placeOrbiting(o *render3d.Object, t, spin float64) {
	o.Position = mgl64.Vec3{
		math.Cos(t) * orbitRadius,
		math.Sin(t) * orbitRadius,
		math.Sin(t) * orbitRadius,
	}
	o.SetRotation(render3d.Euler{X: spin * 0.2, Y: spin * 0.3})
}
