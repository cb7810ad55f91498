package render3d

import "github.com/go-gl/mathgl/mgl64"

// Skybox returns the color seen along a world direction
type Skybox interface {
	Sample(dir mgl64.Vec3) Color3
}

// SolidSkybox is a single color in every direction
type SolidSkybox struct {
	Color Color3
}

func (s *SolidSkybox) Sample(mgl64.Vec3) Color3 {
	return s.Color
}

// GradientSkybox blends horizon to zenith above, flat ground below
type GradientSkybox struct {
	HorizonColor, ZenithColor, GroundColor Color3
}

func (s *GradientSkybox) Sample(dir mgl64.Vec3) Color3 {
	d := dir.Normalize()
	up := d.Dot(AxisY)
	if up < 0 {
		return s.GroundColor
	}
	return s.HorizonColor.Lerp(s.ZenithColor, up)
}
