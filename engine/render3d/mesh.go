package render3d

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vertex3D is a vertex with position, normal, and color
type Vertex3D struct {
	Pos    mgl64.Vec3
	Normal mgl64.Vec3
	Color  Color3
}

// Triangle3D is three vertices
type Triangle3D struct {
	V [3]Vertex3D
}

// Mesh3D is a collection of triangles
type Mesh3D struct {
	Triangles []Triangle3D
}

func NewMesh() *Mesh3D { return &Mesh3D{} }

func (m *Mesh3D) AddTriangle(v0, v1, v2 Vertex3D) {
	m.Triangles = append(m.Triangles, Triangle3D{V: [3]Vertex3D{v0, v1, v2}})
}

func (m *Mesh3D) AddQuad(v0, v1, v2, v3 Vertex3D) {
	m.AddTriangle(v0, v1, v2)
	m.AddTriangle(v0, v2, v3)
}

// VertexCount returns the number of (unshared) vertices
func (m *Mesh3D) VertexCount() int { return len(m.Triangles) * 3 }

func normalMatrix(m mgl64.Mat4) mgl64.Mat3 {
	m3 := m.Mat3()
	if m3.Det() == 0 {
		return m3
	}
	return m3.Inv().Transpose()
}

// --- Primitive generators ---

func MakeBox(w, h, d float64, c Color3) *Mesh3D {
	m := NewMesh()
	hw, hh, hd := w/2, h/2, d/2

	v := [8]mgl64.Vec3{
		{-hw, -hh, -hd}, {hw, -hh, -hd}, {hw, hh, -hd}, {-hw, hh, -hd},
		{-hw, -hh, hd}, {hw, -hh, hd}, {hw, hh, hd}, {-hw, hh, hd},
	}

	faces := [][4]int{
		{0, 3, 2, 1}, // back (-Z)
		{4, 5, 6, 7}, // front (+Z)
		{4, 7, 3, 0}, // left
		{1, 2, 6, 5}, // right
		{3, 7, 6, 2}, // top
		{4, 0, 1, 5}, // bottom
	}
	normals := []mgl64.Vec3{
		{0, 0, -1}, {0, 0, 1}, {-1, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, -1, 0},
	}

	for fi, f := range faces {
		n := normals[fi]
		m.AddQuad(
			Vertex3D{Pos: v[f[0]], Normal: n, Color: c},
			Vertex3D{Pos: v[f[1]], Normal: n, Color: c},
			Vertex3D{Pos: v[f[2]], Normal: n, Color: c},
			Vertex3D{Pos: v[f[3]], Normal: n, Color: c},
		)
	}
	return m
}

// MakeTorusKnot builds a (p,q) torus knot tube
func MakeTorusKnot(radius, tube float64, tubularSegments, radialSegments, p, q int, c Color3) *Mesh3D {
	m := NewMesh()
	if tubularSegments < 8 {
		tubularSegments = 8
	}
	if radialSegments < 3 {
		radialSegments = 3
	}

	curve := func(u float64) mgl64.Vec3 {
		cu, su := math.Cos(u), math.Sin(u)
		quOverP := float64(q) / float64(p) * u
		cs := math.Cos(quOverP)
		return mgl64.Vec3{
			radius * (2 + cs) * 0.5 * cu,
			radius * (2 + cs) * su * 0.5,
			radius * math.Sin(quOverP) * 0.5,
		}
	}

	rings := make([][]Vertex3D, tubularSegments+1)
	for i := 0; i <= tubularSegments; i++ {
		u := float64(i) / float64(tubularSegments) * float64(p) * 2 * math.Pi
		p1 := curve(u)
		p2 := curve(u + 0.01)
		T := p2.Sub(p1)
		N := p2.Add(p1)
		B := T.Cross(N).Normalize()
		N = B.Cross(T).Normalize()

		rings[i] = make([]Vertex3D, radialSegments+1)
		for j := 0; j <= radialSegments; j++ {
			v := float64(j) / float64(radialSegments) * 2 * math.Pi
			cx := -tube * math.Cos(v)
			cy := tube * math.Sin(v)
			pos := p1.Add(N.Mul(cx)).Add(B.Mul(cy))
			rings[i][j] = Vertex3D{Pos: pos, Normal: pos.Sub(p1).Normalize(), Color: c}
		}
	}

	for i := 0; i < tubularSegments; i++ {
		for j := 0; j < radialSegments; j++ {
			m.AddQuad(rings[i][j], rings[i+1][j], rings[i+1][j+1], rings[i][j+1])
		}
	}
	return m
}

// Icosahedron corners and faces
var (
	icoPhi   = (1 + math.Sqrt(5)) / 2
	icoVerts = []mgl64.Vec3{
		{-1, icoPhi, 0}, {1, icoPhi, 0}, {-1, -icoPhi, 0}, {1, -icoPhi, 0},
		{0, -1, icoPhi}, {0, 1, icoPhi}, {0, -1, -icoPhi}, {0, 1, -icoPhi},
		{icoPhi, 0, -1}, {icoPhi, 0, 1}, {-icoPhi, 0, -1}, {-icoPhi, 0, 1},
	}
	icoFaces = [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
)

// MakeIcosphere builds a unit sphere from an icosahedron whose edges are
// split into detail+1 segments, giving 20*(detail+1)^2 triangles.
func MakeIcosphere(detail int, c Color3) *Mesh3D {
	m := NewMesh()
	if detail < 0 {
		detail = 0
	}
	cols := detail + 1

	vert := func(p mgl64.Vec3) Vertex3D {
		n := p.Normalize()
		return Vertex3D{Pos: n, Normal: n, Color: c}
	}

	for _, f := range icoFaces {
		a, b, cc := icoVerts[f[0]], icoVerts[f[1]], icoVerts[f[2]]

		grid := make([][]mgl64.Vec3, cols+1)
		for i := 0; i <= cols; i++ {
			t := float64(i) / float64(cols)
			aj := a.Add(cc.Sub(a).Mul(t))
			bj := b.Add(cc.Sub(b).Mul(t))
			rows := cols - i
			grid[i] = make([]mgl64.Vec3, rows+1)
			for j := 0; j <= rows; j++ {
				if rows == 0 {
					grid[i][j] = aj
					continue
				}
				grid[i][j] = aj.Add(bj.Sub(aj).Mul(float64(j) / float64(rows)))
			}
		}

		for i := 0; i < cols; i++ {
			for j := 0; j < 2*(cols-i)-1; j++ {
				k := j / 2
				if j%2 == 0 {
					m.AddTriangle(vert(grid[i][k+1]), vert(grid[i+1][k]), vert(grid[i][k]))
				} else {
					m.AddTriangle(vert(grid[i][k+1]), vert(grid[i+1][k+1]), vert(grid[i+1][k]))
				}
			}
		}
	}
	return m
}

// MakeSphereCap builds the part of a unit sphere whose points lie within
// maxPolar radians of +Z, as rings around the Z axis.
func MakeSphereCap(maxPolar float64, rings, segments int, c Color3) *Mesh3D {
	m := NewMesh()
	if rings < 1 {
		rings = 1
	}
	if segments < 8 {
		segments = 8
	}

	point := func(ring, seg int) Vertex3D {
		theta := maxPolar * float64(ring) / float64(rings)
		phi := 2 * math.Pi * float64(seg) / float64(segments)
		p := mgl64.Vec3{
			math.Sin(theta) * math.Cos(phi),
			math.Sin(theta) * math.Sin(phi),
			math.Cos(theta),
		}
		return Vertex3D{Pos: p, Normal: p, Color: c}
	}

	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			if r == 0 {
				m.AddTriangle(point(0, 0), point(1, s), point(1, s+1))
				continue
			}
			m.AddQuad(point(r, s), point(r+1, s), point(r+1, s+1), point(r, s+1))
		}
	}
	return m
}
