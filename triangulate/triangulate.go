// Package triangulate splits polygon faces with holes into triangles.
//
// A polygon is projected onto the coordinate plane it is most parallel to,
// its border is brought to counter-clockwise order and its holes to clockwise
// order, each hole is joined to the border by a bridge, and the resulting
// simple polygon is reduced by ear clipping. Triangles refer to the identities
// of the input vertices, and keep the winding of the input border.
package triangulate

import (
	"fmt"
	"math"
	"sort"

	"github.com/chewxy/math32"
	"github.com/flywave/go3d/vec3"

	"github.com/sparkclip/sparkclip"
	"github.com/sparkclip/sparkclip/errors"
)

// Tolerances of the geometric predicates.
const (
	normalEpsilon = 0.00001
	convexEpsilon = 0.0001
	areaEpsilon   = 0.00001
)

var (
	// ErrTooFewVertices is the cause of an Error for a border with fewer than
	// three vertices.
	ErrTooFewVertices = errors.New("fewer than 3 vertices")
	// ErrNoEar is the cause of an Error for a polygon with no clippable ear.
	ErrNoEar = errors.New("no ear found")
	// ErrNoBridge is the cause of an Error for a hole that could not be
	// joined to the border.
	ErrNoBridge = errors.New("hole does not face the border")
)

// Error is returned when a polygon cannot be triangulated. It matches
// errors.ErrDegenerateGeometry.
type Error struct {
	// Remaining is the number of vertices left in the polygon when
	// triangulation stopped.
	Remaining int
	Cause     error
}

func (err *Error) Error() string {
	return fmt.Sprintf("cannot triangulate: %s (%d vertices remain)", err.Cause, err.Remaining)
}

func (err *Error) Unwrap() error {
	return err.Cause
}

func (err *Error) Is(target error) bool {
	return target == errors.ErrDegenerateGeometry
}

// Point is a polygon vertex.
type Point struct {
	// ID identifies the vertex in triangles.
	ID  uint32
	Pos vec3.T
}

// Triangle holds the IDs of three vertices.
type Triangle [3]uint32

// vertex is a projected point. Bridging inserts the same vertex more than
// once, so vertices are compared by identity.
type vertex struct {
	x, y float64
	id   uint32
}

// Polygon triangulates the polygon with the given border and holes. Holes
// with fewer than three vertices are ignored. Either every triangle is
// returned, or an *Error.
func Polygon(border []Point, holes [][]Point) ([]Triangle, error) {
	if len(border) < 3 {
		return nil, &Error{Remaining: len(border), Cause: ErrTooFewVertices}
	}
	a, b := projection(border)

	verts := project(border, a, b)
	reversed := false
	if signedArea(verts) < 0 {
		reverse(verts)
		reversed = true
	}

	var hs [][]*vertex
	for _, hole := range holes {
		if len(hole) < 3 {
			continue
		}
		h := project(hole, a, b)
		if signedArea(h) > 0 {
			reverse(h)
		}
		hs = append(hs, h)
	}

	verts, err := mergeHoles(verts, hs)
	if err != nil {
		return nil, err
	}
	tris, err := clip(verts)
	if err != nil {
		return nil, err
	}
	if reversed {
		for i := range tris {
			tris[i][0], tris[i][2] = tris[i][2], tris[i][0]
		}
	}
	return tris, nil
}

// Face triangulates face f of g. Triangles refer to indices of g.Vertices.
func Face(g *sparkclip.GeoData, f *sparkclip.Face) ([]Triangle, error) {
	border, err := loopPoints(g, f.Border)
	if err != nil {
		return nil, err
	}
	holes := make([][]Point, 0, len(f.Inner))
	for _, loop := range f.Inner {
		hole, err := loopPoints(g, loop)
		if err != nil {
			return nil, err
		}
		holes = append(holes, hole)
	}
	return Polygon(border, holes)
}

func loopPoints(g *sparkclip.GeoData, loop sparkclip.EdgeLoop) ([]Point, error) {
	ids, err := g.LoopVertices(loop)
	if err != nil {
		return nil, err
	}
	points := make([]Point, len(ids))
	for i, id := range ids {
		points[i] = Point{ID: id, Pos: g.Vertices[id]}
	}
	return points, nil
}

// projection returns the two coordinate axes of the plane the border is most
// parallel to. The normal is estimated from the first triple of consecutive
// vertices that are not collinear.
func projection(border []Point) (a, b int) {
	n := len(border)
	var normal vec3.T
	for i := 0; i < n; i++ {
		v1 := border[(i-1+n)%n].Pos
		v2 := border[i].Pos
		v3 := border[(i+1)%n].Pos
		e1 := vec3.Sub(&v1, &v2)
		e2 := vec3.Sub(&v3, &v2)
		c := vec3.Cross(&e1, &e2)
		normal = vec3.T{math32.Abs(c[0]), math32.Abs(c[1]), math32.Abs(c[2])}
		if normal[0] > normalEpsilon || normal[1] > normalEpsilon || normal[2] > normalEpsilon {
			break
		}
	}
	switch {
	case normal[0] >= normal[1] && normal[0] >= normal[2]:
		return 2, 1
	case normal[1] > normal[0] && normal[1] >= normal[2]:
		return 0, 2
	default:
		return 0, 1
	}
}

func project(points []Point, a, b int) []*vertex {
	verts := make([]*vertex, len(points))
	for i, p := range points {
		verts[i] = &vertex{x: float64(p.Pos[a]), y: float64(p.Pos[b]), id: p.ID}
	}
	return verts
}

// signedArea returns twice the signed area of a polygon. It is positive for
// counter-clockwise order.
func signedArea(verts []*vertex) float64 {
	var area float64
	for i, v := range verts {
		w := verts[(i+1)%len(verts)]
		area += v.x*w.y - w.x*v.y
	}
	return area
}

func reverse(verts []*vertex) {
	for i, j := 0, len(verts)-1; i < j; i, j = i+1, j-1 {
		verts[i], verts[j] = verts[j], verts[i]
	}
}

// neighbors returns the vertex at i and its two neighbors.
func neighbors(verts []*vertex, i int) (prev, v, next *vertex) {
	n := len(verts)
	return verts[(i+n-1)%n], verts[i], verts[(i+1)%n]
}

func isConvex(v1, v2, v3 *vertex) bool {
	return (v2.x-v1.x)*(v3.y-v1.y)-(v2.y-v1.y)*(v3.x-v1.x) >= convexEpsilon
}

// pointInTriangle reports whether p is strictly inside the counter-clockwise
// triangle v1 v2 v3. Slivers contain nothing.
func pointInTriangle(p, v1, v2, v3 *vertex) bool {
	area := 0.5 * (-v2.y*v3.x + v1.y*(-v2.x+v3.x) + v1.x*(v2.y-v3.y) + v2.x*v3.y)
	if area <= areaEpsilon {
		return false
	}
	s := 1 / (2 * area) * (v1.y*v3.x - v1.x*v3.y + (v3.y-v1.y)*p.x + (v1.x-v3.x)*p.y)
	t := 1 / (2 * area) * (v1.x*v2.y - v1.y*v2.x + (v1.y-v2.y)*p.x + (v2.x-v1.x)*p.y)
	return s > 0 && t > 0 && 1-s-t > 0
}

func isEar(verts []*vertex, v1, v2, v3 *vertex) bool {
	if !isConvex(v1, v2, v3) {
		return false
	}
	for _, v := range verts {
		if v == v1 || v == v2 || v == v3 {
			continue
		}
		if pointInTriangle(v, v1, v2, v3) {
			return false
		}
	}
	return true
}

// quality returns the smallest absolute cosine between the edges of a
// triangle.
func quality(v1, v2, v3 *vertex) float64 {
	unit := func(x, y float64) (float64, float64) {
		m := math.Sqrt(x*x + y*y)
		return x / m, y / m
	}
	e1x, e1y := unit(v1.x-v2.x, v1.y-v2.y)
	e2x, e2y := unit(v1.x-v3.x, v1.y-v3.y)
	e3x, e3y := unit(v2.x-v3.x, v2.y-v3.y)
	q := math.Abs(e1x*e2x + e1y*e2y)
	q = math.Min(q, math.Abs(e1x*e3x+e1y*e3y))
	q = math.Min(q, math.Abs(e3x*e2x+e3y*e2y))
	return q
}

// clip reduces a simple counter-clockwise polygon to triangles.
func clip(verts []*vertex) ([]Triangle, error) {
	tris := make([]Triangle, 0, len(verts)-2)
	for len(verts) > 3 {
		best := -1
		var bestQuality float64
		for i := range verts {
			v1, v2, v3 := neighbors(verts, i)
			if !isEar(verts, v1, v2, v3) {
				continue
			}
			if q := quality(v1, v2, v3); best < 0 || q > bestQuality {
				best = i
				bestQuality = q
			}
		}
		if best < 0 {
			return nil, &Error{Remaining: len(verts), Cause: ErrNoEar}
		}
		v1, v2, v3 := neighbors(verts, best)
		tris = append(tris, Triangle{v1.id, v2.id, v3.id})
		verts = append(verts[:best], verts[best+1:]...)
	}
	tris = append(tris, Triangle{verts[0].id, verts[1].id, verts[2].id})
	return tris, nil
}

func maxX(hole []*vertex) float64 {
	return hole[maxXVertex(hole)].x
}

// maxXVertex returns the index of the first vertex with the greatest x.
func maxXVertex(hole []*vertex) int {
	m := 0
	for i := 1; i < len(hole); i++ {
		if hole[i].x > hole[m].x {
			m = i
		}
	}
	return m
}

// mergeHoles joins each hole to the border, rightmost hole first. Each join
// inserts the full hole cycle after a visible border vertex, followed by
// copies of the hole's rightmost vertex and of the border vertex.
func mergeHoles(border []*vertex, holes [][]*vertex) ([]*vertex, error) {
	sort.SliceStable(holes, func(i, j int) bool {
		return maxX(holes[i]) > maxX(holes[j])
	})
	for _, hole := range holes {
		m := maxXVertex(hole)
		at, err := bridge(border, hole[m])
		if err != nil {
			return nil, err
		}
		merged := make([]*vertex, 0, len(border)+len(hole)+2)
		merged = append(merged, border[:at+1]...)
		for i := range hole {
			merged = append(merged, hole[(i+m)%len(hole)])
		}
		merged = append(merged, hole[m], border[at])
		merged = append(merged, border[at+1:]...)
		border = merged
	}
	return border, nil
}

// bridge returns the index of a border vertex visible from h, the rightmost
// vertex of a hole.
func bridge(border []*vertex, h *vertex) (int, error) {
	n := len(border)
	found := false
	var tMin float64
	var hit1, hit2 int
	for i := 0; i < n; i++ {
		v1 := border[i]
		v2 := border[(i+1)%n]
		if v1.y > h.y || v2.y < h.y {
			continue
		}
		i1, i2 := i, (i+1)%n
		var t float64
		if v2.y-v1.y != 0 {
			t = (v1.x - h.x) + (h.y-v1.y)*(v2.x-v1.x)/(v2.y-v1.y)
			if v1.y == h.y {
				i2 = i1
			} else if v2.y == h.y {
				i1 = i2
			}
		} else if v1.x < v2.x {
			t = v1.x - h.x
			i2 = i1
		} else {
			t = v2.x - h.x
			i1 = i2
		}
		if t >= 0 && (!found || t < tMin) {
			found = true
			tMin = t
			hit1, hit2 = i1, i2
		}
	}
	if !found {
		return 0, &Error{Remaining: n, Cause: ErrNoBridge}
	}
	if hit1 == hit2 {
		return hit1, nil
	}

	intersect := &vertex{x: h.x + tMin, y: h.y}
	p := hit2
	if border[hit1].x > border[hit2].x {
		p = hit1
	}
	point := border[p]
	at := p

	// Prefer a reflex vertex inside the triangle formed by h, the
	// intersection and the edge endpoint, as it may hide the endpoint.
	dx, dy := point.x-h.x, point.y-h.y
	bestLength := dx*dx + dy*dy
	bestCos := math.Sqrt(dx) / bestLength
	for i := 0; i < n; i++ {
		if i == p {
			continue
		}
		v1, v2, v3 := neighbors(border, i)
		if isConvex(v1, v2, v3) || !pointInTriangle(v2, h, intersect, point) {
			continue
		}
		dx, dy := v2.x-h.x, v2.y-h.y
		length := dx*dx + dy*dy
		cos := math.Sqrt(dx) / length
		if cos > bestCos || (cos == bestCos && length < bestLength) {
			bestCos = cos
			bestLength = length
			at = i
		}
	}
	return at, nil
}
