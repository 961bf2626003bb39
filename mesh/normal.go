package mesh

import (
	"github.com/chewxy/math32"
	"github.com/flywave/go3d/vec3"
)

// collinearEpsilon is the largest cross product component for which three
// points are considered collinear.
const collinearEpsilon = 0.00001

// triangleNormal returns the unit normal of the triangle a, b, c. It returns
// false if the points are collinear.
func triangleNormal(a, b, c vec3.T) (vec3.T, bool) {
	e1 := vec3.Sub(&b, &a)
	e2 := vec3.Sub(&c, &a)
	n := vec3.Cross(&e1, &e2)
	if math32.Abs(n[0]) < collinearEpsilon &&
		math32.Abs(n[1]) < collinearEpsilon &&
		math32.Abs(n[2]) < collinearEpsilon {
		return vec3.T{}, false
	}
	mag := math32.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	return vec3.T{n[0] / mag, n[1] / mag, n[2] / mag}, true
}

// polygonNormal returns the normal of the first corner of the polygon whose
// neighbors are not collinear with it.
func polygonNormal(pos []vec3.T) (vec3.T, bool) {
	n := len(pos)
	for i := range pos {
		if normal, ok := triangleNormal(pos[i], pos[(i+n-1)%n], pos[(i+1)%n]); ok {
			return normal, true
		}
	}
	return vec3.T{}, false
}
