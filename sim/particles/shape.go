package particles

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Shape selects the closed-form generator for base positions.
type Shape uint8

const (
	Heart Shape = iota
	Sphere
	Flower
	Firework
	Custom

	numShapes
)

// ErrUnknownShape is returned by ParseShape for names outside the closed set.
var ErrUnknownShape = errors.New("unknown shape")

var shapeNames = [numShapes]string{"heart", "sphere", "flower", "firework", "custom"}

func (s Shape) String() string {
	if s < numShapes {
		return shapeNames[s]
	}
	return fmt.Sprintf("shape(%d)", uint8(s))
}

// ParseShape maps a shape name (case-insensitive) to a Shape.
func ParseShape(name string) (Shape, error) {
	for i, n := range shapeNames {
		if strings.EqualFold(n, name) {
			return Shape(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownShape, name)
}

// ShapeFunc returns the base position of particle i of n. rng supplies the
// scatter for shapes that are not purely parametric.
type ShapeFunc func(i, n int, rng *rand.Rand) mgl32.Vec3

var shapeTable = [numShapes]ShapeFunc{
	Heart:    heartPoint,
	Sphere:   spherePoint,
	Flower:   flowerPoint,
	Firework: fireworkPoint,
	Custom:   ringPoint,
}

const (
	heartScale     = 0.12
	sphereRadius   = 2.0
	flowerPetals   = 5
	flowerRadius   = 2.2
	fireworkRays   = 12
	fireworkLength = 3.0
	ringRadius     = 2.0
	ringTube       = 0.35
)

func frac(i, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(i) / float64(n)
}

// heartPoint samples the classic parametric heart curve with a thin z scatter.
func heartPoint(i, n int, rng *rand.Rand) mgl32.Vec3 {
	t := 2 * math.Pi * frac(i, n)
	s := math.Sin(t)
	x := 16 * s * s * s
	y := 13*math.Cos(t) - 5*math.Cos(2*t) - 2*math.Cos(3*t) - math.Cos(4*t)
	z := (rng.Float64()*2 - 1) * 0.3
	return mgl32.Vec3{float32(x * heartScale), float32(y * heartScale), float32(z)}
}

// spherePoint scatters uniformly over a sphere shell.
func spherePoint(_, _ int, rng *rand.Rand) mgl32.Vec3 {
	u := rng.Float64()*2 - 1
	phi := rng.Float64() * 2 * math.Pi
	r := math.Sqrt(1 - u*u)
	return mgl32.Vec3{
		float32(sphereRadius * r * math.Cos(phi)),
		float32(sphereRadius * r * math.Sin(phi)),
		float32(sphereRadius * u),
	}
}

// flowerPoint distributes by petal angle on a rose curve.
func flowerPoint(i, n int, rng *rand.Rand) mgl32.Vec3 {
	theta := 2 * math.Pi * frac(i, n)
	r := flowerRadius * math.Abs(math.Cos(flowerPetals*theta/2)) * (0.6 + 0.4*rng.Float64())
	z := (rng.Float64()*2 - 1) * 0.2
	return mgl32.Vec3{float32(r * math.Cos(theta)), float32(r * math.Sin(theta)), float32(z)}
}

// fireworkPoint places particles along rays spread by the golden angle.
func fireworkPoint(i, _ int, rng *rand.Rand) mgl32.Vec3 {
	ray := i % fireworkRays
	y := 1 - 2*(float64(ray)+0.5)/fireworkRays
	r := math.Sqrt(1 - y*y)
	phi := float64(ray) * math.Pi * (3 - math.Sqrt(5))
	dir := mgl32.Vec3{float32(r * math.Cos(phi)), float32(y), float32(r * math.Sin(phi))}
	return dir.Mul(float32(fireworkLength * (0.2 + 0.8*rng.Float64())))
}

// ringPoint fills a torus around the z axis.
func ringPoint(i, n int, rng *rand.Rand) mgl32.Vec3 {
	theta := 2 * math.Pi * frac(i, n)
	phi := rng.Float64() * 2 * math.Pi
	r := ringRadius + ringTube*math.Cos(phi)
	return mgl32.Vec3{
		float32(r * math.Cos(theta)),
		float32(r * math.Sin(theta)),
		float32(ringTube * math.Sin(phi)),
	}
}
