package navigator

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/latim/voxnav/logging"
	"github.com/latim/voxnav/spatialmath"
	"github.com/latim/voxnav/voxel"
)

func TestTrackThroughNeighbours(t *testing.T) {
	r := makeScene(t)
	steps, err := r.Track(context.Background(), r3.Vector{X: -5, Y: 0.5}, r3.Vector{X: 2}, math.Inf(1))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, steps, test.ShouldHaveLength, 5)

	test.That(t, steps[0].State, test.ShouldResemble, Outside)
	test.That(t, steps[0].Segment.Entry, test.ShouldEqual, 0.0)
	test.That(t, steps[0].Segment.Exit, test.ShouldAlmostEqual, 4.0)
	test.That(t, steps[0].Material, test.ShouldEqual, NoMaterial)

	want := []struct {
		state    State
		vox      voxel.Index
		exit     float64
		material int
	}{
		{InsideSolid(0), voxel.Index{X: 0, Y: 1}, 5, 12},
		{InsideSolid(0), voxel.Index{X: 1, Y: 1}, 6, 13},
		{InsideSolid(1), voxel.Index{X: 0, Y: 1}, 7, NoMaterial},
		{InsideSolid(1), voxel.Index{X: 1, Y: 1}, 8, NoMaterial},
	}
	for i, w := range want {
		step := steps[i+1]
		test.That(t, step.State, test.ShouldResemble, w.state)
		test.That(t, step.Segment.Voxel, test.ShouldResemble, w.vox)
		test.That(t, step.Segment.Exit, test.ShouldAlmostEqual, w.exit, 1e-5)
		test.That(t, step.Segment.Length, test.ShouldAlmostEqual, 1.0, 1e-5)
		test.That(t, step.Material, test.ShouldEqual, w.material)
	}

	test.That(t, steps[0].IsVacuum(), test.ShouldBeTrue)
	test.That(t, steps[0].Segment.Flat, test.ShouldEqual, -1)
	for i := 1; i < len(steps); i++ {
		test.That(t, steps[i].IsVacuum(), test.ShouldBeFalse)
		// solids are walked from the face itself, so steps are contiguous
		test.That(t, steps[i].Segment.Entry, test.ShouldAlmostEqual, steps[i-1].Segment.Exit, 1e-12)
	}
}

func TestTrackRotatedChord(t *testing.T) {
	r := NewRegistry(logging.NewTestLogger(t))
	pose := spatialmath.NewPose(r3.Vector{}, &spatialmath.R4AA{Theta: math.Pi / 4, RZ: 1})
	s, err := voxel.NewSolid(0, [3]int{10, 10, 10}, r3.Vector{X: 1, Y: 1, Z: 1}, pose)
	test.That(t, err, test.ShouldBeNil)
	_, err = r.Register(s)
	test.That(t, err, test.ShouldBeNil)

	for _, y := range []float64{0, 1.25, -3.3} {
		steps, err := r.Track(context.Background(), r3.Vector{X: -20, Y: y, Z: 0.2}, r3.Vector{X: 1}, math.Inf(1))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, steps[0].IsVacuum(), test.ShouldBeTrue)

		var inside float64
		for _, step := range steps[1:] {
			test.That(t, step.IsVacuum(), test.ShouldBeFalse)
			inside += step.Segment.Length
		}
		// the square's diagonal is 10*sqrt(2); a ray along x at height y cuts it to 2*(5*sqrt(2)-|y|)
		chord := 2 * (5*math.Sqrt2 - math.Abs(y))
		test.That(t, inside, test.ShouldAlmostEqual, chord, 1e-9)
		test.That(t, steps[1].Segment.Entry, test.ShouldAlmostEqual, steps[0].Segment.Exit, 1e-12)
		test.That(t, steps[len(steps)-1].Segment.Exit-steps[1].Segment.Entry, test.ShouldAlmostEqual, chord, 1e-9)
	}
}

func TestTrackLimits(t *testing.T) {
	r := makeScene(t)
	origin := r3.Vector{X: -5, Y: 0.5}
	dir := r3.Vector{X: 1}

	steps, err := r.Track(context.Background(), origin, dir, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, steps, test.ShouldHaveLength, 1)
	test.That(t, steps[0].State.IsOutside(), test.ShouldBeTrue)
	test.That(t, steps[0].Segment.Exit, test.ShouldEqual, 2.0)

	steps, err = r.Track(context.Background(), origin, dir, 5.5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, steps, test.ShouldHaveLength, 3)
	test.That(t, steps[2].Segment.Voxel, test.ShouldResemble, voxel.Index{X: 1, Y: 1})
	test.That(t, steps[2].Segment.Exit, test.ShouldAlmostEqual, 5.5)

	// a finite limit past the last solid ends with a gap step
	steps, err = r.Track(context.Background(), origin, dir, 20)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, steps, test.ShouldHaveLength, 6)
	last := steps[len(steps)-1]
	test.That(t, last.State.IsOutside(), test.ShouldBeTrue)
	test.That(t, last.Segment.Exit, test.ShouldEqual, 20.0)

	steps, err = r.Track(context.Background(), origin, dir, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, steps, test.ShouldBeEmpty)

	_, err = r.Track(context.Background(), origin, dir, -1)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = r.Track(context.Background(), origin, r3.Vector{}, 1)
	test.That(t, errors.Is(err, spatialmath.ErrDegenerateRay), test.ShouldBeTrue)
}

func TestTrackFromInside(t *testing.T) {
	r := makeScene(t)
	steps, err := r.Track(context.Background(), r3.Vector{X: 0.5, Y: -0.5}, r3.Vector{X: -1}, math.Inf(1))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, steps, test.ShouldHaveLength, 2)
	test.That(t, steps[0].Segment.Voxel, test.ShouldResemble, voxel.Index{X: 1, Y: 0})
	test.That(t, steps[0].Segment.Length, test.ShouldAlmostEqual, 0.5)
	test.That(t, steps[0].Material, test.ShouldEqual, 11)
	test.That(t, steps[1].Segment.Voxel, test.ShouldResemble, voxel.Index{X: 0, Y: 0})
	test.That(t, steps[1].Segment.Exit, test.ShouldAlmostEqual, 1.5)
	test.That(t, steps[1].Material, test.ShouldEqual, 10)
}

func TestTrackFromSharedFace(t *testing.T) {
	r := makeScene(t)
	// x = 1 is located in solid 0, which the ray is leaving
	steps, err := r.Track(context.Background(), r3.Vector{X: 1, Y: 0.5}, r3.Vector{X: 1}, math.Inf(1))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, steps, test.ShouldHaveLength, 2)
	for _, step := range steps {
		test.That(t, step.State, test.ShouldResemble, InsideSolid(1))
	}
	test.That(t, steps[0].Segment.Voxel, test.ShouldResemble, voxel.Index{X: 0, Y: 1})
	test.That(t, steps[0].Segment.Entry, test.ShouldAlmostEqual, PushDistance, 1e-12)
	test.That(t, steps[1].Segment.Exit, test.ShouldAlmostEqual, 2.0)
}

func TestTrackCancelled(t *testing.T) {
	r := makeScene(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Track(ctx, r3.Vector{X: -5, Y: 0.5}, r3.Vector{X: 1}, math.Inf(1))
	test.That(t, err, test.ShouldBeError, context.Canceled)
}

func TestTrackBatch(t *testing.T) {
	r := makeScene(t)
	rng := rand.New(rand.NewSource(7))
	rays := make([]Ray, 64)
	for i := range rays {
		rays[i] = Ray{
			Origin:    r3.Vector{X: rng.Float64()*10 - 5, Y: rng.Float64()*4 - 2, Z: rng.Float64()*2 - 1},
			Direction: r3.Vector{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()},
		}
	}

	all, err := r.TrackBatch(context.Background(), rays, math.Inf(1))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, all, test.ShouldHaveLength, len(rays))
	for i, ray := range rays {
		steps, err := r.Track(context.Background(), ray.Origin, ray.Direction, math.Inf(1))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, all[i], test.ShouldResemble, steps)
	}

	points := make([]r3.Vector, len(rays))
	for i, ray := range rays {
		points[i] = ray.Origin
	}
	located, err := r.LocateBatch(context.Background(), points)
	test.That(t, err, test.ShouldBeNil)
	for i, p := range points {
		test.That(t, located[i], test.ShouldEqual, r.Locate(p))
	}

	rays[3].Direction = r3.Vector{}
	_, err = r.TrackBatch(context.Background(), rays, math.Inf(1))
	test.That(t, errors.Is(err, spatialmath.ErrDegenerateRay), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "ray 3")

	empty, err := r.TrackBatch(context.Background(), nil, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, empty, test.ShouldBeEmpty)
}

func TestTrackVoxelLengthsSumToChord(t *testing.T) {
	r := makeScene(t)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		origin := r3.Vector{X: -6, Y: rng.Float64()*1.8 - 0.9, Z: rng.Float64()*0.8 - 0.4}
		target := r3.Vector{X: 6, Y: rng.Float64()*1.8 - 0.9, Z: rng.Float64()*0.8 - 0.4}
		dir := target.Sub(origin)
		steps, err := r.Track(context.Background(), origin, dir, math.Inf(1))
		test.That(t, err, test.ShouldBeNil)

		var inside float64
		for _, step := range steps {
			if !step.State.IsOutside() {
				inside += step.Segment.Length
			}
		}
		// both boxes together are a single 4 wide slab crossed end to end
		unit := dir.Normalize()
		test.That(t, inside, test.ShouldAlmostEqual, 4/unit.X, 1e-9)
	}
}
