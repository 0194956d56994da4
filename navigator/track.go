package navigator

import (
	"context"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/latim/voxnav/spatialmath"
	"github.com/latim/voxnav/utils"
	"github.com/latim/voxnav/voxel"
)

// Step is one straight piece of a tracked ray: the gap between two solids, or one voxel of a
// solid. Segment distances are measured from the ray origin. For a vacuum step Segment.Voxel is
// meaningless and Segment.Flat is -1; use IsVacuum.
type Step struct {
	State    State
	Segment  voxel.Segment
	Material int
}

// IsVacuum reports whether the step lies outside every solid.
func (s Step) IsVacuum() bool {
	return s.State.IsOutside()
}

// Ray is an origin and a direction.
type Ray struct {
	Origin    r3.Vector
	Direction r3.Vector
}

// Track follows a ray through the scene up to maxDistance, recording every voxel it crosses and
// every gap between solids. Pass math.Inf(1) to follow it until it leaves the last solid.
//
// Each solid is walked from the point where the ray reaches it, so the voxel lengths inside a
// solid add up to its chord. PushDistance is only used to decide which solid comes next.
func (r *Registry) Track(ctx context.Context, origin, dir r3.Vector, maxDistance float64) ([]Step, error) {
	unit, err := spatialmath.NormalizeDirection(dir)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(maxDistance) || maxDistance < 0 {
		return nil, errors.Errorf("invalid track distance %v", maxDistance)
	}

	var steps []Step
	// from is where the next step starts; t is the point geometry is queried from.
	from, t := 0.0, 0.0
	state := r.StateAt(origin)
	for from < maxDistance {
		if err := ctx.Err(); err != nil {
			return steps, err
		}
		p := origin.Add(unit.Mul(t))

		if state.IsOutside() {
			b := r.distanceToIn(p, unit)
			if b.Kind == NoBoundary {
				if !math.IsInf(maxDistance, 1) {
					steps = append(steps, vacuumStep(from, maxDistance))
				}
				break
			}
			enter := t + b.Distance
			if enter >= maxDistance {
				steps = append(steps, vacuumStep(from, maxDistance))
				break
			}
			if enter > from {
				steps = append(steps, vacuumStep(from, enter))
				from = enter
			}
			// walk the solid from the same query point; its chord starts at enter
			state = InsideSolid(b.Solid)
			continue
		}

		e, ok := r.entries[state.Solid]
		if !ok {
			return steps, errors.Wrapf(ErrUnknownSolid, "solid %d", state.Solid)
		}
		obb := e.solid.OBB()
		lo := obb.ToLocal(p)
		ld := obb.ToLocalDirection(unit)
		iv, hit := obb.IntersectLocal(lo, ld)
		if !hit || !(iv.Exit > math.Max(iv.Entry, 0)) {
			if t < from+PushDistance {
				// on a face of this solid; locate again from just past it
				t = from + PushDistance
				state = r.StateAt(origin.Add(unit.Mul(t)))
				continue
			}
			state = Outside
			continue
		}
		trav := e.solid.Traverse(lo, ld, iv, maxDistance-t)
		for {
			seg, ok := trav.Next()
			if !ok {
				break
			}
			seg.Entry += t
			seg.Exit += t
			steps = append(steps, Step{State: state, Segment: seg, Material: e.materialAt(seg.Flat)})
		}
		if trav.Exit() == voxel.ExitLimit {
			break
		}
		from = t + trav.Distance()
		state = r.nextState(state.Solid, origin.Add(unit.Mul(from+PushDistance)))
		t = from
		if state.IsOutside() {
			// past the face so the solid just left is not found again
			t = from + PushDistance
		}
	}
	return steps, nil
}

// nextState locates p after leaving solid from. A point still reported inside from is pushed
// out of it by the caller's next step, so it is treated as outside.
func (r *Registry) nextState(from SolidID, p r3.Vector) State {
	for _, id := range r.order {
		if id == from {
			continue
		}
		if r.entries[id].solid.OBB().Contains(p) {
			return InsideSolid(id)
		}
	}
	return Outside
}

func vacuumStep(from, to float64) Step {
	return Step{
		State:    Outside,
		Segment:  voxel.Segment{Flat: -1, Entry: from, Exit: to, Length: to - from},
		Material: NoMaterial,
	}
}

// LocateBatch locates many points in parallel.
func (r *Registry) LocateBatch(ctx context.Context, points []r3.Vector) ([]SolidID, error) {
	out := make([]SolidID, len(points))
	err := utils.GroupWorkParallel(ctx, len(points),
		func(numGroups int) {
			r.logger.Debugw("locating points", "points", len(points), "groups", numGroups)
		},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			return func(memberNum, workNum int) error {
				out[workNum] = r.Locate(points[workNum])
				return nil
			}, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TrackBatch tracks many rays in parallel. The result for rays[i] is at index i.
func (r *Registry) TrackBatch(ctx context.Context, rays []Ray, maxDistance float64) ([][]Step, error) {
	out := make([][]Step, len(rays))
	err := utils.GroupWorkParallel(ctx, len(rays),
		func(numGroups int) {
			r.logger.Debugw("tracking rays", "rays", len(rays), "groups", numGroups)
		},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			return func(memberNum, workNum int) error {
				steps, err := r.Track(ctx, rays[workNum].Origin, rays[workNum].Direction, maxDistance)
				if err != nil {
					return errors.Wrapf(err, "ray %d", workNum)
				}
				out[workNum] = steps
				return nil
			}, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}
