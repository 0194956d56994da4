package utils

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
}

type (
	// BeforeParallelGroupWorkFunc executes before any work starts with the calculated group size.
	BeforeParallelGroupWorkFunc func(groupSize int)
	// MemberWorkFunc runs for each work item (member) of a group.
	MemberWorkFunc func(memberNum, workNum int) error
	// GroupWorkDoneFunc runs when a single group's work is done; helpful for merge stages.
	GroupWorkDoneFunc func()
	// GroupWorkFunc runs to determine what work members should do, if any.
	GroupWorkFunc func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc)
)

// GroupWorkParallel splits totalSize work items into at most ParallelFactor contiguous groups
// and runs each group in its own goroutine. The first member error cancels the remaining
// groups; every error observed before cancellation is returned combined. A panic in a group
// is converted to an error.
func GroupWorkParallel(ctx context.Context, totalSize int, before BeforeParallelGroupWorkFunc, groupWork GroupWorkFunc) error {
	if totalSize <= 0 {
		if before != nil {
			before(0)
		}
		return nil
	}
	numGroups := MinInt(ParallelFactor, totalSize)
	groupSize := totalSize / numGroups
	extra := totalSize % numGroups

	if before != nil {
		before(numGroups)
	}

	g, gctx := errgroup.WithContext(ctx)
	errs := make([]error, numGroups)
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		groupNum := groupNum
		g.Go(func() (err error) {
			defer func() {
				if thePanic := recover(); thePanic != nil {
					err = fmt.Errorf("got panic in parallel group %d: %v", groupNum, thePanic)
					errs[groupNum] = err
				}
			}()

			thisGroupSize := groupSize
			if groupNum == numGroups-1 {
				thisGroupSize += extra
			}
			from := groupSize * groupNum
			to := from + thisGroupSize
			memberWork, groupWorkDone := groupWork(groupNum, thisGroupSize, from, to)
			if memberWork != nil {
				memberNum := 0
				for workNum := from; workNum < to; workNum++ {
					if err := gctx.Err(); err != nil {
						return err
					}
					if err := memberWork(memberNum, workNum); err != nil {
						errs[groupNum] = err
						return err
					}
					memberNum++
				}
			}
			if groupWorkDone != nil {
				groupWorkDone()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if combined := multierr.Combine(errs...); combined != nil {
			return combined
		}
		return err
	}
	return nil
}
