package voxel

import "fmt"

// Index addresses one voxel by its position along each local axis.
type Index struct {
	X, Y, Z int
}

func indexFromArray(a [3]int) Index {
	return Index{X: a[0], Y: a[1], Z: a[2]}
}

func (idx Index) array() [3]int {
	return [3]int{idx.X, idx.Y, idx.Z}
}

// Flat returns the row-major key z*ny*nx + y*nx + x used by material tables.
func (idx Index) Flat(counts [3]int) int {
	return idx.Z*counts[1]*counts[0] + idx.Y*counts[0] + idx.X
}

// IndexFromFlat is the inverse of Index.Flat.
func IndexFromFlat(flat int, counts [3]int) Index {
	plane := counts[0] * counts[1]
	if plane == 0 {
		return Index{}
	}
	z := flat / plane
	rem := flat % plane
	return Index{X: rem % counts[0], Y: rem / counts[0], Z: z}
}

func (idx Index) String() string {
	return fmt.Sprintf("(%d,%d,%d)", idx.X, idx.Y, idx.Z)
}
