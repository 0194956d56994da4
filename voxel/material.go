package voxel

// MaterialLookup resolves the material index of a voxel from its flat index. The table is owned
// by the caller; the navigation core only supplies indices.
type MaterialLookup interface {
	MaterialAt(flat int) int
}

// MaterialFunc adapts a function to MaterialLookup.
type MaterialFunc func(flat int) int

// MaterialAt calls f.
func (f MaterialFunc) MaterialAt(flat int) int {
	return f(flat)
}

// DenseMaterials is one material label per voxel, in flat index order.
type DenseMaterials []uint16

// NewDenseMaterials checks that labels covers every voxel of s.
func NewDenseMaterials(s *Solid, labels []uint16) (DenseMaterials, error) {
	if len(labels) != s.NumVoxels() {
		return nil, newConfigurationError("solid %d: material table has %d labels for %d voxels",
			s.ID(), len(labels), s.NumVoxels())
	}
	return DenseMaterials(labels), nil
}

// MaterialAt returns the label of the voxel at flat.
func (m DenseMaterials) MaterialAt(flat int) int {
	return int(m[flat])
}
