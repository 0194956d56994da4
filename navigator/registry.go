// Package navigator holds every voxelized solid of a scene and answers the transport loop's
// geometric questions: which solid contains a point, and how far a ray travels before the next
// voxel face, solid exit or solid entry.
//
// A Registry is mutated only while a scene is set up. Once traversal starts it is read-only and
// every query may be issued from any number of goroutines without synchronization.
package navigator

import (
	"slices"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/latim/voxnav/logging"
	"github.com/latim/voxnav/voxel"
)

// SolidID identifies a registered solid.
type SolidID int

// NoSolid is the location of a point outside every registered solid.
const NoSolid SolidID = -1

// ErrUnknownSolid is returned for queries naming a solid that is not registered.
var ErrUnknownSolid = errors.New("unknown solid")

type entry struct {
	solid     *voxel.Solid
	materials voxel.MaterialLookup
}

// RegisterOption configures how a solid is registered.
type RegisterOption func(*entry)

// WithMaterials attaches the material table of a solid so boundaries report the material of the
// voxel they leave.
func WithMaterials(materials voxel.MaterialLookup) RegisterOption {
	return func(e *entry) {
		e.materials = materials
	}
}

// Registry is a flat, ordered set of voxelized solids keyed by id. Solids never reference each
// other; hand-off between them is always resolved by locating the point again.
type Registry struct {
	logger  logging.Logger
	order   []SolidID
	entries map[SolidID]*entry
}

// NewRegistry returns an empty registry. A nil logger uses the global logger.
func NewRegistry(logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Global()
	}
	return &Registry{
		logger:  logger.Sublogger("navigator"),
		entries: map[SolidID]*entry{},
	}
}

// Register adds a solid to the scene. Solids registered earlier win when boxes overlap.
func (r *Registry) Register(solid *voxel.Solid, opts ...RegisterOption) (SolidID, error) {
	if solid == nil {
		return NoSolid, errors.Wrap(voxel.ErrConfiguration, "cannot register a nil solid")
	}
	id := SolidID(solid.ID())
	if id < 0 {
		return NoSolid, errors.Wrapf(voxel.ErrConfiguration, "solid id %d is negative", id)
	}
	if _, ok := r.entries[id]; ok {
		return NoSolid, errors.Wrapf(voxel.ErrConfiguration, "solid id %d is already registered", id)
	}
	e := &entry{solid: solid}
	for _, opt := range opts {
		opt(e)
	}
	if dense, ok := e.materials.(voxel.DenseMaterials); ok && len(dense) != solid.NumVoxels() {
		return NoSolid, errors.Wrapf(voxel.ErrConfiguration, "solid %d: material table has %d labels for %d voxels",
			id, len(dense), solid.NumVoxels())
	}
	r.entries[id] = e
	r.order = append(r.order, id)
	r.logger.Infow("registered voxelized solid",
		"id", int(id), "voxels", solid.Counts(), "sizes", solid.Sizes(), "materials", e.materials != nil)
	return id, nil
}

// Deregister removes a solid from the scene.
func (r *Registry) Deregister(id SolidID) error {
	if _, ok := r.entries[id]; !ok {
		return errors.Wrapf(ErrUnknownSolid, "cannot deregister solid %d", id)
	}
	delete(r.entries, id)
	r.order = lo.Without(r.order, id)
	r.logger.Infow("deregistered voxelized solid", "id", int(id))
	return nil
}

// Len returns the number of registered solids.
func (r *Registry) Len() int {
	return len(r.order)
}

// SolidIDs returns the registered ids in registration order.
func (r *Registry) SolidIDs() []SolidID {
	return slices.Clone(r.order)
}

// Solids returns the registered descriptors in registration order.
func (r *Registry) Solids() []*voxel.Solid {
	return lo.Map(r.order, func(id SolidID, _ int) *voxel.Solid {
		return r.entries[id].solid
	})
}

// Solid returns the descriptor registered under id.
func (r *Registry) Solid(id SolidID) (*voxel.Solid, bool) {
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.solid, true
}

// Locate returns the first registered solid whose box contains p, faces included, or NoSolid.
func (r *Registry) Locate(p r3.Vector) SolidID {
	for _, id := range r.order {
		if r.entries[id].solid.OBB().Contains(p) {
			return id
		}
	}
	return NoSolid
}

// StateAt returns the navigation state of a particle at p.
func (r *Registry) StateAt(p r3.Vector) State {
	return State{Solid: r.Locate(p)}
}

func (e *entry) materialAt(flat int) int {
	if e.materials == nil {
		return NoMaterial
	}
	return e.materials.MaterialAt(flat)
}
