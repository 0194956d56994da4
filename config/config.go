// Package config loads scene descriptions: the voxelized solids of a scene, their placement and
// material tables, and how the scene logs.
package config

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/latim/voxnav/logging"
	"github.com/latim/voxnav/navigator"
	"github.com/latim/voxnav/voxel"
)

// SceneConfig describes a whole scene.
type SceneConfig struct {
	Name   string        `json:"name,omitempty"`
	Solids []SolidConfig `json:"solids"`
	Log    LogConfig     `json:"log,omitempty"`

	// ConfigFilePath is the file the scene was read from, if any.
	ConfigFilePath string `json:"-"`
}

// SolidConfig describes one voxelized solid. Voxels are counted along x, y and z; Total is
// optional and, when set, must equal their product.
type SolidConfig struct {
	ID          int               `json:"id"`
	Name        string            `json:"name,omitempty"`
	Voxels      [3]int            `json:"voxels"`
	VoxelSize   Translation       `json:"voxel_size"`
	Total       int               `json:"total,omitempty"`
	Translation Translation       `json:"translation"`
	Orientation OrientationConfig `json:"orientation"`
	Materials   []uint16          `json:"materials,omitempty"`
}

// LogConfig sets the scene's logging. File, when set, receives a copy of every log line and is
// rotated at MaxSizeMB.
type LogConfig struct {
	Level     string                        `json:"level,omitempty"`
	File      string                        `json:"file,omitempty"`
	MaxSizeMB int                           `json:"max_size_mb,omitempty"`
	Patterns  []logging.LoggerPatternConfig `json:"patterns,omitempty"`
}

const defaultLogMaxSizeMB = 100

func (sc *SolidConfig) label() string {
	if sc.Name != "" {
		return fmt.Sprintf("solid %d (%s)", sc.ID, sc.Name)
	}
	return fmt.Sprintf("solid %d", sc.ID)
}

// Validate returns every problem with the solid, combined.
func (sc *SolidConfig) Validate() error {
	var errs error
	if sc.ID < 0 {
		errs = multierr.Append(errs, errors.Errorf("%s: id must not be negative", sc.label()))
	}
	total := 1
	for axis, n := range sc.Voxels {
		if n < 0 {
			errs = multierr.Append(errs, errors.Errorf("%s: voxel count along %c is negative (%d)",
				sc.label(), "xyz"[axis], n))
			continue
		}
		if total > 0 && n > 0 && total > math.MaxInt32/n {
			errs = multierr.Append(errs, errors.Errorf("%s: voxel count overflows", sc.label()))
			total = 0
			continue
		}
		total *= n
	}
	for axis, size := range [3]float64{sc.VoxelSize.X, sc.VoxelSize.Y, sc.VoxelSize.Z} {
		if !(size > 0) || math.IsInf(size, 1) {
			errs = multierr.Append(errs, errors.Errorf("%s: voxel size along %c must be positive (%v)",
				sc.label(), "xyz"[axis], size))
		}
	}
	if sc.Total != 0 && sc.Total != total {
		errs = multierr.Append(errs, errors.Errorf("%s: total %d does not match %d voxels", sc.label(), sc.Total, total))
	}
	if len(sc.Materials) != 0 && len(sc.Materials) != total {
		errs = multierr.Append(errs, errors.Errorf("%s: %d material labels for %d voxels",
			sc.label(), len(sc.Materials), total))
	}
	if _, err := sc.Orientation.Orientation(); err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, sc.label()))
	}
	return errs
}

// Validate returns every problem with the log settings, combined.
func (lc *LogConfig) Validate() error {
	var errs error
	if _, err := logging.LevelFromString(lc.Level); err != nil {
		errs = multierr.Append(errs, err)
	}
	if lc.MaxSizeMB < 0 {
		errs = multierr.Append(errs, errors.Errorf("log max_size_mb must not be negative (%d)", lc.MaxSizeMB))
	}
	for _, p := range lc.Patterns {
		if !logging.ValidatePattern(p.Pattern) {
			errs = multierr.Append(errs, errors.Errorf("invalid logger pattern %q", p.Pattern))
		}
		if _, err := logging.LevelFromString(p.Level); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "logger pattern %q", p.Pattern))
		}
	}
	return errs
}

// Validate returns every problem with the scene, combined and wrapped as a configuration error.
func (cfg *SceneConfig) Validate() error {
	var errs error
	for i := range cfg.Solids {
		errs = multierr.Append(errs, cfg.Solids[i].Validate())
	}
	ids := lo.Map(cfg.Solids, func(sc SolidConfig, _ int) int { return sc.ID })
	for _, dup := range lo.FindDuplicates(ids) {
		errs = multierr.Append(errs, errors.Errorf("solid id %d is used more than once", dup))
	}
	errs = multierr.Append(errs, cfg.Log.Validate())
	if errs != nil {
		return errors.Wrapf(voxel.ErrConfiguration, "%v", errs)
	}
	return nil
}

// Solid builds the descriptor of one solid.
func (sc *SolidConfig) Solid() (*voxel.Solid, error) {
	pose, err := Pose(sc.Translation, sc.Orientation)
	if err != nil {
		return nil, errors.Wrapf(voxel.ErrConfiguration, "%s: %v", sc.label(), err)
	}
	if sc.Total != 0 {
		return voxel.NewSolidFromTotal(sc.ID, sc.Total, sc.Voxels, sc.VoxelSize.Vector(), pose)
	}
	return voxel.NewSolid(sc.ID, sc.Voxels, sc.VoxelSize.Vector(), pose)
}

// BuildRegistry validates the scene and registers every solid, in file order.
func (cfg *SceneConfig) BuildRegistry(logger logging.Logger) (*navigator.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	registry := navigator.NewRegistry(logger)
	for i := range cfg.Solids {
		sc := &cfg.Solids[i]
		solid, err := sc.Solid()
		if err != nil {
			return nil, err
		}
		var opts []navigator.RegisterOption
		if len(sc.Materials) != 0 {
			materials, err := voxel.NewDenseMaterials(solid, sc.Materials)
			if err != nil {
				return nil, err
			}
			opts = append(opts, navigator.WithMaterials(materials))
		}
		if _, err := registry.Register(solid, opts...); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// NewLogger builds the scene's root logger named name. It logs to stdout and, when a file is
// configured, to that file too. The logger is registered globally so level patterns apply to it.
func (lc *LogConfig) NewLogger(name string) (logging.Logger, error) {
	if err := lc.Validate(); err != nil {
		return nil, errors.Wrapf(voxel.ErrConfiguration, "%v", err)
	}
	level, err := logging.LevelFromString(lc.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger(name)
	logger.SetLevel(level)
	if lc.File != "" {
		maxSize := lc.MaxSizeMB
		if maxSize == 0 {
			maxSize = defaultLogMaxSizeMB
		}
		logger.AddAppender(logging.NewFileAppender(lc.File, maxSize))
	}
	if err := logging.UpdateLoggerPatterns(lc.Patterns, logger); err != nil {
		return nil, err
	}
	logging.RegisterLogger(name, logger)
	return logger, nil
}
