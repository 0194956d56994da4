package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/test"

	"github.com/latim/voxnav/logging"
	"github.com/latim/voxnav/navigator"
	"github.com/latim/voxnav/spatialmath"
	"github.com/latim/voxnav/voxel"
)

func TestRead(t *testing.T) {
	t.Setenv("DETECTOR_PITCH", "0.5")
	logger, logs := logging.NewObservedTestLogger(t)

	cfg, err := Read(context.Background(), "data/scene.json", logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, "data/scene.json")
	test.That(t, cfg.Name, test.ShouldEqual, "water phantom")
	test.That(t, cfg.Solids, test.ShouldHaveLength, 2)
	test.That(t, cfg.Solids[0].Materials, test.ShouldResemble, []uint16{1, 2, 3, 4})
	test.That(t, cfg.Solids[1].VoxelSize, test.ShouldResemble, Translation{0.5, 0.5, 2})
	test.That(t, cfg.Solids[1].Orientation, test.ShouldResemble, OrientationConfig{0, 0, 1, 90})
	test.That(t, cfg.Log.Level, test.ShouldEqual, "debug")
	test.That(t, logs.FilterMessage("read scene").Len(), test.ShouldEqual, 1)

	_, err = Read(context.Background(), "data/missing.json", logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestReadJSON5(t *testing.T) {
	cfg, err := Read(context.Background(), "data/scene.json5", logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Name, test.ShouldEqual, "slab")
	test.That(t, cfg.Solids, test.ShouldHaveLength, 1)
	test.That(t, cfg.Solids[0].Voxels, test.ShouldResemble, [3]int{1, 1, 3})
	test.That(t, cfg.Solids[0].Materials, test.ShouldResemble, []uint16{5, 6, 7})

	_, err = FromReader(context.Background(), "broken.json5", strings.NewReader(`{"solids": [}`), nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "json5")

	// unknown fields are still rejected after the json5 pass
	_, err = FromReader(context.Background(), "extra.json5", strings.NewReader(`{solids: [], colour: 1}`), nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to decode scene from json")
}

func TestReadInvalid(t *testing.T) {
	_, err := Read(context.Background(), "data/invalid.json", logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, voxel.ErrConfiguration), test.ShouldBeTrue)
	for _, want := range []string{
		"voxel count along y is negative",
		"voxel size along x must be positive",
		"total 9 does not match 8 voxels",
		"2 material labels for 8 voxels",
		"solid 2: invalid orientation",
		"solid id 1 is used more than once",
		"unknown log level",
	} {
		test.That(t, err.Error(), test.ShouldContainSubstring, want)
	}
}

func TestFromReader(t *testing.T) {
	_, err := FromReader(context.Background(), "", strings.NewReader(`{"solids": [], "colour": 1}`), nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to decode scene")

	cfg, err := FromReader(context.Background(), "", strings.NewReader(`{"solids": []}`), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Solids, test.ShouldBeEmpty)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = FromReader(ctx, "", strings.NewReader(`{"solids": []}`), nil)
	test.That(t, err, test.ShouldBeError, context.Canceled)
}

func TestSolidConfigValidate(t *testing.T) {
	sc := SolidConfig{ID: 3, Voxels: [3]int{2, 2, 2}, VoxelSize: Translation{1, 1, 1}}
	test.That(t, sc.Validate(), test.ShouldBeNil)

	sc.Voxels = [3]int{-1, 2, -3}
	sc.VoxelSize = Translation{1, 0, -1}
	test.That(t, multierr.Errors(sc.Validate()), test.ShouldHaveLength, 4)

	sc = SolidConfig{ID: 3, Voxels: [3]int{1 << 16, 1 << 16, 1}, VoxelSize: Translation{1, 1, 1}}
	test.That(t, sc.Validate().Error(), test.ShouldContainSubstring, "overflows")

	sc = SolidConfig{ID: 3, Voxels: [3]int{0, 5, 5}, VoxelSize: Translation{1, 1, 1}}
	test.That(t, sc.Validate(), test.ShouldBeNil)
}

func TestOrientationConfig(t *testing.T) {
	o, err := OrientationConfig{}.Orientation()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.OrientationAlmostEqual(o, spatialmath.NewZeroOrientation()), test.ShouldBeTrue)

	o, err = OrientationConfig{Z: 2, TH: 90}.Orientation()
	test.That(t, err, test.ShouldBeNil)
	rotated := o.RotationMatrix()
	test.That(t, rotated.At(0, 1), test.ShouldAlmostEqual, -1.0)
	test.That(t, rotated.At(1, 0), test.ShouldAlmostEqual, 1.0)

	_, err = OrientationConfig{TH: 30}.Orientation()
	test.That(t, err, test.ShouldNotBeNil)

	pose, err := Pose(Translation{1, 2, 3}, OrientationConfig{X: 1, TH: 180})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Point(), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
}

func TestDecodeAttributes(t *testing.T) {
	sc, err := DecodeAttributes(map[string]interface{}{
		"id":          4,
		"voxels":      []interface{}{3, 2, 1},
		"voxel_size":  map[string]interface{}{"x": 1.5, "y": 1.0, "z": 2.0},
		"translation": map[string]interface{}{"x": -3.0},
		"orientation": map[string]interface{}{"x": 1.0, "th": 30.0},
		"materials":   []interface{}{1, 1, 2, 2, 3, 3},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sc.ID, test.ShouldEqual, 4)
	test.That(t, sc.Voxels, test.ShouldResemble, [3]int{3, 2, 1})
	test.That(t, sc.VoxelSize, test.ShouldResemble, Translation{1.5, 1, 2})
	test.That(t, sc.Translation, test.ShouldResemble, Translation{X: -3})
	test.That(t, sc.Orientation, test.ShouldResemble, OrientationConfig{X: 1, TH: 30})
	test.That(t, sc.Materials, test.ShouldResemble, []uint16{1, 1, 2, 2, 3, 3})

	_, err = DecodeAttributes(map[string]interface{}{"id": 1, "pitch": 2})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = DecodeAttributes(map[string]interface{}{"id": 1, "voxels": []interface{}{1, 1, 1}})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "voxel size")
}

func TestBuildRegistry(t *testing.T) {
	t.Setenv("DETECTOR_PITCH", "0.5")
	logger, logs := logging.NewObservedTestLogger(t)
	cfg, err := Read(context.Background(), "data/scene.json", logger)
	test.That(t, err, test.ShouldBeNil)

	registry, err := cfg.BuildRegistry(logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, registry.SolidIDs(), test.ShouldResemble, []navigator.SolidID{0, 7})
	test.That(t, logs.FilterMessage("registered voxelized solid").Len(), test.ShouldEqual, 2)

	test.That(t, registry.Locate(r3.Vector{X: 0.5, Y: 0.5}), test.ShouldEqual, navigator.SolidID(0))
	// the detector runs along its local x, which is turned onto world y
	test.That(t, registry.Locate(r3.Vector{X: 10, Y: 0.9}), test.ShouldEqual, navigator.SolidID(7))
	test.That(t, registry.Locate(r3.Vector{X: 10.9, Y: 0}), test.ShouldEqual, navigator.NoSolid)

	b, err := registry.NextBoundary(r3.Vector{X: -5, Y: 0.5}, r3.Vector{X: 1}, navigator.NoSolid)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Kind, test.ShouldEqual, navigator.SolidEntry)
	test.That(t, b.Solid, test.ShouldEqual, navigator.SolidID(0))
	test.That(t, b.Material, test.ShouldEqual, 3)

	cfg.Solids[1].ID = 0
	_, err = cfg.BuildRegistry(logger)
	test.That(t, errors.Is(err, voxel.ErrConfiguration), test.ShouldBeTrue)
}

func TestLogConfigNewLogger(t *testing.T) {
	t.Cleanup(func() {
		logging.DeregisterLogger("scene")
		test.That(t, logging.UpdateLoggerPatterns(nil, nil), test.ShouldBeNil)
	})
	path := filepath.Join(t.TempDir(), "scene.log")
	lc := LogConfig{
		Level:    "warn",
		File:     path,
		Patterns: []logging.LoggerPatternConfig{{Pattern: "scene.navigator", Level: "debug"}},
	}
	logger, err := lc.NewLogger("scene")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logger.GetLevel(), test.ShouldEqual, logging.WARN)
	test.That(t, logger.Sublogger("navigator").GetLevel(), test.ShouldEqual, logging.DEBUG)

	logger.Warnw("scene ready", "solids", 2)
	test.That(t, logger.Sync(), test.ShouldBeNil)
	contents, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(contents), test.ShouldContainSubstring, "scene ready")

	_, err = (&LogConfig{Level: "loud"}).NewLogger("scene")
	test.That(t, errors.Is(err, voxel.ErrConfiguration), test.ShouldBeTrue)
}

func TestSchema(t *testing.T) {
	schema, err := Schema()
	test.That(t, err, test.ShouldBeNil)
	for _, field := range []string{`"solids"`, `"voxel_size"`, `"orientation"`, `"materials"`, `"patterns"`} {
		test.That(t, string(schema), test.ShouldContainSubstring, field)
	}
	test.That(t, string(schema), test.ShouldNotContainSubstring, "ConfigFilePath")
}
