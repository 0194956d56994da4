package config

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/latim/voxnav/logging"
)

// Read reads a scene from the given file. ${VAR} references are replaced from the environment
// before the file is parsed. Files ending in .json5 may carry comments and trailing commas.
func Read(
	ctx context.Context,
	filePath string,
	logger logging.Logger,
) (*SceneConfig, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return FromReader(ctx, filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a scene from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(
	ctx context.Context,
	originalPath string,
	r io.Reader,
	logger logging.Logger,
) (*SceneConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(originalPath), ".json5") {
		normalized, err := fromJSON5(r)
		if err != nil {
			return nil, err
		}
		r = normalized
	}
	cfg := SceneConfig{
		ConfigFilePath: originalPath,
	}
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode scene from json")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "failed to validate scene")
	}
	if logger != nil {
		logger.Infow("read scene", "path", originalPath, "name", cfg.Name, "solids", len(cfg.Solids))
	}
	return &cfg, nil
}

// fromJSON5 rewrites a JSON5 document as plain JSON so it goes through the same strict decoder.
func fromJSON5(r io.Reader) (io.Reader, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var doc interface{}
	if err := json5.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to decode scene from json5")
	}
	plain, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(plain), nil
}

// DecodeAttributes decodes a solid embedded as a generic attribute map in some other
// configuration, using the same field names as the scene file.
func DecodeAttributes(attributes map[string]interface{}) (*SolidConfig, error) {
	var sc SolidConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      &sc,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "failed to decode solid attributes")
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}
