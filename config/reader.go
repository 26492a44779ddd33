package config

import (
	"bytes"
	"encoding/json"
	"io"
	"reflect"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"go.viam.com/regmotor/logging"
)

// Read reads a config from the given file. Environment variables in the file are
// expanded first.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	var attributes map[string]interface{}
	if err := json.NewDecoder(r).Decode(&attributes); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}

	cfg := Default()
	cfg.ConfigFilePath = originalPath
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      cfg,
		ErrorUnused: true,
		DecodeHook:  mapstructure.ComposeDecodeHookFunc(peripheralBaseHook, numberHook),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrapf(err, "failed to process Config")
	}
	if err := cfg.Validate("config"); err != nil {
		return nil, err
	}
	logger.Debugw("read config", "path", originalPath, "device", cfg.Device, "peripheral_base", cfg.PeripheralBase)
	return cfg, nil
}

// peripheralBaseHook maps "auto" to AutoDetect.
func peripheralBaseHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Uint64 {
		return data, nil
	}
	if s, ok := data.(string); ok && strings.EqualFold(strings.TrimSpace(s), "auto") {
		return AutoDetect, nil
	}
	return data, nil
}

// numberHook decodes unsigned fields from JSON numbers or from strings such as
// "0x3F000000", rejecting values the field cannot hold.
func numberHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	switch to.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}
	if s, ok := data.(string); ok {
		data = strings.TrimSpace(s)
	}
	v, err := cast.ToUint64E(data)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot use %v as a number", data)
	}
	if reflect.Zero(to).OverflowUint(v) {
		return nil, errors.Errorf("%v does not fit in %s", data, to)
	}
	return v, nil
}
