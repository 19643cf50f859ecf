package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/baccuslab/bldsctl/internal/client"
	"github.com/baccuslab/bldsctl/internal/protocol/frame"
	"github.com/baccuslab/bldsctl/internal/protocol/params"
)

type fileConfig struct {
	Host             string `toml:"host"`
	Port             int    `toml:"port"`
	ConnectTimeoutMS int64  `toml:"connect_timeout_ms"`
	MaxFrameBytes    uint32 `toml:"max_frame_bytes"`
}

func loadClientConfig(path string, cfg client.Config) (client.Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return client.Config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("host") && strings.TrimSpace(raw.Host) != "" {
		cfg.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("port") {
		if raw.Port <= 0 || raw.Port > 65535 {
			return client.Config{}, fmt.Errorf("config port out of range: %d", raw.Port)
		}
		cfg.Port = raw.Port
	}
	if meta.IsDefined("connect_timeout_ms") {
		if raw.ConnectTimeoutMS < 0 {
			return client.Config{}, fmt.Errorf("config negative connect timeout")
		}
		cfg.ConnectTimeout = time.Duration(raw.ConnectTimeoutMS) * time.Millisecond
	}
	if meta.IsDefined("max_frame_bytes") {
		cfg.Limits = frame.Limits{MaxFrameBytes: raw.MaxFrameBytes}
	}
	return cfg, nil
}

// parseValue converts a CLI argument into the typed value the named
// parameter expects. Arrays take comma-separated floats; electrode
// configurations have no textual form and must come from a client program.
func parseValue(ns params.Namespace, name, raw string) (params.Value, error) {
	kind, err := params.KindOf(ns, name)
	if err != nil {
		return params.Value{}, err
	}
	switch kind {
	case params.KindString:
		return params.StringValue(raw), nil
	case params.KindUint32:
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return params.Value{}, fmt.Errorf("%s wants an unsigned integer: %w", name, err)
		}
		return params.Uint32Value(uint32(v)), nil
	case params.KindFloat32:
		v, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return params.Value{}, fmt.Errorf("%s wants a float: %w", name, err)
		}
		return params.Float32Value(float32(v)), nil
	case params.KindBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return params.Value{}, fmt.Errorf("%s wants a boolean: %w", name, err)
		}
		return params.BoolValue(v), nil
	case params.KindFloat64Array:
		parts := strings.Split(raw, ",")
		floats := make([]float64, 0, len(parts))
		for _, part := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return params.Value{}, fmt.Errorf("%s wants comma-separated floats: %w", name, err)
			}
			floats = append(floats, v)
		}
		return params.Float64ArrayValue(floats), nil
	default:
		return params.Value{}, fmt.Errorf("%s has no textual form", name)
	}
}
