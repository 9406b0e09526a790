package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/anirudhraja/flatproto/jsonmap"
	"github.com/anirudhraja/flatproto/stream"
	"github.com/anirudhraja/flatproto/wire"
)

// EnvPrefix prefixes every environment override, e.g.
// FLATPROTO_CODEC_STRICT_WIRE_TYPE=true.
const EnvPrefix = "FLATPROTO"

// Config holds the complete application configuration
type Config struct {
	Codec   CodecConfig   `mapstructure:"codec"   yaml:"codec"`
	Stream  StreamConfig  `mapstructure:"stream"  yaml:"stream"`
	Log     LogConfig     `mapstructure:"log"     yaml:"log"`
	Schema  SchemaConfig  `mapstructure:"schema"  yaml:"schema"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// CodecConfig holds wire and JSON codec settings
type CodecConfig struct {
	StrictWireType  bool   `mapstructure:"strict_wire_type" yaml:"strict_wire_type"`
	PreserveUnknown bool   `mapstructure:"preserve_unknown" yaml:"preserve_unknown"`
	Int64JSON       string `mapstructure:"int64_json"       yaml:"int64_json"`
}

// StreamConfig holds delimited framing settings
type StreamConfig struct {
	MaxFrameSize int    `mapstructure:"max_frame_size" yaml:"max_frame_size"`
	Compression  string `mapstructure:"compression"    yaml:"compression"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// SchemaConfig lists where message shapes are loaded from
type SchemaConfig struct {
	ProtoPaths []string `mapstructure:"proto_paths" yaml:"proto_paths"`
	ShapeFiles []string `mapstructure:"shape_files" yaml:"shape_files"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Load loads configuration from an optional file (YAML, TOML or JSON by
// extension) and from FLATPROTO_ environment variables. An empty path
// means defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration Load produces with no file and no
// environment overrides.
func Default() *Config {
	return &Config{
		Codec:  CodecConfig{Int64JSON: jsonmap.Int64Number.String()},
		Stream: StreamConfig{MaxFrameSize: stream.DefaultMaxFrameSize, Compression: stream.CompressionNone.String()},
		Log:    LogConfig{Level: "info"},
		Schema: SchemaConfig{ProtoPaths: []string{}, ShapeFiles: []string{}},
	}
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("codec.strict_wire_type", d.Codec.StrictWireType)
	v.SetDefault("codec.preserve_unknown", d.Codec.PreserveUnknown)
	v.SetDefault("codec.int64_json", d.Codec.Int64JSON)

	v.SetDefault("stream.max_frame_size", d.Stream.MaxFrameSize)
	v.SetDefault("stream.compression", d.Stream.Compression)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pretty", d.Log.Pretty)

	v.SetDefault("schema.proto_paths", d.Schema.ProtoPaths)
	v.SetDefault("schema.shape_files", d.Schema.ShapeFiles)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := jsonmap.ParseInt64Mode(c.Codec.Int64JSON); err != nil {
		return fmt.Errorf("codec.int64_json: %w", err)
	}
	if c.Stream.MaxFrameSize <= 0 {
		return fmt.Errorf("stream.max_frame_size must be positive, got %d", c.Stream.MaxFrameSize)
	}
	if _, err := stream.ParseCompression(c.Stream.Compression); err != nil {
		return fmt.Errorf("stream.compression: %w", err)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("log.level %q is not a known level", c.Log.Level)
	}
	return nil
}

// WireConfig returns the codec toggles.
func (c *Config) WireConfig() wire.Config {
	return wire.Config{
		StrictWireType:  c.Codec.StrictWireType,
		PreserveUnknown: c.Codec.PreserveUnknown,
	}
}

// Int64Mode returns the configured JSON representation of 64-bit integers.
func (c *Config) Int64Mode() (jsonmap.Int64Mode, error) {
	return jsonmap.ParseInt64Mode(c.Codec.Int64JSON)
}

// FrameOptions returns the stream Reader/Writer options.
func (c *Config) FrameOptions() ([]stream.FrameOption, error) {
	comp, err := stream.ParseCompression(c.Stream.Compression)
	if err != nil {
		return nil, err
	}
	return []stream.FrameOption{
		stream.WithMaxFrameSize(c.Stream.MaxFrameSize),
		stream.WithCompression(comp),
	}, nil
}
