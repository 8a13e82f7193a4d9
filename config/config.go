// Package config loads and validates host configuration.
//
// A configuration file is YAML. Keys that are absent keep their defaults, so
// an empty file is valid:
//
//	module: ./guest.wasm
//	name: worker
//	memory_limit_pages: 256
//	log_level: debug
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/kaylienode/wasmabi/memory"
	"github.com/kaylienode/wasmabi/wireformat"
)

// validate is a package-level singleton; building a validator is expensive.
var validate = validator.New()

// Config describes how a host loads a guest and which names the guest ABI
// uses. The zero value is not useful; start from Default.
type Config struct {
	// ModulePath is the guest .wasm file to load.
	ModulePath string `yaml:"module,omitempty" json:"module,omitempty" jsonschema:"description=Path to the guest .wasm file"`
	// Name is the module instance name. Empty means anonymous.
	Name string `yaml:"name,omitempty" json:"name,omitempty" validate:"omitempty,max=128"`

	ImportModule  string `yaml:"import_module" json:"import_module" validate:"required" jsonschema:"default=env"`
	AllocExport   string `yaml:"alloc_export" json:"alloc_export" validate:"required,nefield=DeallocExport" jsonschema:"default=allocate"`
	DeallocExport string `yaml:"dealloc_export" json:"dealloc_export" validate:"required" jsonschema:"default=deallocate"`
	FormatExport  string `yaml:"format_export" json:"format_export" validate:"required" jsonschema:"default=str_format"`

	// MemoryLimitPages caps guest memory in 64 KiB pages. Zero leaves the
	// runtime default in place.
	MemoryLimitPages uint32 `yaml:"memory_limit_pages,omitempty" json:"memory_limit_pages,omitempty" validate:"max=65536"`

	LogLevel string `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
}

// Default returns the configuration matching the built-in ABI names.
func Default() Config {
	return Config{
		ImportModule:  wireformat.ImportModule,
		AllocExport:   wireformat.ExportAllocate,
		DeallocExport: wireformat.ExportDeallocate,
		FormatExport:  wireformat.ExportStrFormat,
		LogLevel:      "info",
	}
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the file at path. A relative ModulePath is resolved
// against the directory holding the file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.ModulePath != "" && !filepath.IsAbs(cfg.ModulePath) {
		cfg.ModulePath = filepath.Join(filepath.Dir(path), cfg.ModulePath)
	}
	return cfg, nil
}

// Save writes cfg as YAML to path.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks the struct tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Level maps LogLevel to a slog level. Unknown names map to info.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// MemoryLimitBytes returns the memory cap in bytes, or 0 when unset.
func (c Config) MemoryLimitBytes() uint64 {
	return uint64(c.MemoryLimitPages) * memory.PageSize
}

// Schema returns the JSON schema of Config.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(&Config{})

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return out, nil
}
