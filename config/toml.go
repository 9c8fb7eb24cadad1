package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/BurntSushi/toml"

	hsos "github.com/crosschain/headersync/libs/os"
)

// defaultDirPerm is the default permissions used when creating directories.
const defaultDirPerm = 0700

var configTemplate *template.Template

func init() {
	var err error
	tmpl := template.New("configFileTemplate")
	if configTemplate, err = tmpl.Parse(defaultConfigTemplate); err != nil {
		panic(err)
	}
}

// fileConfig mirrors the layout of config.toml.
type fileConfig struct {
	DBBackend       string `toml:"db_backend"`
	DBPath          string `toml:"db_dir"`
	LogLevel        string `toml:"log_level"`
	LogFormat       string `toml:"log_format"`
	Sync            SyncConfig            `toml:"sync"`
	Instrumentation InstrumentationConfig `toml:"instrumentation"`
}

func (fc fileConfig) config() *Config {
	cfg := DefaultConfig()
	cfg.DBBackend = fc.DBBackend
	cfg.DBPath = fc.DBPath
	cfg.LogLevel = fc.LogLevel
	cfg.LogFormat = fc.LogFormat
	*cfg.Sync = fc.Sync
	*cfg.Instrumentation = fc.Instrumentation
	return cfg
}

/****** these are for production settings ***********/

// EnsureRoot creates the root, config, and data directories if they don't exist.
func EnsureRoot(rootDir string) error {
	for _, dir := range []string{
		rootDir,
		filepath.Join(rootDir, defaultConfigDir),
		filepath.Join(rootDir, defaultDataDir),
	} {
		if err := hsos.EnsureDir(dir, defaultDirPerm); err != nil {
			return err
		}
	}
	return nil
}

// WriteConfigFile renders config using the template and writes it to configFilePath.
// This function is called by cmd/headersync/commands/init.go
func WriteConfigFile(rootDir string, config *Config) error {
	return config.WriteToTemplate(filepath.Join(rootDir, defaultConfigFilePath))
}

// WriteToTemplate writes the config to the exact file specified by
// the path, in the default toml template and does not mangle the path
// or filename at all. The rendered file must decode back into config.
func (cfg *Config) WriteToTemplate(path string) error {
	var buffer bytes.Buffer

	if err := configTemplate.Execute(&buffer, cfg); err != nil {
		return err
	}

	var fc fileConfig
	if _, err := toml.Decode(buffer.String(), &fc); err != nil {
		return fmt.Errorf("rendered config is not valid toml: %w", err)
	}
	if rendered := fc.config().SetRoot(cfg.RootDir); !sameSettings(rendered, cfg) {
		return fmt.Errorf("rendered config does not match %+v", *cfg)
	}

	return hsos.WriteFileAtomic(path, buffer.Bytes(), 0644)
}

// ReadConfigFile decodes the config.toml at path. Keys missing from the file
// keep their default value.
func ReadConfigFile(path string) (*Config, error) {
	def := DefaultConfig()
	fc := fileConfig{
		DBBackend:       def.DBBackend,
		DBPath:          def.DBPath,
		LogLevel:        def.LogLevel,
		LogFormat:       def.LogFormat,
		Sync:            *def.Sync,
		Instrumentation: *def.Instrumentation,
	}
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return fc.config(), nil
}

func sameSettings(a, b *Config) bool {
	return a.BaseConfig == b.BaseConfig &&
		*a.Sync == *b.Sync &&
		*a.Instrumentation == *b.Instrumentation
}

func writeDefaultConfigFileIfNone(rootDir string) error {
	configFilePath := filepath.Join(rootDir, defaultConfigFilePath)
	if !hsos.FileExists(configFilePath) {
		return WriteConfigFile(rootDir, DefaultConfig())
	}
	return nil
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in the appropriate struct in config/config.go
const defaultConfigTemplate = `# This is a TOML config file.
# For more information, see https://github.com/toml-lang/toml

# NOTE: Any path below can be absolute (e.g. "/var/headersync/data") or
# relative to the home directory (e.g. "data"). The home directory is
# "$HOME/.headersync" by default, but could be changed via $HSYNC_HOME env variable
# or --home cmd flag.

#######################################################################
###                   Main Base Config Options                      ###
#######################################################################

# Database backend: goleveldb | memdb
# * goleveldb (github.com/syndtr/goleveldb - most popular implementation)
#   - pure go
#   - stable
# * memdb
#   - nothing survives a restart, testing only
db_backend = "{{ .BaseConfig.DBBackend }}"

# Database directory
db_dir = "{{ .BaseConfig.DBPath }}"

# Output level for logging: debug | info | warn | error
log_level = "{{ .BaseConfig.LogLevel }}"

# Output format: 'plain' (colored text) or 'json'
log_format = "{{ .BaseConfig.LogFormat }}"

#######################################################################
###                       Header Sync Options                       ###
#######################################################################
[sync]

# Reject headers whose declared block hash differs from the double
# SHA-256 of their contents.
strict_block_hash = {{ .Sync.StrictBlockHash }}

#######################################################################
###                    Instrumentation Options                      ###
#######################################################################
[instrumentation]

# When true, Prometheus metrics are served under /metrics on
# PrometheusListenAddr.
prometheus = {{ .Instrumentation.Prometheus }}

# Address to listen for Prometheus collector(s) connections
prometheus_listen_addr = "{{ .Instrumentation.PrometheusListenAddr }}"

# Maximum number of simultaneous connections.
# 0 - unlimited.
max_open_connections = {{ .Instrumentation.MaxOpenConnections }}

# Instrumentation namespace
namespace = "{{ .Instrumentation.Namespace }}"
`

/****** these are for test settings ***********/

// ResetTestRoot creates a fresh home directory under dir holding a default
// config file and returns a test config rooted there.
func ResetTestRoot(dir, testName string) (*Config, error) {
	rootDir, err := os.MkdirTemp(dir, testName+"_")
	if err != nil {
		return nil, err
	}
	if err := EnsureRoot(rootDir); err != nil {
		return nil, err
	}
	if err := writeDefaultConfigFileIfNone(rootDir); err != nil {
		return nil, err
	}
	return TestConfig().SetRoot(rootDir), nil
}
