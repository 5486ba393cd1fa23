package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/svakisto/internal/launch"
	"github.com/mesh-intelligence/svakisto/internal/logging"
	"github.com/mesh-intelligence/svakisto/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "SVAKISTO"

	cfgKeyDataDir      = "data_dir"
	cfgKeyLogLevel     = "log.level"
	cfgKeyLogFormat    = "log.format"
	cfgKeyLogFile      = "log.file"
	cfgKeyLogMaxSize   = "log.max_size_mb"
	cfgKeyLogBackups   = "log.max_backups"
	cfgKeyLogMaxAge    = "log.max_age_days"
	cfgKeyManifestURL  = "update.manifest_url"
	cfgKeyTimeout      = "update.timeout"
	cfgKeyLaunchScheme = "launch.scheme"
	cfgKeyBackupKeep   = "backup.keep"

	defaultManifestURL = "https://svakisto.app/version.json"
	defaultTimeout     = 10 * time.Second
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# svakisto configuration
# Every key can be overridden with an environment variable, for example
# SVAKISTO_LOG_LEVEL=debug.

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

log:
  level: info
  format: text
  # file:
  # Rotation, used only with file. Zero keeps the built-in default.
  # max_size_mb: 5
  # max_backups: 3
  # max_age_days: 28

update:
  manifest_url: https://svakisto.app/version.json
  timeout: 10s

launch:
  scheme: anydesk

backup:
  keep: 3
`

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, systemError{fmt.Errorf("ensure config dir: %w", err)}
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, systemError{fmt.Errorf("ensure default config: %w", err)}
	}

	v := viper.New()
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyLogFormat, "text")
	v.SetDefault(cfgKeyManifestURL, defaultManifestURL)
	v.SetDefault(cfgKeyTimeout, defaultTimeout)
	v.SetDefault(cfgKeyLaunchScheme, launch.DefaultScheme)
	v.SetDefault(cfgKeyBackupKeep, types.MaxInternalBackups)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates config.yaml if it does not exist.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// loggingConfig maps the log.* keys onto a logging.Config.
func loggingConfig(v *viper.Viper) logging.Config {
	return logging.Config{
		Level:      v.GetString(cfgKeyLogLevel),
		Format:     v.GetString(cfgKeyLogFormat),
		File:       v.GetString(cfgKeyLogFile),
		MaxSizeMB:  v.GetInt(cfgKeyLogMaxSize),
		MaxBackups: v.GetInt(cfgKeyLogBackups),
		MaxAgeDays: v.GetInt(cfgKeyLogMaxAge),
	}
}
