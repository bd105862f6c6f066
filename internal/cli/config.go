package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileBase = "config.yaml"

	cfgKeyDataDir      = "data_dir"
	cfgKeyDatabasePath = "database_path"
	cfgKeyListenAddr   = "listen_addr"
	cfgKeyLogLevel     = "log_level"
	cfgKeyLogFormat    = "log_format"

	envPrefix = "COMPONENTRY"

	defaultListenAddr = "127.0.0.1:7420"
	defaultLogLevel   = "info"
	defaultLogFormat  = "json"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	DataDir      string `yaml:"data_dir,omitempty"`
	DatabasePath string `yaml:"database_path,omitempty"`
	ListenAddr   string `yaml:"listen_addr"`
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
}

func defaultConfigFile() configFile {
	return configFile{
		ListenAddr: defaultListenAddr,
		LogLevel:   defaultLogLevel,
		LogFormat:  defaultLogFormat,
	}
}

// loadConfig reads config.yaml from configDir. A missing file is not an
// error. COMPONENTRY_LISTEN_ADDR, COMPONENTRY_LOG_LEVEL,
// COMPONENTRY_LOG_FORMAT, and COMPONENTRY_DATABASE_PATH override the file;
// the data dir follows its own precedence in the paths package.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyListenAddr, defaultListenAddr)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyLogFormat, defaultLogFormat)

	v.SetEnvPrefix(envPrefix)
	for _, key := range []string{cfgKeyListenAddr, cfgKeyLogLevel, cfgKeyLogFormat, cfgKeyDatabasePath} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

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

// writeConfigIfMissing creates config.yaml with cfg when the file does not
// exist. It reports whether a file was written.
func writeConfigIfMissing(configDir string, cfg configFile) (bool, error) {
	path := filepath.Join(configDir, configFileBase)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
