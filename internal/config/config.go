package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

const (
	configName = "uninstallscan"
	envPrefix  = "UNINSTALLSCAN"
)

type Config struct {
	// HelperDir is the directory holding the bundled helper executables.
	// Empty means the directory of the running binary.
	HelperDir            string `mapstructure:"helper_dir"`
	HelperTimeoutSeconds int    `mapstructure:"helper_timeout_seconds"`

	ScanOculus        bool   `mapstructure:"scan_oculus"`
	OculusDisplayName string `mapstructure:"oculus_display_name"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`
}

func Default() *Config {
	return &Config{
		HelperTimeoutSeconds: 120,
		ScanOculus:           true,
		OculusDisplayName:    "Oculus",
		LogLevel:             "info",
		LogFormat:            "text",
	}
}

// Load reads the config file (explicit path, or uninstallscan.yaml from the
// platform config dir or the working directory) and UNINSTALLSCAN_* env vars
// on top of Default(). A missing config file is not an error.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()
	v := viper.New()

	setDefaults(v, cfg)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("helper_dir", cfg.HelperDir)
	v.SetDefault("helper_timeout_seconds", cfg.HelperTimeoutSeconds)
	v.SetDefault("scan_oculus", cfg.ScanOculus)
	v.SetDefault("oculus_display_name", cfg.OculusDisplayName)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("log_file", cfg.LogFile)
}

// ResolveHelperDir returns HelperDir, or the directory of the running
// executable when HelperDir is empty.
func (c *Config) ResolveHelperDir() string {
	if c.HelperDir != "" {
		return c.HelperDir
	}
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "UninstallScan")
	case "darwin":
		return "/Library/Application Support/UninstallScan"
	default:
		return "/etc/uninstallscan"
	}
}
