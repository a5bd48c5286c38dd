// Package config loads the gobox configuration from the config file, GOBOX_*
// environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gadget1999/gobox/internal/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	home, _            = os.UserHomeDir()
	DefaultConfigDir   = filepath.Join(home, ".gobox")
	DefaultConfigPath  = filepath.Join(DefaultConfigDir, "config.yaml")
	DefaultCacheDir    = filepath.Join(DefaultConfigDir, "cache")
	DefaultLogFilePath = filepath.Join(DefaultConfigDir, "logs", "gobox.log")
	DefaultAPIURL      = "https://api.box.com/2.0"
	DefaultUploadURL   = "https://upload.box.com/api/2.0"
)

const EnvPrefix = "GOBOX"

const (
	BackendBox    = "box"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

type Config struct {
	Path        string
	Backend     string
	APIURL      string
	UploadURL   string
	AccessToken string
	S3          S3Config
	CacheDir    string
	LogFile     string
}

// ConfigError is a configuration problem found at startup.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// New returns a viper instance with the gobox defaults and environment
// binding. Nested keys map to env vars with "_", e.g. GOBOX_S3_BUCKET.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("backend", BackendBox)
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("upload_url", DefaultUploadURL)
	v.SetDefault("cache_dir", DefaultCacheDir)
	v.SetDefault("log_file", DefaultLogFilePath)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadDotEnv exports the variables of a .env file. A missing file is fine.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &ConfigError{Field: path, Err: err}
	}
	return nil
}

// Read loads the config file into v. An explicit path must exist; the
// default location is optional.
func Read(v *viper.Viper, path string, explicit bool) error {
	if explicit {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(DefaultConfigDir)
		v.SetConfigName("config")
	}
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		var notFound viper.ConfigFileNotFoundError
		if (enoent || errors.As(err, &notFound)) && !explicit {
			return nil
		}
		return &ConfigError{Field: path, Err: err}
	}
	return nil
}

// FromViper builds a Config from the merged file, env and flag values.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Path:        v.ConfigFileUsed(),
		Backend:     strings.ToLower(v.GetString("backend")),
		APIURL:      v.GetString("api_url"),
		UploadURL:   v.GetString("upload_url"),
		AccessToken: v.GetString("access_token"),
		S3: S3Config{
			Bucket:    v.GetString("s3.bucket"),
			Prefix:    v.GetString("s3.prefix"),
			Region:    v.GetString("s3.region"),
			Endpoint:  v.GetString("s3.endpoint"),
			AccessKey: v.GetString("s3.access_key"),
			SecretKey: v.GetString("s3.secret_key"),
		},
		CacheDir: v.GetString("cache_dir"),
		LogFile:  v.GetString("log_file"),
	}
}

// Load reads the config file and returns the validated Config.
func Load(v *viper.Viper, path string, explicit bool) (*Config, error) {
	if err := Read(v, path, explicit); err != nil {
		return nil, err
	}
	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the backend settings and makes the paths absolute.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendBox:
		if c.AccessToken == "" {
			return &ConfigError{Field: "access_token", Err: errors.New("required for the box backend")}
		}
		if err := validateURL(c.APIURL); err != nil {
			return &ConfigError{Field: "api_url", Err: err}
		}
		if err := validateURL(c.UploadURL); err != nil {
			return &ConfigError{Field: "upload_url", Err: err}
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			return &ConfigError{Field: "s3.bucket", Err: errors.New("required for the s3 backend")}
		}
		if c.S3.Endpoint != "" {
			if err := validateURL(c.S3.Endpoint); err != nil {
				return &ConfigError{Field: "s3.endpoint", Err: err}
			}
		}
		c.S3.Prefix = strings.Trim(c.S3.Prefix, "/")
	case BackendMemory:
	default:
		return &ConfigError{Field: "backend", Err: fmt.Errorf("unknown backend %q (box, s3 or memory)", c.Backend)}
	}

	var err error
	if c.CacheDir != "" {
		if c.CacheDir, err = utils.ResolvePath(c.CacheDir); err != nil {
			return &ConfigError{Field: "cache_dir", Err: err}
		}
	}
	if c.LogFile != "" {
		if c.LogFile, err = utils.ResolvePath(c.LogFile); err != nil {
			return &ConfigError{Field: "log_file", Err: err}
		}
	}
	return nil
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must be an http(s) url", s)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", s)
	}
	return nil
}
