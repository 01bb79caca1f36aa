package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Mode string `yaml:"mode"`
		TLS  struct {
			Enabled  bool   `yaml:"enabled"`
			CertFile string `yaml:"cert_file"`
			KeyFile  string `yaml:"key_file"`
		} `yaml:"tls"`
	} `yaml:"server"`

	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`

	Postgres struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"postgres"`

	Elasticsearch struct {
		URL      string `yaml:"url"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"elasticsearch"`

	FaceRecognition struct {
		PythonBin  string  `yaml:"python_bin"`
		ScriptPath string  `yaml:"script_path"`
		Threshold  float64 `yaml:"threshold"`
	} `yaml:"face_recognition"`
}

func Load() (*Config, error) {
	// Look for config in multiple locations
	configPaths := []string{
		"./configs/config.yaml",
		"../configs/config.yaml",
		"/etc/clinic-flow/config.yaml",
	}

	var config Config
	for _, path := range configPaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}

		configFile, err := os.ReadFile(absPath)
		if err != nil {
			continue
		}

		if err := yaml.Unmarshal(configFile, &config); err != nil {
			return nil, err
		}

		return &config, nil
	}

	return nil, fmt.Errorf("no configuration file found")
}

// LoadFrom reads a config file from an explicit path.
func LoadFrom(path string) (*Config, error) {
	configFile, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(configFile, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
