package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	configDirName      = ".giftaid"
	configFileName     = "config.yaml"
	credentialFileName = "credential"
)

// LocalConfig holds configuration loaded from a local file, for workstation
// submissions outside AWS.
type LocalConfig struct {
	Charity Charity
	Gateway localGatewayConfig
	Vendor  Vendor
}

// localGatewayConfig holds gateway settings from the config file.
type localGatewayConfig struct {
	SenderID string
	TestMode bool
	URL      string
}

// localCharity represents the charity section of the config file.
type localCharity struct {
	HMRCRef string `yaml:"hmrc_ref"`
	Name    string `yaml:"name"`
}

// localConfig represents the local configuration file structure.
type localConfig struct {
	Charity localCharity `yaml:"charity"`
	Gateway localGateway `yaml:"gateway"`
	Vendor  localVendor  `yaml:"vendor"`
}

// localGateway represents the gateway section of the config file.
type localGateway struct {
	SenderID string `yaml:"sender_id"`
	TestMode bool   `yaml:"test_mode"`
	URL      string `yaml:"url"`
}

// localVendor represents the vendor section of the config file.
type localVendor struct {
	ID      string `yaml:"id"`
	Product string `yaml:"product"`
	Version string `yaml:"version"`
}

// ConfigDir returns the giftaid configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// ConfigFilePath returns the path to the local config file.
func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// CredentialFilePath returns the path to the local gateway credential file.
func CredentialFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, credentialFileName), nil
}

// LoadLocal loads configuration from the local config file.
func LoadLocal() (*LocalConfig, error) {
	configPath, err := ConfigFilePath()
	if err != nil {
		return nil, err
	}
	return loadLocalFromPath(configPath)
}

// loadLocalFromPath loads and validates a config file at a specific path.
func loadLocalFromPath(configPath string) (*LocalConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var local localConfig
	if err := yaml.Unmarshal(data, &local); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &LocalConfig{}
	cfg.Charity.HMRCRef = local.Charity.HMRCRef
	cfg.Charity.Name = local.Charity.Name
	cfg.Gateway.SenderID = local.Gateway.SenderID
	cfg.Gateway.TestMode = local.Gateway.TestMode
	cfg.Gateway.URL = local.Gateway.URL
	cfg.Vendor.ID = local.Vendor.ID
	cfg.Vendor.Product = local.Vendor.Product
	cfg.Vendor.Version = local.Vendor.Version

	if cfg.Gateway.URL == "" {
		cfg.Gateway.URL = "https://transaction-engine.tax.service.gov.uk/submission"
	}
	if cfg.Vendor.Product == "" {
		cfg.Vendor.Product = "hmrc-gift-aid"
	}
	if cfg.Vendor.Version == "" {
		cfg.Vendor.Version = "1.0.0"
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LocalConfigExists checks if a local config file exists.
func LocalConfigExists() bool {
	configPath, err := ConfigFilePath()
	if err != nil {
		return false
	}
	_, err = os.Stat(configPath)
	return err == nil
}

// validate checks that required fields are set.
func (c *LocalConfig) validate() error {
	var errs []error

	if c.Charity.HMRCRef == "" {
		errs = append(errs, errors.New("charity.hmrc_ref is required"))
	}
	if c.Charity.Name == "" {
		errs = append(errs, errors.New("charity.name is required"))
	}
	if c.Gateway.SenderID == "" {
		errs = append(errs, errors.New("gateway.sender_id is required"))
	}
	if c.Vendor.ID == "" {
		errs = append(errs, errors.New("vendor.id is required"))
	}

	return errors.Join(errs...)
}
