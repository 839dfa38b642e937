package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
)

const defaultUnbondSeconds = 21 * 24 * 60 * 60

type Config struct {
	RPCAddress        string `toml:"RPCAddress"`
	DataDir           string `toml:"DataDir"`
	Environment       string `toml:"Environment"`
	LogLevel          string `toml:"LogLevel"`
	AdminAddress      string `toml:"AdminAddress"`
	StakedToken       string `toml:"StakedToken"`
	DecimalDifference uint8  `toml:"DecimalDifference"`
	UnbondSeconds     uint64 `toml:"UnbondSeconds"`
	TreasuryAddress   string `toml:"TreasuryAddress"`
	DistributorsOn    bool   `toml:"DistributorsOn"`
}

// Load reads the configuration at path, creating a commented default file
// when none exists yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks address fields and fills defaults for omitted values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = ":8545"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./stakevault-data"
	}
	if c.UnbondSeconds == 0 {
		c.UnbondSeconds = defaultUnbondSeconds
	}
	if _, err := c.Admin(); err != nil {
		return err
	}
	if _, err := c.Token(); err != nil {
		return err
	}
	if _, _, err := c.Treasury(); err != nil {
		return err
	}
	return nil
}

// Admin returns the decoded admin address.
func (c *Config) Admin() ([20]byte, error) {
	return parseAddress("AdminAddress", c.AdminAddress, true)
}

// Token returns the decoded staked token address.
func (c *Config) Token() ([20]byte, error) {
	return parseAddress("StakedToken", c.StakedToken, true)
}

// Treasury returns the decoded treasury address and whether routing is
// enabled. An empty field disables treasury routing.
func (c *Config) Treasury() ([20]byte, bool, error) {
	if strings.TrimSpace(c.TreasuryAddress) == "" {
		return [20]byte{}, false, nil
	}
	addr, err := parseAddress("TreasuryAddress", c.TreasuryAddress, true)
	if err != nil {
		return [20]byte{}, false, err
	}
	return addr, true, nil
}

func parseAddress(field, value string, required bool) ([20]byte, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		if required {
			return [20]byte{}, fmt.Errorf("config: %s is required", field)
		}
		return [20]byte{}, nil
	}
	if !common.IsHexAddress(trimmed) {
		return [20]byte{}, fmt.Errorf("config: %s is not a valid hex address", field)
	}
	return common.HexToAddress(trimmed), nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:        ":8545",
		DataDir:           "./stakevault-data",
		Environment:       "local",
		LogLevel:          "info",
		AdminAddress:      "",
		StakedToken:       "",
		DecimalDifference: 6,
		UnbondSeconds:     defaultUnbondSeconds,
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, fmt.Errorf("config: wrote default file to %s; set AdminAddress and StakedToken before starting", path)
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(cfg)
}
