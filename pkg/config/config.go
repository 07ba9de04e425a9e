package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ChainConfig configures the route to one remote chain.
type ChainConfig struct {
	// Chain selector of the remote network
	Selector uint64 `yaml:"selector"`

	// Address authorized as the origin of inbound messages
	Sender string `yaml:"sender"`

	// Remote contract outbound messages are addressed to
	Receiver string `yaml:"receiver"`

	// Reject outbound transfers to this chain when true
	Paused bool `yaml:"paused"`

	// Gas limit forwarded to the router for remote execution
	GasLimit uint64 `yaml:"gas_limit"`

	// Strict sequencing flag forwarded to the router
	Strict bool `yaml:"strict"`
}

// BridgeConfig identifies the bridge's accounts in the ledger.
type BridgeConfig struct {
	// Chain selector of the local network
	LocalSelector uint64 `yaml:"local_selector"`

	// Bridged token address
	Token string `yaml:"token"`

	// Custody account holding fee float and in-flight payments
	Account string `yaml:"account"`

	// Account the router collects delivery fees into
	RouterAccount string `yaml:"router_account"`
}

// FaucetConfig seeds a devnet account so transfers have something to move.
type FaucetConfig struct {
	Account      string `yaml:"account"`
	TokenSupply  string `yaml:"token_supply"`
	NativeSupply string `yaml:"native_supply"`
}

// RouterConfig sets the local router's fee model.
type RouterConfig struct {
	BaseFeeWei  string `yaml:"base_fee_wei"`
	GasPriceWei string `yaml:"gas_price_wei"`
}

type HTTPConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	// AdminKey gates the administrative API surface
	AdminKey string `yaml:"admin_key"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	// Bridge account configuration
	Bridge BridgeConfig `yaml:"bridge"`

	// Remote chains configuration
	Chains map[string]*ChainConfig `yaml:"chains"`

	// Devnet faucet configuration
	Faucet FaucetConfig `yaml:"faucet"`

	// Router fee model
	Router RouterConfig `yaml:"router"`

	// HTTP configuration
	HTTP HTTPConfig `yaml:"http"`

	// Logging configuration
	Logging LogConfig `yaml:"logging"`
}

// LoadConfig loads the configuration from the given file path
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Replace environment variables in the config file
	content := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// If ADMIN_KEY is set in environment, override the config
	if adminKey := os.Getenv("ADMIN_KEY"); adminKey != "" {
		cfg.HTTP.AdminKey = adminKey
	}

	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Bridge: BridgeConfig{
			LocalSelector: 1,
			Token:         "0x0000000000000000000000000000000000000b01",
			Account:       "0x0000000000000000000000000000000000000b02",
			RouterAccount: "0x0000000000000000000000000000000000000b03",
		},
		Chains: map[string]*ChainConfig{},
		Faucet: FaucetConfig{
			Account:      "0x0000000000000000000000000000000000000f01",
			TokenSupply:  "1000000000000000000000000",
			NativeSupply: "1000000000000000000000",
		},
		Router: RouterConfig{
			BaseFeeWei:  "1000000000000000", // 0.001 native
			GasPriceWei: "1000000000",       // 1 gwei
		},
		HTTP: HTTPConfig{
			Port:     8080,
			Host:     "0.0.0.0",
			AdminKey: "",
		},
		Logging: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
