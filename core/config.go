package core

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type FeePolicy string

const (
	// FeePolicySubmitter pays fees to the executor or relaying submitter.
	FeePolicySubmitter FeePolicy = "submitter"
	// FeePolicySink pays every fee to FeeConfig.Sink.
	FeePolicySink FeePolicy = "sink"
)

type FeeConfig struct {
	Policy string `koanf:"policy" mapstructure:"policy"`
	Sink   string `koanf:"sink" mapstructure:"sink"`
}

type WrapperConfig struct {
	BaseToken string `koanf:"base_token" mapstructure:"base_token"`
}

type Config struct {
	Name          string        `koanf:"name" mapstructure:"name"`
	Symbol        string        `koanf:"symbol" mapstructure:"symbol"`
	Decimals      uint8         `koanf:"decimals" mapstructure:"decimals"`
	LedgerAddress string        `koanf:"ledger_address" mapstructure:"ledger_address"`
	Admin         string        `koanf:"admin" mapstructure:"admin"`
	Fees          FeeConfig     `koanf:"fees" mapstructure:"fees"`
	Wrapper       WrapperConfig `koanf:"wrapper" mapstructure:"wrapper"`

	// decimalsSet lets an explicit zero override a lower layer.
	decimalsSet bool
}

// WithDecimals returns a copy with Decimals set explicitly, including zero.
func (c Config) WithDecimals(decimals uint8) Config {
	c.Decimals = decimals
	c.decimalsSet = true
	return c
}

func DefaultConfig() Config {
	return Config{
		Name:     "Ledger",
		Symbol:   "LG",
		Decimals: 18,
		Fees: FeeConfig{
			Policy: string(FeePolicySubmitter),
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("core: name is required")
	}
	if strings.TrimSpace(c.Symbol) == "" {
		return fmt.Errorf("core: symbol is required")
	}
	if !validOptionalAddress(c.LedgerAddress) {
		return fmt.Errorf("core: ledger_address is invalid")
	}
	if strings.TrimSpace(c.LedgerAddress) != "" && c.Ledger() == ZeroAddress {
		return fmt.Errorf("core: ledger_address must not be the zero address")
	}
	if !validOptionalAddress(c.Admin) {
		return fmt.Errorf("core: admin is invalid")
	}
	if !validOptionalAddress(c.Wrapper.BaseToken) {
		return fmt.Errorf("core: wrapper.base_token is invalid")
	}
	switch c.FeePolicy() {
	case FeePolicySubmitter:
	case FeePolicySink:
		sink := strings.TrimSpace(c.Fees.Sink)
		if sink == "" || !common.IsHexAddress(sink) {
			return fmt.Errorf("core: fees.sink is required when fees.policy is sink")
		}
		if common.HexToAddress(sink) == ZeroAddress {
			return fmt.Errorf("core: fees.sink must not be the zero address")
		}
	default:
		return fmt.Errorf("core: fees.policy %q is invalid", c.Fees.Policy)
	}
	return nil
}

func (c Config) FeePolicy() FeePolicy {
	policy := FeePolicy(strings.ToLower(strings.TrimSpace(c.Fees.Policy)))
	if policy == "" {
		return FeePolicySubmitter
	}
	return policy
}

func (c Config) FeeSink() Address {
	return parseOptionalAddress(c.Fees.Sink)
}

// Ledger is the configured ledger identity. NewLedger replaces an empty
// value with a per-instance identity.
func (c Config) Ledger() Address {
	return parseOptionalAddress(c.LedgerAddress)
}

func (c Config) AdminAddress() Address {
	return parseOptionalAddress(c.Admin)
}

func (c Config) BaseToken() Address {
	return parseOptionalAddress(c.Wrapper.BaseToken)
}

func validOptionalAddress(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || common.IsHexAddress(value)
}

func parseOptionalAddress(value string) Address {
	value = strings.TrimSpace(value)
	if value == "" {
		return ZeroAddress
	}
	return common.HexToAddress(value)
}
