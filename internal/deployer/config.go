package deployer

import (
	"bytes"
	_ "embed"
	"fmt"
	"math/big"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Configuration controls a deployment run.
//
// Loaded from YAML and validated against the embedded CUE schema:
//
//	network_name: local
//	deployer: alice
//	use_normal_time: false
//	create_genesis_universe: true
//	market_creation_fee: "0.01"
//	faucet:
//	  alice: "1000"
type Configuration struct {
	NetworkName string `yaml:"network_name" json:"network_name"`
	Deployer    string `yaml:"deployer" json:"deployer"`

	// ControllerAddress reuses an existing Controller. Contracts whose code
	// hash matches the registered one are not uploaded again.
	ControllerAddress string `yaml:"controller_address,omitempty" json:"controller_address,omitempty"`

	// GenesisDenominationTokenAddress overrides the token the genesis
	// universe is denominated in.
	GenesisDenominationTokenAddress string `yaml:"genesis_denomination_token_address,omitempty" json:"genesis_denomination_token_address,omitempty"`

	// CommitHash is recorded with every contract registration.
	CommitHash string `yaml:"commit_hash,omitempty" json:"commit_hash,omitempty"`

	UseNormalTime         bool `yaml:"use_normal_time" json:"use_normal_time"`
	CreateGenesisUniverse bool `yaml:"create_genesis_universe" json:"create_genesis_universe"`

	// IsProduction skips the test denomination token and the faucet.
	IsProduction bool `yaml:"is_production" json:"is_production"`

	// ApproveAugur makes every faucet account approve AugurLite to spend
	// its tokens, so market creation fees can be collected.
	ApproveAugur bool `yaml:"approve_augur" json:"approve_augur"`

	// MarketCreationFee of the genesis universe, in whole tokens.
	MarketCreationFee string `yaml:"market_creation_fee,omitempty" json:"market_creation_fee,omitempty"`

	// Faucet maps test account names to token amounts, in whole tokens.
	Faucet map[string]string `yaml:"faucet,omitempty" json:"faucet,omitempty"`

	// Whitelist names uploaded contracts to add to the Controller whitelist.
	Whitelist []string `yaml:"whitelist,omitempty" json:"whitelist,omitempty"`

	AddressMappingOutputPath     string `yaml:"address_mapping_output_path,omitempty" json:"address_mapping_output_path,omitempty"`
	UploadBlockNumbersOutputPath string `yaml:"upload_block_numbers_output_path,omitempty" json:"upload_block_numbers_output_path,omitempty"`
}

// DefaultConfiguration is a local deployment with controlled time, a
// genesis universe and funded, approved test accounts.
func DefaultConfiguration() Configuration {
	return Configuration{
		NetworkName:           "local",
		Deployer:              "alice",
		CreateGenesisUniverse: true,
		ApproveAugur:          true,
		MarketCreationFee:     "0.01",
		Faucet: map[string]string{
			"alice":   "1000",
			"bob":     "1000",
			"charlie": "1000",
		},
	}
}

// ConfigError reports a configuration that does not satisfy the schema.
type ConfigError struct {
	Path    string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config: %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("config: %s", e.Message)
}

// LoadConfiguration reads a YAML configuration file and validates it.
func LoadConfiguration(path string) (Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfiguration(data)
}

// ParseConfiguration decodes YAML strictly (unknown fields are errors) and
// validates the result.
func ParseConfiguration(data []byte) (Configuration, error) {
	var cfg Configuration
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Configuration{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}

// Validate checks the configuration against the CUE schema.
func (c Configuration) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	v := ctx.Encode(c)
	if err := v.Err(); err != nil {
		return formatCUEError(err)
	}
	unified := schema.LookupPath(cue.ParsePath("#Configuration")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ConfigError{Message: err.Error()}
	}
	first := errs[0]
	format, args := first.Msg()
	return &ConfigError{
		Path:    strings.Join(first.Path(), "."),
		Message: fmt.Sprintf(format, args...),
	}
}

// TokenUnits converts a whole-token amount ("12.5") into base units using
// the token's 18 decimals. Fractions finer than one base unit are rejected.
func TokenUnits(amount string) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("invalid amount %q: negative", amount)
	}
	units := d.Shift(18)
	if !units.IsInteger() {
		return nil, fmt.Errorf("invalid amount %q: more than 18 decimal places", amount)
	}
	return units.BigInt(), nil
}

// FormatTokenUnits renders base units as a whole-token decimal string.
func FormatTokenUnits(units *big.Int) string {
	return decimal.NewFromBigInt(units, -18).String()
}
