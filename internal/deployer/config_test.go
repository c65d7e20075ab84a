package deployer

import (
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigurationIsValid(t *testing.T) {
	require.NoError(t, DefaultConfiguration().Validate())
}

func TestParseConfiguration(t *testing.T) {
	cfg, err := ParseConfiguration([]byte(`
network_name: testnet
deployer: bob
use_normal_time: true
create_genesis_universe: true
is_production: false
approve_augur: false
market_creation_fee: "1.5"
faucet:
  charlie: "20"
whitelist: [AugurLite]
`))
	require.NoError(t, err)
	assert.Equal(t, "testnet", cfg.NetworkName)
	assert.Equal(t, "bob", cfg.Deployer)
	assert.True(t, cfg.UseNormalTime)
	assert.Equal(t, "1.5", cfg.MarketCreationFee)
	assert.Equal(t, map[string]string{"charlie": "20"}, cfg.Faucet)
	assert.Equal(t, []string{"AugurLite"}, cfg.Whitelist)
}

func TestParseConfiguration_UnknownField(t *testing.T) {
	_, err := ParseConfiguration([]byte("network_name: local\ndeployer: alice\ngas_price: 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gas_price")
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Configuration)
		field  string
	}{
		{"unknown deployer", func(c *Configuration) { c.Deployer = "mallory" }, "deployer"},
		{"bad network name", func(c *Configuration) { c.NetworkName = "local net" }, "network_name"},
		{"bad controller address", func(c *Configuration) { c.ControllerAddress = "0x1234" }, "controller_address"},
		{"bad commit hash", func(c *Configuration) { c.CommitHash = "abc" }, "commit_hash"},
		{"negative fee", func(c *Configuration) { c.MarketCreationFee = "-1" }, "market_creation_fee"},
		{"unknown whitelist contract", func(c *Configuration) { c.Whitelist = []string{"Market"} }, "whitelist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfiguration()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected *ConfigError, got %T: %v", err, err)
			assert.Contains(t, cfgErr.Error(), tt.field)
		})
	}
}

func TestValidate_FaucetAccount(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.Faucet = map[string]string{"mallory": "1"}
	assert.Error(t, cfg.Validate())
}

func TestLoadConfiguration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deploy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
network_name: local
deployer: alice
use_normal_time: false
create_genesis_universe: false
is_production: false
approve_augur: false
`), 0o644))

	cfg, err := LoadConfiguration(path)
	require.NoError(t, err)
	assert.False(t, cfg.CreateGenesisUniverse)

	_, err = LoadConfiguration(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestTokenUnits(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "1", want: "1000000000000000000"},
		{in: "0.01", want: "10000000000000000"},
		{in: "12.5", want: "12500000000000000000"},
		{in: "0.000000000000000001", want: "1"},
		{in: "0", want: "0"},
		{in: "0.0000000000000000001", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "lots", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := TokenUnits(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFormatTokenUnits(t *testing.T) {
	units, ok := new(big.Int).SetString("12500000000000000000", 10)
	require.True(t, ok)
	assert.Equal(t, "12.5", FormatTokenUnits(units))
	assert.Equal(t, "0", FormatTokenUnits(new(big.Int)))
}
