package fixture

import (
	"context"
	"fmt"
	"math/big"

	"github.com/roach88/augurlite/internal/chain"
	"github.com/roach88/augurlite/internal/deployer"
)

// SampleMarket is the market every kitchen-sink chain contains.
var SampleMarket = MarketParams{
	Description:        "Will it rain in Lisbon on 2020-01-02?",
	ExtraInfo:          `{"resolutionSource":"IPMA"}`,
	Tags:               "weather",
	EndTime:            0, // filled in relative to block time
	NumTicks:           10000,
	FeePerEthInWei:     big.NewInt(1e16),
	DesignatedReporter: chain.Bob.Address,
}

// SampleMarketDuration is how far past deployment the sample market ends.
const SampleMarketDuration = 24 * 60 * 60

// BuildKitchenSink deploys the default configuration onto f and creates
// the sample market from Alice. The result is the baseline most tests and
// scenarios start from.
func BuildKitchenSink(ctx context.Context, f *Fixture) error {
	if _, err := f.Deploy(ctx, deployer.DefaultConfiguration()); err != nil {
		return fmt.Errorf("kitchen sink: %w", err)
	}
	if err := CreateSampleMarket(ctx, f); err != nil {
		return fmt.Errorf("kitchen sink: %w", err)
	}
	return nil
}

// CreateSampleMarket creates SampleMarket in the genesis universe from
// Alice, ending SampleMarketDuration after the latest block.
func CreateSampleMarket(ctx context.Context, f *Fixture) error {
	universe, err := f.Universe()
	if err != nil {
		return err
	}
	market := SampleMarket
	market.EndTime = f.Chain.Now() + SampleMarketDuration
	alice := &Universe{universe.Contract.WithSender(chain.Alice.Address).WithContext(ctx)}
	if _, _, err := alice.CreateMarket(market); err != nil {
		return fmt.Errorf("sample market: %w", err)
	}
	return nil
}
