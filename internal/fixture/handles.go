package fixture

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/augurlite/internal/chain"
)

// AugurLite is a typed handle to the AugurLite contract.
type AugurLite struct {
	*Contract
}

// IsKnownUniverse reports whether AugurLite created the universe at addr.
func (a *AugurLite) IsKnownUniverse(addr common.Address) (bool, error) {
	return a.callBool("isKnownUniverse", addr)
}

// TrustedTransfer asks AugurLite to move approved tokens.
func (a *AugurLite) TrustedTransfer(token, from, to common.Address, amount *big.Int) (bool, error) {
	return a.transactBool("trustedTransfer", token, from, to, amount)
}

// LogMarketCreated asks AugurLite to emit a MarketCreated event.
func (a *AugurLite) LogMarketCreated(
	description, extraInfo, tags string,
	universe, marketCreator, designatedReporter common.Address,
	endTime, numTicks, feePerEthInWei int64,
) (bool, error) {
	return a.transactBool("logMarketCreated",
		description, extraInfo, tags,
		universe, marketCreator, designatedReporter,
		endTime, numTicks, feePerEthInWei,
	)
}

// CreateUniverse creates a universe denominated in token.
func (a *AugurLite) CreateUniverse(token common.Address) (common.Address, *chain.Receipt, error) {
	r, err := a.Transact("createUniverse", token)
	if err != nil {
		return common.Address{}, r, err
	}
	return r.Return[0].(common.Address), r, nil
}

// GetController returns the governing Controller.
func (a *AugurLite) GetController() (common.Address, error) {
	return a.callAddress("getController")
}

// GetTimestamp returns the time markets are checked against.
func (a *AugurLite) GetTimestamp() (*big.Int, error) {
	return a.callBig("getTimestamp")
}

// WithSender returns a copy of the handle that sends from addr.
func (a *AugurLite) WithSender(addr common.Address) *AugurLite {
	return &AugurLite{a.Contract.WithSender(addr)}
}

// Universe is a typed handle to a Universe contract.
type Universe struct {
	*Contract
}

// MarketParams are the arguments of Universe.createMarket.
type MarketParams struct {
	Description        string
	ExtraInfo          string
	Tags               string
	EndTime            uint64
	NumTicks           int64
	FeePerEthInWei     *big.Int
	DesignatedReporter common.Address
}

// CreateMarket creates a market and returns its id.
func (u *Universe) CreateMarket(p MarketParams) (*big.Int, *chain.Receipt, error) {
	fee := p.FeePerEthInWei
	if fee == nil {
		fee = new(big.Int)
	}
	r, err := u.Transact("createMarket",
		p.Description, p.ExtraInfo, p.Tags,
		p.EndTime, p.NumTicks, fee, p.DesignatedReporter,
	)
	if err != nil {
		return nil, r, err
	}
	return r.Return[0].(*big.Int), r, nil
}

// GetNumberOfMarkets returns how many markets the universe created.
func (u *Universe) GetNumberOfMarkets() (*big.Int, error) {
	return u.callBig("getNumberOfMarkets")
}

// GetMarketCreationFee returns the fee charged per market, in token units.
func (u *Universe) GetMarketCreationFee() (*big.Int, error) {
	return u.callBig("getMarketCreationFee")
}

// GetDenominationToken returns the universe's token.
func (u *Universe) GetDenominationToken() (common.Address, error) {
	return u.callAddress("getDenominationToken")
}

// WithSender returns a copy of the handle that sends from addr.
func (u *Universe) WithSender(addr common.Address) *Universe {
	return &Universe{u.Contract.WithSender(addr)}
}

// Token is a typed handle to an ERC20 token.
type Token struct {
	*Contract
}

// BalanceOf returns the token balance of owner.
func (t *Token) BalanceOf(owner common.Address) (*big.Int, error) {
	return t.callBig("balanceOf", owner)
}

// Allowance returns how much spender may move on behalf of owner.
func (t *Token) Allowance(owner, spender common.Address) (*big.Int, error) {
	return t.callBig("allowance", owner, spender)
}

// Approve lets spender move up to value of the sender's tokens.
func (t *Token) Approve(spender common.Address, value *big.Int) (bool, error) {
	return t.transactBool("approve", spender, value)
}

// Faucet mints amount to the sender.
func (t *Token) Faucet(amount *big.Int) (bool, error) {
	return t.transactBool("faucet", amount)
}

// WithSender returns a copy of the handle that sends from addr.
func (t *Token) WithSender(addr common.Address) *Token {
	return &Token{t.Contract.WithSender(addr)}
}

// Controller is a typed handle to the Controller contract.
type Controller struct {
	*Contract
}

// Whitelisted reports whether addr is on the whitelist.
func (c *Controller) Whitelisted(addr common.Address) (bool, error) {
	return c.callBool("whitelist", addr)
}

// AddToWhitelist adds addr to the whitelist. Owner only.
func (c *Controller) AddToWhitelist(addr common.Address) (bool, error) {
	return c.transactBool("addToWhitelist", addr)
}

// Lookup returns the address registered under name.
func (c *Controller) Lookup(name string) (common.Address, error) {
	return c.callAddress("lookup", name)
}
