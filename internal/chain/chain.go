package chain

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/roach88/augurlite/internal/abi"
	"github.com/roach88/augurlite/internal/store"
)

// MaxCallDepth bounds nested contract calls within one transaction.
const MaxCallDepth = 64

// Chain is a single-writer simulated blockchain.
//
// Every successful transaction is mined into its own block. A failed
// transaction is reverted completely: state, nonce, block number and logs
// are left exactly as they were before the call.
//
// Thread-safety: all methods are safe for concurrent use; transactions are
// serialized by an internal mutex.
type Chain struct {
	mu       sync.Mutex
	codes    map[string]Code
	world    *world
	receipts []*Receipt
	head     string // id of the last snapshot created or restored
	time     TimeSource
	ids      IDGenerator
	logger   *slog.Logger
	store    *store.Store
}

// Option configures a Chain.
type Option func(*Chain)

// WithLogger sets the structured logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) {
		c.logger = logger
	}
}

// WithTimeSource sets the block timestamp source. Default: SystemTime.
func WithTimeSource(ts TimeSource) Option {
	return func(c *Chain) {
		c.time = ts
	}
}

// WithIDGenerator sets the snapshot id source. Default: UUIDv7Generator.
func WithIDGenerator(ids IDGenerator) Option {
	return func(c *Chain) {
		c.ids = ids
	}
}

// WithStore persists receipts and snapshots to s.
func WithStore(s *store.Store) Option {
	return func(c *Chain) {
		c.store = s
	}
}

// WithCode registers contract code kinds.
func WithCode(codes ...Code) Option {
	return func(c *Chain) {
		for _, code := range codes {
			c.codes[code.Kind()] = code
		}
	}
}

// New creates an empty chain at block 0.
func New(opts ...Option) *Chain {
	c := &Chain{
		codes:  make(map[string]Code),
		world:  newWorld(),
		time:   SystemTime{},
		ids:    UUIDv7Generator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.world.Timestamp = c.time.Now()
	return c
}

// Register adds a code kind. Registering the same kind twice is an error.
func (c *Chain) Register(code Code) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, dup := c.codes[code.Kind()]; dup {
		return fmt.Errorf("code kind %q already registered", code.Kind())
	}
	c.codes[code.Kind()] = code
	return nil
}

// Code returns the registered code for kind.
func (c *Chain) Code(kind string) (Code, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	code, ok := c.codes[kind]
	return code, ok
}

// Deploy creates a contract of the given kind from an account. The address
// is crypto.CreateAddress(from, nonce). On failure the returned receipt is
// marked failed and err is a *TxFailedError.
func (c *Chain) Deploy(ctx context.Context, from common.Address, kind string, args ...any) (*Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.apply(ctx, from, common.Address{}, "constructor:"+kind, args, func(ex *executor, nonce uint64) ([]any, error) {
		addr, err := ex.deployAt(from, crypto.CreateAddress(from, nonce), kind, args, 0)
		if err != nil {
			return nil, err
		}
		ex.created = addr
		return nil, nil
	})
}

// Transact sends a state-changing call from an account. On failure the
// returned receipt is marked failed and err is a *TxFailedError.
func (c *Chain) Transact(ctx context.Context, from, to common.Address, method string, args ...any) (*Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.apply(ctx, from, to, method, args, func(ex *executor, _ uint64) ([]any, error) {
		return ex.call(from, to, method, args, 0, false)
	})
}

// Call executes a method against a throwaway copy of the current state and
// returns its outputs. Nothing it does is kept.
func (c *Chain) Call(ctx context.Context, from, to common.Address, method string, args ...any) ([]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ex := &executor{chain: c, world: c.world.clone()}
	return ex.call(from, to, method, args, 0, false)
}

// apply runs one transaction against a working copy of the world and
// commits it only on success. Caller must hold c.mu.
func (c *Chain) apply(
	ctx context.Context,
	from, to common.Address,
	method string,
	args []any,
	run func(ex *executor, nonce uint64) ([]any, error),
) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	working := c.world.clone()
	nonce := working.account(from, true).Nonce
	working.Block++
	if ts := c.time.Now(); ts > working.Timestamp {
		working.Timestamp = ts
	}

	ex := &executor{chain: c, world: working}
	out, runErr := run(ex, nonce)

	receipt := &Receipt{
		TxHash:      txHash(from, nonce, to, method, ex.calldata),
		BlockNumber: working.Block,
		From:        from,
		To:          to,
		Method:      method,
		Args:        args,
	}

	if runErr != nil {
		var failure *TxFailedError
		if !errors.As(runErr, &failure) {
			return nil, runErr
		}
		receipt.Status = StatusFailed
		receipt.Failure = failure
		receipt.BlockNumber = c.world.Block

		c.logger.Debug("transaction failed",
			"hash", receipt.TxHash.Hex(),
			"from", from.Hex(),
			"method", method,
			"code", string(failure.Code),
			"reason", failure.Reason,
		)
		if err := c.persistReceipt(ctx, receipt); err != nil {
			c.logger.Warn("persist failed receipt", "hash", receipt.TxHash.Hex(), "error", err)
		}
		return receipt, runErr
	}

	working.Accounts[from].Nonce++
	working.TxCount++

	receipt.Seq = working.TxCount
	receipt.Status = StatusSuccess
	receipt.Return = out
	receipt.Logs = ex.logs
	receipt.ContractAddress = ex.created

	c.world = working
	c.receipts = append(c.receipts, receipt)

	c.logger.Debug("transaction",
		"hash", receipt.TxHash.Hex(),
		"block", receipt.BlockNumber,
		"from", from.Hex(),
		"method", method,
		"logs", len(receipt.Logs),
	)

	if err := c.persistReceipt(ctx, receipt); err != nil {
		return receipt, fmt.Errorf("persist receipt: %w", err)
	}
	return receipt, nil
}

// txHash is keccak256(from || nonce || to || calldata). When the call never
// got far enough to pack its arguments, the method name stands in for the
// calldata.
func txHash(from common.Address, nonce uint64, to common.Address, method string, calldata []byte) common.Hash {
	if calldata == nil {
		calldata = []byte(method)
	}
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	return crypto.Keccak256Hash(from.Bytes(), n[:], to.Bytes(), calldata)
}

// BlockNumber returns the current block number.
func (c *Chain) BlockNumber() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.world.Block
}

// Now returns the timestamp of the latest block.
func (c *Chain) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.world.Timestamp
}

// Nonce returns the number of successful transactions sent by addr.
func (c *Chain) Nonce(addr common.Address) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if acct := c.world.account(addr, false); acct != nil {
		return acct.Nonce
	}
	return 0
}

// CodeAt returns the code kind deployed at addr, or "".
func (c *Chain) CodeAt(addr common.Address) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.world.codeAt(addr)
}

// StateRoot returns keccak256 of the encoded world state.
func (c *Chain) StateRoot() (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.world.root()
}

// Receipts returns the receipts of all committed transactions since genesis
// (or since the restored snapshot), oldest first.
func (c *Chain) Receipts() []*Receipt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.receipts)
}

// Logs returns every log of every committed transaction, oldest first.
func (c *Chain) Logs() []Log {
	c.mu.Lock()
	defer c.mu.Unlock()

	var logs []Log
	for _, r := range c.receipts {
		logs = append(logs, r.Logs...)
	}
	return logs
}

// executor carries the mutable state of one transaction.
type executor struct {
	chain    *Chain
	world    *world
	logs     []Log
	calldata []byte
	created  common.Address
}

func (ex *executor) call(from, to common.Address, name string, args []any, depth int, readOnly bool) ([]any, error) {
	if depth > MaxCallDepth {
		return nil, newFailure(CodeCallDepth, to, name, "call depth %d exceeds %d", depth, MaxCallDepth)
	}

	acct := ex.world.account(to, false)
	if acct == nil || acct.Code == "" {
		return nil, newFailure(CodeNoCode, to, name, "no contract at %s", to.Hex())
	}
	code, ok := ex.chain.codes[acct.Code]
	if !ok {
		return nil, newFailure(CodeNoCode, to, name, "code kind %q is not registered", acct.Code)
	}

	m, ok := code.ABI().Method(name)
	if !ok {
		return nil, newFailure(CodeUnknownMethod, to, name, "%s has no method %q", code.Kind(), name)
	}
	coerced, err := m.Coerce(args)
	if err != nil {
		return nil, newFailure(CodeBadArguments, to, name, "%v", err)
	}
	if depth == 0 {
		if data, err := m.Pack(coerced); err == nil {
			ex.calldata = data
		}
	}

	ro := readOnly || m.View
	env := &Env{
		ex:       ex,
		sender:   from,
		self:     to,
		method:   name,
		depth:    depth,
		readOnly: ro,
		storage:  &Storage{acct: acct, readOnly: ro, contract: to, method: name},
	}

	out, err := code.Invoke(env, m, coerced)
	if err != nil {
		return nil, annotate(err, to, name)
	}

	outputs, err := m.CoerceOutputs(out)
	if err != nil {
		return nil, fmt.Errorf("%s.%s returned invalid outputs: %w", code.Kind(), name, err)
	}
	return outputs, nil
}

func (ex *executor) deploy(creator common.Address, kind string, args []any, depth int) (common.Address, error) {
	acct := ex.world.account(creator, true)
	addr := crypto.CreateAddress(creator, acct.Nonce)
	acct.Nonce++
	return ex.deployAt(creator, addr, kind, args, depth)
}

func (ex *executor) deployAt(creator, addr common.Address, kind string, args []any, depth int) (common.Address, error) {
	if depth > MaxCallDepth {
		return common.Address{}, newFailure(CodeCallDepth, addr, "constructor", "call depth %d exceeds %d", depth, MaxCallDepth)
	}

	code, ok := ex.chain.codes[kind]
	if !ok {
		return common.Address{}, newFailure(CodeNoCode, addr, "constructor", "code kind %q is not registered", kind)
	}

	ctor := code.Constructor()
	coerced, err := ctor.Coerce(args)
	if err != nil {
		return common.Address{}, newFailure(CodeBadArguments, addr, "constructor", "%v", err)
	}
	if depth == 0 {
		if data, err := ctor.Pack(coerced); err == nil {
			ex.calldata = append([]byte(kind), data...)
		}
	}

	if existing := ex.world.account(addr, false); existing != nil && existing.Code != "" {
		return common.Address{}, newFailure(CodeReverted, addr, "constructor", "address collision at %s", addr.Hex())
	}
	acct := ex.world.account(addr, true)
	acct.Code = kind

	env := &Env{
		ex:      ex,
		sender:  creator,
		self:    addr,
		method:  "constructor",
		depth:   depth,
		storage: &Storage{acct: acct, contract: addr, method: "constructor"},
	}
	if err := code.Construct(env, coerced); err != nil {
		return common.Address{}, annotate(err, addr, "constructor")
	}
	return addr, nil
}

// annotate fills in the failing contract and method on a failure that does
// not carry them yet, and turns any other error into a REVERTED failure.
func annotate(err error, contract common.Address, method string) error {
	var failure *TxFailedError
	if errors.As(err, &failure) {
		if failure.Method == "" {
			failure.Contract = contract
			failure.Method = method
		}
		return failure
	}
	return newFailure(CodeReverted, contract, method, "%v", err)
}

// persistReceipt writes a receipt to the store, if one is configured.
func (c *Chain) persistReceipt(ctx context.Context, r *Receipt) error {
	if c.store == nil {
		return nil
	}
	return c.store.WriteTransaction(ctx, receiptRecord(r))
}

func receiptRecord(r *Receipt) store.TransactionRecord {
	rec := store.TransactionRecord{
		Hash:        r.TxHash.Hex(),
		ChainSeq:    int64(r.Seq),
		BlockNumber: r.BlockNumber,
		From:        r.From.Hex(),
		To:          r.To.Hex(),
		Method:      r.Method,
		Args:        abi.FormatAll(r.Args),
		Status:      r.Status,
		Reason:      r.FailureReason(),
		Return:      abi.FormatAll(r.Return),
	}
	if r.ContractAddress != (common.Address{}) {
		rec.ContractAddress = r.ContractAddress.Hex()
	}
	for i, l := range r.Logs {
		rec.Logs = append(rec.Logs, store.LogRecord{
			Index:   i,
			Address: l.Address.Hex(),
			Event:   l.Event,
			Fields:  l.FieldMap(),
		})
	}
	return rec
}
