package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/augurlite/internal/chain"
	"github.com/roach88/augurlite/internal/deployer"
	"github.com/roach88/augurlite/internal/fixture"
	"github.com/roach88/augurlite/internal/store"
	"github.com/roach88/augurlite/internal/testutil"
)

// Harness runs scenarios against a fixture with a deterministic clock and
// snapshot ids. Baselines are built once in New; every Run resets to its
// scenario's baseline first, so scenarios never see each other's effects.
type Harness struct {
	fixture   *fixture.Fixture
	baselines map[string]*chain.Snapshot
	logger    *slog.Logger
}

type options struct {
	logger *slog.Logger
	store  *store.Store
}

// Option configures a Harness.
type Option func(*options)

// WithLogger sets the structured logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore persists every scenario transaction and the baseline
// snapshots.
func WithStore(s *store.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// New deploys the default configuration on a fresh fixture and records the
// two baselines: "fresh" (just deployed) and "kitchen_sink" (plus the
// sample market).
func New(ctx context.Context, opts ...Option) (*Harness, error) {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	fixtureOpts := []fixture.Option{
		fixture.WithLogger(o.logger),
		fixture.WithIDGenerator(testutil.NewSequentialIDs("baseline")),
	}
	if o.store != nil {
		fixtureOpts = append(fixtureOpts, fixture.WithStore(o.store))
	}
	f := fixture.New(fixtureOpts...)

	if _, err := f.Deploy(ctx, deployer.DefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("baseline %s: %w", BaselineFresh, err)
	}
	fresh, err := f.CreateSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("baseline %s: %w", BaselineFresh, err)
	}

	if err := fixture.CreateSampleMarket(ctx, f); err != nil {
		return nil, fmt.Errorf("baseline %s: %w", BaselineKitchenSink, err)
	}
	kitchenSink, err := f.CreateSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("baseline %s: %w", BaselineKitchenSink, err)
	}

	return &Harness{
		fixture: f,
		baselines: map[string]*chain.Snapshot{
			BaselineFresh:       fresh,
			BaselineKitchenSink: kitchenSink,
		},
		logger: o.logger,
	}, nil
}

// Fixture returns the fixture scenarios run on.
func (h *Harness) Fixture() *fixture.Fixture {
	return h.fixture
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Reset to the scenario's baseline snapshot
//  2. Execute steps, checking expect clauses
//  3. Evaluate assertions against the trace and final state
//
// Step and assertion failures are reported in the Result. The returned
// error is reserved for problems running the scenario at all.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	baseline := scenario.Baseline
	if baseline == "" {
		baseline = BaselineKitchenSink
	}
	snap, ok := h.baselines[baseline]
	if !ok {
		return nil, fmt.Errorf("unknown baseline %q", baseline)
	}
	if err := h.fixture.ResetToSnapshot(snap); err != nil {
		return nil, fmt.Errorf("reset to %s: %w", baseline, err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i+1, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	actx := &AssertionContext{
		Ctx:      ctx,
		Fixture:  h.fixture,
		Baseline: snap,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"baseline", baseline,
		"steps", len(scenario.Steps),
		"pass", result.Pass,
	)
	return result, nil
}

// executeStep runs one step and appends its trace event.
func (h *Harness) executeStep(ctx context.Context, n int, step Step, result *Result) error {
	event, err := Execute(ctx, h.fixture, n, step)
	if err != nil {
		return err
	}

	result.Trace = append(result.Trace, event)
	if event.Kind == KindAdvanceTime {
		return nil
	}
	for _, msg := range checkExpect(event, step.Expect) {
		result.AddError(fmt.Sprintf("step %d (%s.%s): %s", n, step.Contract, step.Method, msg))
	}

	h.logger.Debug("step completed",
		"step", n,
		"contract", event.Contract,
		"method", event.Method,
		"status", event.Status,
	)
	return nil
}

// Execute runs one step on f and returns its trace event, numbered n.
// Transaction failures are outcomes recorded in the event, not errors; the
// returned error means the step could not be run at all (unknown contract,
// bad argument, canceled context).
func Execute(ctx context.Context, f *fixture.Fixture, n int, step Step) (TraceEvent, error) {
	if step.AdvanceTime > 0 {
		if err := f.AdvanceTime(ctx, step.AdvanceTime); err != nil {
			return TraceEvent{}, err
		}
		return TraceEvent{Step: n, Kind: KindAdvanceTime, Seconds: step.AdvanceTime}, nil
	}

	to, err := f.Resolve(step.Contract)
	if err != nil {
		return TraceEvent{}, err
	}
	from, err := sender(f, step.From)
	if err != nil {
		return TraceEvent{}, err
	}
	args, err := f.ResolveArgs(to, step.Method, step.Args)
	if err != nil {
		return TraceEvent{}, err
	}

	event := TraceEvent{
		Step:     n,
		Kind:     KindCall,
		Contract: f.Name(to),
		Method:   step.Method,
		From:     f.Name(from),
		Args:     f.DescribeAll(args),
	}

	var out []any
	if step.IsSend() {
		event.Kind = KindTransact
		var receipt *chain.Receipt
		receipt, err = f.Chain.Transact(ctx, from, to, step.Method, args...)
		if err == nil {
			out = receipt.Return
			for _, l := range receipt.Logs {
				event.Logs = append(event.Logs, TraceLog{
					Contract: f.Name(l.Address),
					Event:    l.Event,
					Fields:   f.DescribeLog(l),
				})
			}
		}
	} else {
		out, err = f.Chain.Call(ctx, from, to, step.Method, args...)
	}

	var failure *chain.TxFailedError
	switch {
	case err == nil:
		event.Status = StatusSuccess
		event.Result = f.DescribeAll(out)
	case errors.As(err, &failure):
		event.Status = StatusFailed
		event.Failure = &Failure{
			Code:     string(failure.Code),
			Contract: f.Name(failure.Contract),
			Method:   failure.Method,
			Reason:   f.DescribeText(failure.Reason),
		}
	default:
		return TraceEvent{}, err
	}
	return event, nil
}

// sender resolves a step's from field. Empty means the deployer.
func sender(f *fixture.Fixture, name string) (common.Address, error) {
	if name == "" {
		d := f.Deployment()
		if d == nil {
			return common.Address{}, fmt.Errorf("no deployment to default the sender from")
		}
		return d.Deployer, nil
	}
	acct, err := chain.LookupAccount(name)
	if err != nil {
		return common.Address{}, err
	}
	return acct.Address, nil
}

// checkExpect compares a step outcome with its expect clause. A missing
// clause expects success.
func checkExpect(event TraceEvent, expect *Expect) []string {
	if expect == nil {
		expect = &Expect{Status: StatusSuccess}
	}

	if event.Status != expect.Status {
		msg := fmt.Sprintf("expected %s, got %s", expect.Status, event.Status)
		if event.Failure != nil {
			msg += fmt.Sprintf(": %s: %s", event.Failure.Code, event.Failure.Reason)
		}
		return []string{msg}
	}

	var errs []string
	if expect.Code != "" && event.Failure != nil && event.Failure.Code != expect.Code {
		errs = append(errs, fmt.Sprintf("expected failure code %s, got %s", expect.Code, event.Failure.Code))
	}
	if len(expect.Result) > 0 {
		if len(expect.Result) != len(event.Result) {
			errs = append(errs, fmt.Sprintf("expected %d return values, got %d", len(expect.Result), len(event.Result)))
		} else {
			for i := range expect.Result {
				if !valuesEqual(expect.Result[i], event.Result[i]) {
					errs = append(errs, fmt.Sprintf("result[%d]: expected %v, got %v", i, expect.Result[i], event.Result[i]))
				}
			}
		}
	}
	return errs
}
