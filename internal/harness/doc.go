// Package harness runs contract scenarios against the simulated chain.
//
// A scenario starts from a baseline snapshot, runs contract calls and
// transactions, and asserts on the emitted logs and the final state.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: create_market
//	description: "Bob creates a market in the genesis universe"
//	baseline: kitchen_sink
//	steps:
//	  - contract: Universe
//	    method: createMarket
//	    from: bob
//	    args: ["Will it snow?", "", "weather", "now+3600", 100, 0, bob]
//	    expect:
//	      status: success
//	      result: [2]
//	  - advance_time: 3600
//	  - contract: AugurLite
//	    method: trustedTransfer
//	    args: [AugurLite, AugurLite, AugurLite, 0]
//	    expect: { status: failed, code: REVERTED }
//	assertions:
//	  - type: log_count
//	    event: MarketCreated
//	    count: 1
//	  - type: known_universe
//	    address: Universe
//
// Address arguments accept contract names (as registered by the deployer)
// and test account names; integer arguments accept "now" and "now+N".
//
// # Baselines
//
//   - fresh: the default deployment, nothing else
//   - kitchen_sink: the default deployment plus the sample market
//
// # Assertion Types
//
//   - log_contains: an event with matching fields was emitted
//   - log_count: an event was emitted exactly N times
//   - known_universe: AugurLite's isKnownUniverse for an address
//   - state_root_unchanged: the scenario left no state behind
//
// # Deterministic Testing
//
// The harness uses a deterministic clock and sequential snapshot ids, and
// traces render addresses by name, so the same scenario produces the same
// trace on every run. Traces are compared against golden files with goldie.
package harness
