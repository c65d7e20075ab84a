package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: example
description: an example
steps:
  - contract: AugurLite
    method: isKnownUniverse
    args: [Universe]
    send: false
    expect:
      status: success
      result: [true]
  - advance_time: 60
  - contract: Universe
    method: createMarket
    from: bob
    args: ["Q?", "", "", "now+60", 100, 0, bob]
assertions:
  - type: log_count
    event: MarketCreated
    count: 1
`))
	require.NoError(t, err)

	assert.Equal(t, "example", s.Name)
	assert.Equal(t, BaselineKitchenSink, s.Baseline)
	require.Len(t, s.Steps, 3)
	assert.False(t, s.Steps[0].IsSend())
	assert.Equal(t, []any{true}, s.Steps[0].Expect.Result)
	assert.Equal(t, uint64(60), s.Steps[1].AdvanceTime)
	assert.True(t, s.Steps[2].IsSend())
	assert.Equal(t, "bob", s.Steps[2].From)
	assert.Equal(t, []any{"Q?", "", "", "now+60", 100, 0, "bob"}, s.Steps[2].Args)
	assert.Nil(t, s.Steps[2].Expect)
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: misspelled assertions
steps:
  - contract: AugurLite
    method: getController
assertion:
  - type: state_root_unchanged
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assertion")
}

func TestParseScenario_Invalid(t *testing.T) {
	valid := func() Scenario {
		return Scenario{
			Name:        "s",
			Description: "d",
			Baseline:    BaselineKitchenSink,
			Steps:       []Step{{Contract: "AugurLite", Method: "getController"}},
			Assertions:  []Assertion{{Type: AssertStateRootUnchanged}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Scenario)
		want   string
	}{
		{"missing name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"missing description", func(s *Scenario) { s.Description = "" }, "description is required"},
		{"bad baseline", func(s *Scenario) { s.Baseline = "genesis" }, `unknown baseline "genesis"`},
		{"no steps", func(s *Scenario) { s.Steps = nil }, "steps list is required"},
		{"no assertions", func(s *Scenario) { s.Assertions = nil }, "assertions list is required"},
		{"missing contract", func(s *Scenario) { s.Steps[0].Contract = "" }, "steps[0]: contract is required"},
		{"missing method", func(s *Scenario) { s.Steps[0].Method = "" }, "steps[0]: method is required"},
		{"advance with call", func(s *Scenario) { s.Steps[0].AdvanceTime = 5 }, "advance_time cannot be combined"},
		{"bad status", func(s *Scenario) { s.Steps[0].Expect = &Expect{Status: "ok"} }, "status must be success or failed"},
		{"code on success", func(s *Scenario) { s.Steps[0].Expect = &Expect{Status: StatusSuccess, Code: "REVERTED"} }, "code is only valid"},
		{"result on failure", func(s *Scenario) { s.Steps[0].Expect = &Expect{Status: StatusFailed, Result: []any{1}} }, "result is only valid"},
		{"missing assertion type", func(s *Scenario) { s.Assertions[0].Type = "" }, "assertions[0]: type is required"},
		{"unknown assertion", func(s *Scenario) { s.Assertions[0].Type = "trace_order" }, `unknown assertion type "trace_order"`},
		{"log_contains without event", func(s *Scenario) { s.Assertions[0] = Assertion{Type: AssertLogContains} }, "event is required for log_contains"},
		{"log_count without event", func(s *Scenario) { s.Assertions[0] = Assertion{Type: AssertLogCount} }, "event is required for log_count"},
		{"negative count", func(s *Scenario) { s.Assertions[0] = Assertion{Type: AssertLogCount, Event: "X", Count: -1} }, "count must be non-negative"},
		{"known_universe without address", func(s *Scenario) { s.Assertions[0] = Assertion{Type: AssertKnownUniverse} }, "address is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			err := validateScenario(&s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	s := valid()
	assert.NoError(t, validateScenario(&s))
}

func TestLoadScenario_Errors(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unterminated"), 0o644))
	_, err = LoadScenario(path)
	assert.ErrorContains(t, err, "failed to parse YAML")
}

func TestLoadScenarios_Filter(t *testing.T) {
	all, err := LoadScenarios("testdata/scenarios", "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	// Sorted by file name.
	assert.Equal(t, "create_market", all[0].Name)

	some, err := LoadScenarios("testdata/scenarios", "*_universe.yaml")
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, "known_universe", some[0].Name)

	_, err = LoadScenarios("testdata/scenarios", "[")
	assert.ErrorContains(t, err, "invalid filter")
}
