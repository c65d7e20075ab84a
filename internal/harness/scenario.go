package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines a contract-level test scenario.
// Scenarios start from a baseline snapshot, run a list of calls and
// transactions, and assert on the resulting trace and chain state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Baseline selects the snapshot the scenario starts from:
	// "kitchen_sink" (default) or "fresh".
	Baseline string `yaml:"baseline,omitempty"`

	// Steps run in order. A failing step does not stop the scenario; its
	// expect clause decides whether the failure was wanted.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one contract call, or a time advance.
type Step struct {
	// Contract is a registry name (e.g. "AugurLite") or a hex address.
	Contract string `yaml:"contract,omitempty"`

	// Method is the contract method to call.
	Method string `yaml:"method,omitempty"`

	// Args are positional arguments. Address parameters accept contract
	// and account names; integer parameters accept "now" and "now+N".
	Args []any `yaml:"args,omitempty"`

	// From is the sending test account. Default: the deployer.
	From string `yaml:"from,omitempty"`

	// Send commits the call as a transaction. Default: true. With false
	// the call runs read-only and its effects are discarded.
	Send *bool `yaml:"send,omitempty"`

	// AdvanceTime moves block time (and controlled contract time) forward
	// by this many seconds. Mutually exclusive with Contract.
	AdvanceTime uint64 `yaml:"advance_time,omitempty"`

	// Expect checks the outcome. If nil, the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// IsSend reports whether the step runs as a transaction.
func (s Step) IsSend() bool {
	return s.Send == nil || *s.Send
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Status is "success" or "failed".
	Status string `yaml:"status"`

	// Code is the expected failure code (e.g. "REVERTED"). Failed steps only.
	Code string `yaml:"code,omitempty"`

	// Result lists expected return values, compared after rendering
	// (addresses as names, integers as decimal strings).
	Result []any `yaml:"result,omitempty"`
}

// Assertion validates the trace or the final chain state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "log_contains": an event with matching fields was emitted
	// - "log_count": an event was emitted exactly Count times
	// - "known_universe": AugurLite's isKnownUniverse(Address) equals Known
	// - "state_root_unchanged": the state root equals the baseline's
	Type string `yaml:"type"`

	// Event is the event name (log_contains, log_count).
	Event string `yaml:"event,omitempty"`

	// Contract optionally restricts log assertions to one emitter.
	Contract string `yaml:"contract,omitempty"`

	// Fields are expected event fields (log_contains). Subset match.
	Fields map[string]any `yaml:"fields,omitempty"`

	// Count is the expected number of events (log_count).
	Count int `yaml:"count,omitempty"`

	// Address is the universe to check (known_universe).
	Address string `yaml:"address,omitempty"`

	// Known is the expected membership (known_universe). Default: true.
	Known *bool `yaml:"known,omitempty"`
}

// Baseline names.
const (
	BaselineKitchenSink = "kitchen_sink"
	BaselineFresh       = "fresh"
)

// Step status values.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Assertion type constants.
const (
	AssertLogContains        = "log_contains"
	AssertLogCount           = "log_count"
	AssertKnownUniverse      = "known_universe"
	AssertStateRootUnchanged = "state_root_unchanged"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a scenario with strict field validation (catches
// typos like "assertion:" vs "assertions:") and validates it.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if scenario.Baseline == "" {
		scenario.Baseline = BaselineKitchenSink
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir whose base name matches
// filter (a filepath.Match glob; empty matches all), sorted by file name.
func LoadScenarios(dir, filter string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var scenarios []*Scenario
	for _, path := range paths {
		if filter != "" {
			ok, err := filepath.Match(filter, filepath.Base(path))
			if err != nil {
				return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
			}
			if !ok {
				continue
			}
		}
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Baseline != BaselineKitchenSink && s.Baseline != BaselineFresh {
		return fmt.Errorf("unknown baseline %q (want %s or %s)", s.Baseline, BaselineKitchenSink, BaselineFresh)
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step *Step) error {
	if step.AdvanceTime > 0 {
		if step.Contract != "" || step.Method != "" {
			return fmt.Errorf("steps[%d]: advance_time cannot be combined with a call", index)
		}
		return nil
	}
	if step.Contract == "" {
		return fmt.Errorf("steps[%d]: contract is required", index)
	}
	if step.Method == "" {
		return fmt.Errorf("steps[%d]: method is required", index)
	}
	if e := step.Expect; e != nil {
		switch e.Status {
		case StatusSuccess:
			if e.Code != "" {
				return fmt.Errorf("steps[%d].expect: code is only valid for failed steps", index)
			}
		case StatusFailed:
			if len(e.Result) > 0 {
				return fmt.Errorf("steps[%d].expect: result is only valid for successful steps", index)
			}
		default:
			return fmt.Errorf("steps[%d].expect: status must be %s or %s", index, StatusSuccess, StatusFailed)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertLogContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for log_contains", index)
		}
	case AssertLogCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for log_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for log_count", index)
		}
	case AssertKnownUniverse:
		if a.Address == "" {
			return fmt.Errorf("assertions[%d]: address is required for known_universe", index)
		}
	case AssertStateRootUnchanged:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
