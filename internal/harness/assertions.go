package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/augurlite/internal/chain"
	"github.com/roach88/augurlite/internal/fixture"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			if event.Kind == KindAdvanceTime {
				fmt.Fprintf(&buf, "  [%d] advance_time %d\n", event.Step, event.Seconds)
				continue
			}
			fmt.Fprintf(&buf, "  [%d] %s.%s %v -> %s\n", event.Step, event.Contract, event.Method, event.Args, event.Status)
			for _, l := range event.Logs {
				fmt.Fprintf(&buf, "        %s.%s %v\n", l.Contract, l.Event, l.Fields)
			}
		}
	}

	return buf.String()
}

// AssertionContext provides chain access for state assertions.
type AssertionContext struct {
	Ctx      context.Context
	Fixture  *fixture.Fixture
	Baseline *chain.Snapshot
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertLogContains:
			err = assertLogContains(result, assertion)
		case AssertLogCount:
			err = assertLogCount(result, assertion)
		case AssertKnownUniverse:
			if actx == nil || actx.Fixture == nil {
				err = fmt.Errorf("assertion[%d]: known_universe requires a fixture", i)
			} else {
				err = assertKnownUniverse(actx, assertion)
			}
		case AssertStateRootUnchanged:
			if actx == nil || actx.Fixture == nil || actx.Baseline == nil {
				err = fmt.Errorf("assertion[%d]: state_root_unchanged requires a fixture and baseline", i)
			} else {
				err = assertStateRootUnchanged(actx, result)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

// assertLogContains checks that some emitted log has the event name, the
// emitter (if given) and all expected fields (subset match).
func assertLogContains(result *Result, assertion Assertion) error {
	for _, l := range result.Logs() {
		if l.Event != assertion.Event {
			continue
		}
		if assertion.Contract != "" && l.Contract != assertion.Contract {
			continue
		}
		if matchFields(l.Fields, assertion.Fields) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertLogContains,
		Expected: fmt.Sprintf("event %s with fields %s", eventName(assertion), formatFields(assertion.Fields)),
		Actual:   "not found in trace",
		Trace:    result.Trace,
	}
}

// assertLogCount checks the event was emitted exactly Count times.
func assertLogCount(result *Result, assertion Assertion) error {
	count := 0
	for _, l := range result.Logs() {
		if l.Event == assertion.Event && (assertion.Contract == "" || l.Contract == assertion.Contract) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertLogCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, eventName(assertion)),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertKnownUniverse asks the deployed AugurLite about Address.
func assertKnownUniverse(actx *AssertionContext, assertion Assertion) error {
	f := actx.Fixture
	addr, err := f.Resolve(assertion.Address)
	if err != nil {
		return fmt.Errorf("known_universe: %w", err)
	}
	augur, err := f.AugurLite()
	if err != nil {
		return fmt.Errorf("known_universe: %w", err)
	}
	known, err := augur.WithContext(actx.Ctx).Call("isKnownUniverse", addr)
	if err != nil {
		return fmt.Errorf("known_universe: %w", err)
	}

	want := assertion.Known == nil || *assertion.Known
	if got := known[0].(bool); got != want {
		return &AssertionError{
			Type:     AssertKnownUniverse,
			Expected: fmt.Sprintf("isKnownUniverse(%s) = %t", assertion.Address, want),
			Actual:   fmt.Sprintf("%t", got),
		}
	}
	return nil
}

// assertStateRootUnchanged checks that nothing the scenario did survived.
func assertStateRootUnchanged(actx *AssertionContext, result *Result) error {
	root, err := actx.Fixture.Chain.StateRoot()
	if err != nil {
		return fmt.Errorf("state_root_unchanged: %w", err)
	}
	if root != actx.Baseline.StateRoot {
		return &AssertionError{
			Type:     AssertStateRootUnchanged,
			Expected: fmt.Sprintf("state root %s", actx.Baseline.StateRoot.Hex()),
			Actual:   fmt.Sprintf("state root %s", root.Hex()),
			Trace:    result.Trace,
		}
	}
	return nil
}

// matchFields checks if actual fields contain all expected fields (subset
// match). Extra keys in actual are ignored.
func matchFields(actual map[string]any, expected map[string]any) bool {
	for key, expectedVal := range expected {
		actualVal, exists := actual[key]
		if !exists {
			return false
		}
		if !valuesEqual(expectedVal, actualVal) {
			return false
		}
	}
	return true
}

// valuesEqual compares an expected YAML value with a rendered trace value.
// Rendered integers are decimal strings, so YAML 5 matches "5".
func valuesEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}
	if es, ok := expected.([]any); ok {
		as, ok := actual.([]any)
		if !ok || len(es) != len(as) {
			return false
		}
		for i := range es {
			if !valuesEqual(es[i], as[i]) {
				return false
			}
		}
		return true
	}
	return fmt.Sprint(expected) == fmt.Sprint(actual)
}

func eventName(a Assertion) string {
	if a.Contract != "" {
		return a.Contract + "." + a.Event
	}
	return a.Event
}

// formatFields renders fields with sorted keys for stable messages.
func formatFields(fields map[string]any) string {
	if len(fields) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
