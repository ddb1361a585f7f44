package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/lineage/internal/model"
	"github.com/roach88/lineage/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages. Assertions are independent; all are evaluated.
func EvaluateAssertions(ctx context.Context, st *store.Store, aliases map[string]model.Ref, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(ctx, st, aliases, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(ctx context.Context, st *store.Store, aliases map[string]model.Ref, a Assertion) error {
	var (
		kind model.Kind
		ref  model.Ref
	)
	if a.Ref != "" {
		var ok bool
		if ref, ok = aliases[a.Ref]; !ok {
			return fmt.Errorf("%q: %w", a.Ref, errUnknownAlias)
		}
		kind = ref.Kind
	}
	if a.Kind != "" {
		var err error
		if kind, err = model.ParseKind(a.Kind); err != nil {
			return err
		}
	}

	switch a.Type {
	case AssertCount:
		n, err := st.Count(ctx, kind)
		if err != nil {
			return err
		}
		if n != *a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d %s records", *a.Count, kind.Table()),
				Actual:   fmt.Sprintf("%d", n),
			}
		}

	case AssertSurnames:
		got := st.Surnames()
		if !slices.Equal(got, a.Values) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%q", a.Values),
				Actual:   fmt.Sprintf("%q", got),
			}
		}

	case AssertNextID:
		id, err := st.NextID(ctx, kind)
		if err != nil {
			return err
		}
		if id != a.Value {
			return &AssertionError{Type: a.Type, Expected: a.Value, Actual: id}
		}

	case AssertHumanID:
		r, found, err := st.Get(ctx, kind, ref.Handle)
		if err != nil {
			return err
		}
		actual := "<missing>"
		if found {
			actual = r.Meta().ID
		}
		if actual != a.Value {
			return &AssertionError{Type: a.Type, Expected: a.Value, Actual: actual}
		}

	case AssertExists:
		found, err := st.HasHandle(ctx, kind, ref.Handle)
		if err != nil {
			return err
		}
		if found != *a.Exists {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s %s exists=%v", kind.Table(), a.Ref, *a.Exists),
				Actual:   fmt.Sprintf("exists=%v", found),
			}
		}

	case AssertReferrers:
		return assertReferrers(ctx, st, aliases, ref, a)

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// assertReferrers compares the records referencing ref with the aliased
// records in a.Values, ignoring order.
func assertReferrers(ctx context.Context, st *store.Store, aliases map[string]model.Ref, ref model.Ref, a Assertion) error {
	kinds := make([]model.Kind, 0, len(a.Kinds))
	for _, name := range a.Kinds {
		k, err := model.ParseKind(name)
		if err != nil {
			return err
		}
		kinds = append(kinds, k)
	}

	want := make([]string, 0, len(a.Values))
	for _, alias := range a.Values {
		r, ok := aliases[alias]
		if !ok {
			return fmt.Errorf("%q: %w", alias, errUnknownAlias)
		}
		want = append(want, r.String())
	}

	refs, err := st.FindReferrers(ctx, ref.Handle, kinds...)
	if err != nil {
		return err
	}
	got := make([]string, 0, len(refs))
	for _, r := range refs {
		got = append(got, r.String())
	}

	slices.Sort(want)
	slices.Sort(got)
	if !slices.Equal(got, want) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("referrers of %s: %v", a.Ref, want),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}
