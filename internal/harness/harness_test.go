package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }

func TestRun_AddAssignsHandlesAndIDs(t *testing.T) {
	s := &Scenario{
		Name:        "add",
		Description: "adds",
		Steps: []Step{
			{Op: OpAdd, Kind: "person", As: "ann", Record: map[string]any{
				"primary_name": map[string]any{"first": "Ann"},
			}},
			{Op: OpAdd, Kind: "tag", As: "t"},
		},
		Assertions: []Assertion{
			{Type: AssertHumanID, Ref: "ann", Value: "I0001"},
			{Type: AssertCount, Kind: "tag", Count: intPtr(1)},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{"person-add", "tag-add"}, result.Signals())

	first := result.Trace[0]
	assert.Equal(t, EventStep, first.Type)
	assert.Equal(t, "H0001", first.Handle)
	assert.Equal(t, "I0001", first.HumanID)
	assert.Empty(t, result.Trace[2].HumanID, "tags have no human ID")
}

func TestRun_UnexpectedErrorFails(t *testing.T) {
	s := &Scenario{
		Name:        "undo_empty",
		Description: "nothing to undo",
		Steps:       []Step{{Op: OpUndo}},
		Assertions:  []Assertion{{Type: AssertSurnames, Values: []string{}}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "step 1 (undo)")
	assert.Equal(t, CodeEmptyHistory, result.Trace[0].Error)
}

func TestRun_ExpectedErrorMissing(t *testing.T) {
	s := &Scenario{
		Name:        "no_error",
		Description: "add succeeds",
		Steps:       []Step{{Op: OpAdd, Kind: "note", ExpectError: CodeDuplicateHumanID}},
		Assertions:  []Assertion{{Type: AssertCount, Kind: "note", Count: intPtr(1)}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], `expected error "duplicate_human_id", got ""`)
}

func TestRun_UnknownAlias(t *testing.T) {
	s := &Scenario{
		Name:        "alias",
		Description: "bad alias",
		Steps: []Step{
			{Op: OpRemove, Ref: "ghost", ExpectError: CodeUnknownAlias},
			{Op: OpAdd, Kind: "family", Record: map[string]any{"father": "@ghost"}, ExpectError: CodeUnknownAlias},
		},
		Assertions: []Assertion{{Type: AssertCount, Kind: "family", Count: intPtr(0)}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_RemoveAndAbort(t *testing.T) {
	s := &Scenario{
		Name:        "remove_abort",
		Description: "remove then abort a transaction",
		Steps: []Step{
			{Op: OpAdd, Kind: "source", As: "src", Record: map[string]any{"title": "Census"}},
			{Op: OpAdd, Kind: "citation", As: "cit", Record: map[string]any{"source": "@src"}},
			{Op: OpBegin, Description: "Tidy"},
			{Op: OpRemove, Ref: "cit"},
			{Op: OpAbort},
			{Op: OpCommit, ExpectError: CodeClosed},
		},
		Assertions: []Assertion{
			{Type: AssertExists, Ref: "cit", Exists: boolPtr(false)},
			{Type: AssertExists, Ref: "src", Exists: boolPtr(true)},
			{Type: AssertNextID, Kind: "citation", Value: "C0002"},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{"source-add", "citation-add", "citation-delete"}, result.Signals())
}

func TestRun_CommitWithoutBegin(t *testing.T) {
	s := &Scenario{
		Name:        "commit",
		Description: "commit without begin",
		Steps:       []Step{{Op: OpCommit, ExpectError: CodeNoTransaction}},
		Assertions:  []Assertion{{Type: AssertSurnames, Values: []string{}}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_OpenTransactionAtEndFails(t *testing.T) {
	s := &Scenario{
		Name:        "open",
		Description: "never committed",
		Steps:       []Step{{Op: OpBegin, Description: "dangling"}},
		Assertions:  []Assertion{{Type: AssertSurnames, Values: []string{}}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors, "transaction left open at end of scenario")
}
