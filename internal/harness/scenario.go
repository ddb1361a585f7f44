package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/lineage/internal/config"
	"github.com/roach88/lineage/internal/model"
)

// Scenario is a scripted sequence of store operations with assertions on
// the final state.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// IDTemplates overrides human ID templates by table name.
	IDTemplates map[string]string `yaml:"id_templates,omitempty"`

	// Locale selects the collation locale. Empty means the default.
	Locale string `yaml:"locale,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one store operation.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Description names the transaction opened by begin.
	Description string `yaml:"description,omitempty"`

	// Batch opens a batch transaction (begin only).
	Batch bool `yaml:"batch,omitempty"`

	// Kind is the record kind for add. For update and remove it defaults to
	// the kind of the referenced alias.
	Kind string `yaml:"kind,omitempty"`

	// As names the record added by add.
	As string `yaml:"as,omitempty"`

	// Ref is the alias an update or remove acts on.
	Ref string `yaml:"ref,omitempty"`

	// Record holds the record fields for add, or the fields to overwrite
	// for update.
	Record map[string]any `yaml:"record,omitempty"`

	// ExpectError is the error code the step must fail with. See ErrorCode.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Step operations.
const (
	OpBegin  = "begin"
	OpAdd    = "add"
	OpUpdate = "update"
	OpRemove = "remove"
	OpCommit = "commit"
	OpAbort  = "abort"
	OpUndo   = "undo"
	OpRedo   = "redo"
)

// Assertion checks the final store state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	Kind string `yaml:"kind,omitempty"`
	Ref  string `yaml:"ref,omitempty"`

	// Count is the expected record count (count).
	Count *int `yaml:"count,omitempty"`

	// Value is the expected human ID (next_id, human_id).
	Value string `yaml:"value,omitempty"`

	// Values are the expected surnames (surnames) or referrer aliases
	// (referrers).
	Values []string `yaml:"values,omitempty"`

	// Kinds restricts the referrer kinds (referrers).
	Kinds []string `yaml:"kinds,omitempty"`

	// Exists is whether the referenced record must exist (exists).
	Exists *bool `yaml:"exists,omitempty"`
}

// Assertion types.
const (
	AssertCount     = "count"
	AssertSurnames  = "surnames"
	AssertNextID    = "next_id"
	AssertReferrers = "referrers"
	AssertHumanID   = "human_id"
	AssertExists    = "exists"
)

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func (s *Scenario) settings() config.Settings {
	return config.Settings{IDTemplates: s.IDTemplates, Locale: s.Locale}
}

// validateScenario checks required fields and that every step and
// assertion is well formed.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if err := config.Validate(s.settings()); err != nil {
		return err
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st *Step) error {
	if st.Kind != "" {
		if _, err := model.ParseKind(st.Kind); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	}
	switch st.Op {
	case OpBegin, OpCommit, OpAbort, OpUndo, OpRedo:
	case OpAdd:
		if st.Kind == "" {
			return fmt.Errorf("steps[%d]: kind is required for add", index)
		}
	case OpUpdate:
		if st.Ref == "" || st.Record == nil {
			return fmt.Errorf("steps[%d]: ref and record are required for update", index)
		}
	case OpRemove:
		if st.Ref == "" {
			return fmt.Errorf("steps[%d]: ref is required for remove", index)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Kind != "" {
		if _, err := model.ParseKind(a.Kind); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	}
	switch a.Type {
	case AssertCount:
		if a.Kind == "" || a.Count == nil {
			return fmt.Errorf("assertions[%d]: kind and count are required for count", index)
		}
	case AssertSurnames:
		if a.Values == nil {
			return fmt.Errorf("assertions[%d]: values is required for surnames", index)
		}
	case AssertNextID:
		if a.Kind == "" || a.Value == "" {
			return fmt.Errorf("assertions[%d]: kind and value are required for next_id", index)
		}
	case AssertReferrers:
		if a.Ref == "" || a.Values == nil {
			return fmt.Errorf("assertions[%d]: ref and values are required for referrers", index)
		}
	case AssertHumanID:
		if a.Ref == "" || a.Value == "" {
			return fmt.Errorf("assertions[%d]: ref and value are required for human_id", index)
		}
	case AssertExists:
		if a.Ref == "" || a.Exists == nil {
			return fmt.Errorf("assertions[%d]: ref and exists are required for exists", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
