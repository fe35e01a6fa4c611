// Package naming defines the identifiers and input keys shared by generated
// workflows and their job orders. Downstream workflow runners depend on
// these exact shapes.
package naming

import (
	"strconv"
	"strings"
)

const (
	// PrimaryInputKey is the synthetic dataset input seeded into every
	// sibling list whose first step is not external.
	PrimaryInputKey = "potentialCases"

	// DefaultPrimaryPath is the placeholder path bound to PrimaryInputKey.
	DefaultPrimaryPath = "replaceMe.csv"

	// ModuleKeyPrefix prefixes every implementation-file input key.
	ModuleKeyPrefix = "inputModule"

	// StepOutput is the output id of every generated step.
	StepOutput = "output"

	// WorkflowOutput is the output id of a top-level workflow.
	WorkflowOutput = "cases"

	// ModuleStepInput is the tool input that receives the implementation file.
	ModuleStepInput = "inputModule"

	externalMarker = "external"
)

// ModuleKey returns the input key for the implementation file of the leaf
// at position.
func ModuleKey(position int) string {
	return ModuleKeyPrefix + strconv.Itoa(position)
}

// PromotedKey returns the parent key for the index-th (1-based) module
// input promoted out of the nested step at position.
func PromotedKey(position, index int) string {
	return ModuleKeyPrefix + strconv.Itoa(position) + "-" + strconv.Itoa(index)
}

// IsModuleKey reports whether key names an implementation-file input,
// either direct or promoted.
func IsModuleKey(key string) bool {
	return strings.Contains(key, ModuleKeyPrefix)
}

// ImplementationPath returns the job-order path of a leaf's source file.
func ImplementationPath(language, fileName string) string {
	return language + "/" + fileName
}

// IsExternal reports whether a step type denotes an external data source,
// which suppresses the synthetic primary input.
func IsExternal(stepType string) bool {
	return strings.Contains(stepType, externalMarker)
}

// IsTerminal reports whether index i is the last of n siblings.
func IsTerminal(i, n int) bool {
	return i == n-1
}

// OutputID returns the workflow output id for a sibling list.
// Nested lists expose StepOutput so the parent can wire <step>/output.
func OutputID(nested bool) string {
	if nested {
		return StepOutput
	}
	return WorkflowOutput
}

// OutputSource returns the "<step>/output" reference for a step id.
func OutputSource(stepID string) string {
	return stepID + "/" + StepOutput
}

// ToolFile returns the file name of the CWL document generated for a step.
func ToolFile(stepID string) string {
	return stepID + ".cwl"
}

// StepID derives a CWL-safe step id from a step name: lower case, runs of
// characters outside [a-z0-9_-] collapsed to a single underscore. Names
// with nothing usable fall back to "step<position>".
func StepID(name string, position int) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	if b.Len() == 0 {
		return "step" + strconv.Itoa(position)
	}
	return b.String()
}

// Promotion renames one module input of a nested workflow into the parent
// namespace.
type Promotion struct {
	NestedKey string
	ParentKey string
}

// Promote selects the module keys of a nested job order, in order, and
// assigns each a parent key "inputModule<position>-<n>". Promoted keys of
// deeper levels match as well, which makes promotion transitive.
func Promote(position int, nestedKeys []string) []Promotion {
	var out []Promotion
	for _, key := range nestedKeys {
		if !IsModuleKey(key) {
			continue
		}
		out = append(out, Promotion{
			NestedKey: key,
			ParentKey: PromotedKey(position, len(out)+1),
		})
	}
	return out
}

// MainID names the top-level workflow document. No step may take it.
const MainID = "main"

// IDSet hands out step ids. Every generated document lives in one flat
// namespace of "<id>.cwl" files, so a single set serves a whole tree.
type IDSet map[string]bool

// NewIDSet returns a set with MainID already taken.
func NewIDSet() IDSet {
	return IDSet{MainID: true}
}

// Assign returns StepID(name, position), suffixed with "-<position>" if
// that id is already taken.
func (s IDSet) Assign(name string, position int) string {
	id := StepID(name, position)
	if s[id] {
		id = id + "-" + strconv.Itoa(position)
	}
	for n := 2; s[id]; n++ {
		id = StepID(name, position) + "-" + strconv.Itoa(position) + "-" + strconv.Itoa(n)
	}
	s[id] = true
	return id
}
