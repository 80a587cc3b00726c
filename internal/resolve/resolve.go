// Package resolve picks the workspace a root navigation should land on.
//
// The decision is a pure function of the known workspace names and the
// previously remembered selection. Persisting the outcome is left to the
// caller.
package resolve

// DefaultName is both the preferred workspace name and the fallback target
// when no workspaces exist.
const DefaultName = "default"

// Rule identifies which branch of the policy produced a decision.
type Rule string

const (
	RuleRemembered Rule = "remembered"
	RuleDefault    Rule = "default"
	RuleFirst      Rule = "first"
	RuleFallback   Rule = "fallback"
)

// Input is the immutable snapshot a decision is made from. Workspaces has no
// required order and may contain duplicates.
type Input struct {
	Workspaces    []string
	Remembered    string
	HasRemembered bool
}

// Decision is the outcome of Decide. Exists reports whether Workspace names
// one of the input workspaces; it is false only for RuleFallback.
type Decision struct {
	Workspace string `json:"workspace" yaml:"workspace"`
	Rule      Rule   `json:"rule" yaml:"rule"`
	Exists    bool   `json:"exists" yaml:"exists"`
}

// Remembering returns an Input carrying name as the remembered selection.
func Remembering(workspaces []string, name string) Input {
	return Input{Workspaces: workspaces, Remembered: name, HasRemembered: true}
}

// Decide applies the policy in priority order: a still valid remembered
// selection, then a workspace named "default", then the byte-wise smallest
// name, then the literal "default".
func Decide(in Input) Decision {
	hasDefault := false
	first := ""
	for i, name := range in.Workspaces {
		if in.HasRemembered && name == in.Remembered {
			return Decision{Workspace: name, Rule: RuleRemembered, Exists: true}
		}
		if name == DefaultName {
			hasDefault = true
		}
		if i == 0 || name < first {
			first = name
		}
	}
	switch {
	case hasDefault:
		return Decision{Workspace: DefaultName, Rule: RuleDefault, Exists: true}
	case len(in.Workspaces) > 0:
		return Decision{Workspace: first, Rule: RuleFirst, Exists: true}
	default:
		return Decision{Workspace: DefaultName, Rule: RuleFallback}
	}
}

// Workspace is Decide reduced to the chosen name. An empty remembered value
// is treated as absent.
func Workspace(workspaces []string, remembered string) string {
	return Decide(Input{
		Workspaces:    workspaces,
		Remembered:    remembered,
		HasRemembered: remembered != "",
	}).Workspace
}
