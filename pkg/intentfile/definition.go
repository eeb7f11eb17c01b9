// Package intentfile loads YAML intent definitions: the external
// representation of a goal, its contract and its step graph. A
// definition is parsed, validated and then built into an executable
// intent.
package intentfile

// Definition is a complete intent definition file.
type Definition struct {
	APIVersion     string     `yaml:"apiVersion" json:"apiVersion"`
	Kind           string     `yaml:"kind" json:"kind"`
	Meta           Meta       `yaml:"meta" json:"meta"`
	Goal           string     `yaml:"goal" json:"goal"`
	Options        RunOptions `yaml:"options" json:"options"`
	Params         []ParamDef `yaml:"params" json:"params"`
	Preconditions  []CondDef  `yaml:"preconditions" json:"preconditions"`
	Steps          []StepDef  `yaml:"steps" json:"steps"`
	Postconditions []CondDef  `yaml:"postconditions" json:"postconditions"`
	Invariants     []CondDef  `yaml:"invariants" json:"invariants"`
}

// Meta contains metadata about the definition.
type Meta struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Author      string   `yaml:"author" json:"author"`
	Tags        []string `yaml:"tags" json:"tags"`
}

// RunOptions carries execution defaults declared in the file.
type RunOptions struct {
	StopOnFailure *bool `yaml:"stop_on_failure" json:"stop_on_failure"`
	Verbose       bool  `yaml:"verbose" json:"verbose"`
}

// ParamDef defines a runtime parameter interpolated into the file.
type ParamDef struct {
	Name        string `yaml:"name" json:"name"`
	Default     any    `yaml:"default" json:"default"`
	Description string `yaml:"description" json:"description"`
}

// CheckDef is the file representation of a check. Exactly one of
// Command, File or GitHub must be set.
type CheckDef struct {
	Command string            `yaml:"command" json:"command"`
	Dir     string            `yaml:"dir" json:"dir"`
	Env     map[string]string `yaml:"env" json:"env"`
	File    *FileDef          `yaml:"file" json:"file"`
	GitHub  *GitHubDef        `yaml:"github" json:"github"`
}

// FileDef is the file representation of a file check.
type FileDef struct {
	Path      string   `yaml:"path" json:"path"`
	MustExist *bool    `yaml:"must_exist" json:"must_exist"`
	Contains  []string `yaml:"contains" json:"contains"`
	Pattern   string   `yaml:"pattern" json:"pattern"`
	MinSize   string   `yaml:"min_size" json:"min_size"`
	MaxSize   string   `yaml:"max_size" json:"max_size"`
}

// GitHubDef is the file representation of a GitHub check.
type GitHubDef struct {
	Repo  string `yaml:"repo" json:"repo"`
	Field string `yaml:"field" json:"field"`
}

// CondDef declares one precondition, postcondition or invariant.
type CondDef struct {
	Name     string   `yaml:"name" json:"name"`
	CheckDef CheckDef `yaml:",inline" json:"check"`
	Expect   any      `yaml:"expect" json:"expect"`
	Critical *bool    `yaml:"critical" json:"critical"` // default true
}

// StepDef declares one step of the graph.
type StepDef struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	DependsOn   []string `yaml:"depends_on" json:"depends_on"`
	CheckDef    CheckDef `yaml:",inline" json:"check"`
	Expect      any      `yaml:"expect" json:"expect"`
	Timeout     string   `yaml:"timeout" json:"timeout"` // Go duration, e.g. "30s"
}
