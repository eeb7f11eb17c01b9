package intentfile

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult holds all validation errors for a definition.
type ValidationResult struct {
	Errors []ValidationError
}

// Valid returns true if no validation errors were found.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Error returns a combined error message from all validation errors.
func (r ValidationResult) Error() string {
	if r.Valid() {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

// Validate checks a Definition for required fields and structural
// correctness: every condition and step needs exactly one check
// representation, step names must be unique, and dependency references
// must resolve to declared steps without forming a cycle.
func Validate(def Definition) ValidationResult {
	var result ValidationResult
	add := func(field, message string) {
		result.Errors = append(result.Errors, ValidationError{Field: field, Message: message})
	}

	if def.APIVersion != "" && def.APIVersion != "vouch/v1" {
		add("apiVersion", fmt.Sprintf("unsupported version %q (expected vouch/v1)", def.APIVersion))
	}
	if def.Kind != "" && def.Kind != "Intent" {
		add("kind", fmt.Sprintf("unsupported kind %q (expected Intent)", def.Kind))
	}
	if strings.TrimSpace(def.Goal) == "" {
		add("goal", "required")
	}

	validateConds := func(field string, conds []CondDef) {
		for i, c := range conds {
			if err := validateCheckDef(c.CheckDef); err != nil {
				add(fmt.Sprintf("%s[%d]", field, i), err.Error())
			}
		}
	}
	validateConds("preconditions", def.Preconditions)
	validateConds("postconditions", def.Postconditions)
	validateConds("invariants", def.Invariants)

	names := make(map[string]bool, len(def.Steps))
	for i, s := range def.Steps {
		field := fmt.Sprintf("steps[%d]", i)
		if s.Name == "" {
			add(field+".name", "required")
		} else if names[s.Name] {
			add(field+".name", fmt.Sprintf("duplicate step name %q", s.Name))
		} else {
			names[s.Name] = true
		}
		if err := validateCheckDef(s.CheckDef); err != nil {
			add(field, err.Error())
		}
		if s.Timeout != "" {
			if _, err := time.ParseDuration(s.Timeout); err != nil {
				add(field+".timeout", fmt.Sprintf("invalid duration %q", s.Timeout))
			}
		}
	}
	edges := make(map[string][]string, len(def.Steps))
	for i, s := range def.Steps {
		for _, dep := range s.DependsOn {
			if !names[dep] {
				add(fmt.Sprintf("steps[%d].depends_on", i), fmt.Sprintf("unknown step %q", dep))
				continue
			}
			if dep == s.Name {
				add(fmt.Sprintf("steps[%d].depends_on", i), "step depends on itself")
				continue
			}
			edges[s.Name] = append(edges[s.Name], dep)
		}
	}
	if cycle := findDependencyCycle(def.Steps, edges); len(cycle) > 0 {
		add("steps", fmt.Sprintf("dependency cycle: %s", strings.Join(cycle, " -> ")))
	}

	paramNames := make(map[string]bool)
	for i, p := range def.Params {
		if p.Name == "" {
			add(fmt.Sprintf("params[%d].name", i), "required")
		} else if paramNames[p.Name] {
			add(fmt.Sprintf("params[%d].name", i), fmt.Sprintf("duplicate param name %q", p.Name))
		} else {
			paramNames[p.Name] = true
		}
	}

	return result
}

// findDependencyCycle runs a depth-first walk over the resolved
// dependency edges and returns the first cycle found, or nil.
func findDependencyCycle(steps []StepDef, edges map[string][]string) []string {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(steps))

	var path []string
	var visit func(name string) []string
	visit = func(name string) []string {
		state[name] = visiting
		path = append(path, name)
		for _, dep := range edges[name] {
			switch state[dep] {
			case visiting:
				// Trim the path down to where the cycle starts.
				for i, n := range path {
					if n == dep {
						return append(append([]string(nil), path[i:]...), dep)
					}
				}
			case unvisited:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}
		path = path[:len(path)-1]
		state[name] = done
		return nil
	}

	for _, s := range steps {
		if state[s.Name] == unvisited {
			if cycle := visit(s.Name); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// validateCheckDef ensures exactly one check representation is set and
// that it is internally complete.
func validateCheckDef(c CheckDef) error {
	count := 0
	if strings.TrimSpace(c.Command) != "" {
		count++
	}
	if c.File != nil {
		count++
	}
	if c.GitHub != nil {
		count++
	}
	if count == 0 {
		return fmt.Errorf("no check given (want command, file or github)")
	}
	if count > 1 {
		return fmt.Errorf("multiple checks given (want exactly one of command, file, github)")
	}

	if c.File != nil && c.File.Path == "" {
		return fmt.Errorf("file check requires a path")
	}
	if c.GitHub != nil {
		if c.GitHub.Repo == "" || !strings.Contains(c.GitHub.Repo, "/") {
			return fmt.Errorf("github check requires repo in owner/name format")
		}
		if c.GitHub.Field == "" {
			return fmt.Errorf("github check requires a field")
		}
	}
	return nil
}
