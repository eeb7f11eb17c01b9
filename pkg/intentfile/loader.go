package intentfile

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML intent definition and returns the parsed
// Definition. Template variables like {{date}} and {{param_name}} are
// interpolated using the provided params (or defaults from the file).
func Load(path string, params map[string]string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("read intent file %s: %w", path, err)
	}
	return Parse(data, params)
}

// Parse parses YAML data into a Definition with variable interpolation.
func Parse(data []byte, params map[string]string) (Definition, error) {
	// First pass: parse to get param defaults.
	var raw Definition
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Definition{}, fmt.Errorf("parse intent file: %w", err)
	}

	vars := buildVarMap(raw.Params, params)
	interpolated := interpolateVars(string(data), vars)

	// Second pass: parse the interpolated YAML.
	var def Definition
	if err := yaml.Unmarshal([]byte(interpolated), &def); err != nil {
		return Definition{}, fmt.Errorf("parse interpolated intent file: %w", err)
	}
	return def, nil
}

// buildVarMap creates a variable map from param defaults and runtime
// overrides. Built-in variables like {{date}} are always available.
func buildVarMap(paramDefs []ParamDef, overrides map[string]string) map[string]string {
	vars := make(map[string]string)

	now := time.Now()
	vars["date"] = now.Format("2006-01-02")
	vars["datetime"] = now.Format("2006-01-02T15:04:05")
	vars["year"] = now.Format("2006")
	vars["month"] = now.Format("01")
	vars["day"] = now.Format("02")

	for _, p := range paramDefs {
		if p.Default != nil {
			vars[p.Name] = fmt.Sprintf("%v", p.Default)
		}
	}

	for k, v := range overrides {
		vars[k] = v
	}

	return vars
}

// templatePattern matches {{var_name}} patterns.
var templatePattern = regexp.MustCompile(`\{\{([A-Za-z_][A-Za-z0-9_]*)\}\}`)

// interpolateVars replaces {{var_name}} patterns with values from the
// var map. Unresolved variables are left in place.
func interpolateVars(s string, vars map[string]string) string {
	return templatePattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimPrefix(strings.TrimSuffix(match, "}}"), "{{")
		if val, ok := vars[varName]; ok {
			return val
		}
		return match
	})
}
