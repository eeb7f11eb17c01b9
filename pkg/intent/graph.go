package intent

import (
	"fmt"
	"strings"
)

// validateGraph checks the frozen step collection for duplicate names,
// references to undeclared steps and dependency cycles. Validation
// failures surface as structural failures of the execution, never as
// panics.
func validateGraph(steps []*Step) error {
	byName := make(map[string]*Step, len(steps))
	for _, s := range steps {
		if _, dup := byName[s.Name]; dup {
			return fmt.Errorf("duplicate step name %q", s.Name)
		}
		byName[s.Name] = s
	}

	for _, s := range steps {
		for _, dep := range s.DependsOn {
			if _, ok := byName[dep]; !ok {
				return fmt.Errorf("step %q depends on undeclared step %q", s.Name, dep)
			}
			if dep == s.Name {
				return fmt.Errorf("step %q depends on itself", s.Name)
			}
		}
	}

	if cycle := findCycle(steps, byName); len(cycle) > 0 {
		return fmt.Errorf("dependency cycle: %s", strings.Join(cycle, " -> "))
	}
	return nil
}

// findCycle runs a depth-first walk over the dependency edges and
// returns the first cycle found, or nil.
func findCycle(steps []*Step, byName map[string]*Step) []string {
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
		for _, dep := range byName[name].DependsOn {
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
