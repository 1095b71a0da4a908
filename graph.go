package monover

import (
	"sort"
)

// DependencyGraph records project-to-project references: an edge A -> B
// means A depends on B, so a change in B propagates change evidence into A.
type DependencyGraph struct {
	dirs  map[string]string
	edges map[string][]string
}

// NewDependencyGraph returns an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		dirs:  map[string]string{},
		edges: map[string][]string{},
	}
}

// AddProject registers a project and the directory its files live under.
// An empty dir defaults to the project name.
func (g *DependencyGraph) AddProject(name, dir string) {
	if dir == "" {
		dir = name
	}
	g.dirs[name] = dir
	if _, ok := g.edges[name]; !ok {
		g.edges[name] = nil
	}
}

// AddDependency records that "from" depends on "to". Unknown projects are
// registered implicitly with their name as directory.
func (g *DependencyGraph) AddDependency(from, to string) {
	if _, ok := g.dirs[from]; !ok {
		g.AddProject(from, "")
	}
	if _, ok := g.dirs[to]; !ok {
		g.AddProject(to, "")
	}
	for _, existing := range g.edges[from] {
		if existing == to {
			return
		}
	}
	g.edges[from] = append(g.edges[from], to)
}

// Dir returns the directory registered for a project, defaulting to the
// project name.
func (g *DependencyGraph) Dir(project string) string {
	if d, ok := g.dirs[project]; ok {
		return d
	}
	return project
}

// Projects lists every registered project, sorted for determinism.
func (g *DependencyGraph) Projects() []string {
	out := make([]string, 0, len(g.dirs))
	for name := range g.dirs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dependencies returns every project transitively reachable from the given
// one, sorted. The traversal is an explicit stack with a visited set, so
// cycles terminate and arbitrarily deep graphs cannot overflow the call
// stack.
func (g *DependencyGraph) Dependencies(project string) []string {
	visited := map[string]bool{project: true}
	stack := append([]string(nil), g.edges[project]...)

	var out []string
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[current] {
			continue
		}
		visited[current] = true
		out = append(out, current)
		stack = append(stack, g.edges[current]...)
	}

	sort.Strings(out)
	return out
}
