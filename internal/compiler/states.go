package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/cnl/internal/ir"
)

// Warning codes for state-label analysis (W200-W299).
const (
	WarnUnreachableFilter = "W201" // filter label that no tactic pushes
	WarnDeadLabel         = "W202" // pushed label with no tactics to parse under it
	WarnNoExit            = "W203" // pushed label with no tactic that pops it
	WarnRecursiveNesting  = "W204" // labels that can nest inside themselves
)

// defaultState names the empty stack in the label graph.
const defaultState = "(default)"

// StateWarning reports a suspicious property of how a set of tactics
// moves through state labels. These are warnings, not errors: a catalog
// under construction often has them.
type StateWarning struct {
	Code    string   `json:"code"`
	Label   string   `json:"label,omitempty"`
	Path    []string `json:"path,omitempty"`
	Message string   `json:"message"`
}

// AnalyzeStates checks the push/pop structure of a set of specifications.
//
// It builds a graph whose nodes are state labels (plus the default state)
// and whose edges go from a tactic's filter to every label it pushes.
// Tarjan's algorithm then finds labels that can nest inside themselves.
// Wildcard tactics count as active under every label.
func AnalyzeStates(specs []ir.Specification) []StateWarning {
	var (
		filtered = make(map[string]bool) // labels some tactic filters on
		pushed   = make(map[string]bool) // labels some tactic pushes
		pops     = make(map[string]bool) // filters with a popping tactic
		anyPops  bool
		anyExist bool
		graph    = make(labelGraph)
	)

	for _, s := range specs {
		from := stateOf(s.Filter)
		if s.Filter == ir.FilterAny {
			anyExist = true
		} else {
			filtered[from] = true
			graph.touch(from)
		}
		for _, a := range s.Actions {
			switch a.Op {
			case ir.ActionPush:
				pushed[a.Label] = true
				graph.touch(a.Label)
				if s.Filter != ir.FilterAny {
					graph[from] = append(graph[from], a.Label)
				}
			case ir.ActionPop:
				if s.Filter == ir.FilterAny {
					anyPops = true
				} else {
					pops[from] = true
				}
			}
		}
	}

	warnings := []StateWarning{}

	for _, label := range sortedKeys(filtered) {
		if label != defaultState && !pushed[label] {
			warnings = append(warnings, StateWarning{
				Code:    WarnUnreachableFilter,
				Label:   label,
				Message: fmt.Sprintf("tactics filter on %q but no tactic pushes it", label),
			})
		}
	}

	for _, label := range sortedKeys(pushed) {
		if !filtered[label] && !anyExist {
			warnings = append(warnings, StateWarning{
				Code:    WarnDeadLabel,
				Label:   label,
				Message: fmt.Sprintf("%q is pushed but no tactic is valid under it", label),
			})
			continue
		}
		if !pops[label] && !anyPops {
			warnings = append(warnings, StateWarning{
				Code:    WarnNoExit,
				Label:   label,
				Message: fmt.Sprintf("no tactic valid under %q pops it", label),
			})
		}
	}

	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || graph.hasSelfLoop(scc[0]) {
			warnings = append(warnings, nestingWarning(scc, graph))
		}
	}

	return warnings
}

func stateOf(filter string) string {
	if filter == ir.FilterDefault {
		return defaultState
	}
	return filter
}

// labelGraph maps a state to the labels pushed from it.
type labelGraph map[string][]string

func (g labelGraph) touch(node string) {
	if _, ok := g[node]; !ok {
		g[node] = []string{}
	}
}

func (g labelGraph) hasSelfLoop(node string) bool {
	for _, next := range g[node] {
		if next == node {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// tarjanSCC finds strongly connected components. Nodes are visited in
// sorted order so the output is stable.
func tarjanSCC(graph labelGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Strings(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

func nestingWarning(scc []string, graph labelGraph) StateWarning {
	path := reconstructCyclePath(scc, graph)
	return StateWarning{
		Code:    WarnRecursiveNesting,
		Label:   scc[0],
		Path:    path,
		Message: fmt.Sprintf("labels can nest without bound: %s", strings.Join(path, " -> ")),
	}
}

// reconstructCyclePath follows edges inside the SCC from its first member
// until it returns there.
func reconstructCyclePath(scc []string, graph labelGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
