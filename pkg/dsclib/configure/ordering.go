package configure

import (
	"fmt"
	"strings"

	"github.com/open-dsc/dsc/pkg/dsclib/configdoc"
	"github.com/open-dsc/dsc/pkg/dsclib/dscerror"
)

// orderedResource is one materialized resource ready for invocation: either
// a plain document resource, or one iteration of a copy loop.
type orderedResource struct {
	resource  configdoc.Resource
	copyName  string
	copyIndex int
}

// order expands copy loops and produces a linear invocation order
// respecting dependsOn (resolved via "type::name" reference keys).
func (c *Configurator) order() ([]orderedResource, error) {
	expanded, err := c.expandCopyLoops()
	if err != nil {
		return nil, err
	}
	return topoSort(expanded)
}

func (c *Configurator) expandCopyLoops() ([]orderedResource, error) {
	var out []orderedResource
	for _, r := range c.doc.Resources {
		if r.Copy == nil {
			out = append(out, orderedResource{resource: r})
			continue
		}
		count, err := c.evaluateCopyCount(r.Copy.Count)
		if err != nil {
			return nil, err
		}
		for i := 0; i < count; i++ {
			c.ctx.SetCopyBinding(r.Copy.Name, i)
			iteration := r
			resolvedName, err := c.ctx.evaluator.ParseAndExecute(r.Name, c.ctx)
			if err != nil {
				return nil, err
			}
			name, ok := resolvedName.(string)
			if !ok {
				name = fmt.Sprintf("%v", resolvedName)
			}
			iteration.Name = name
			out = append(out, orderedResource{resource: iteration, copyName: r.Copy.Name, copyIndex: i})
		}
	}
	return out, nil
}

func (c *Configurator) evaluateCopyCount(countExpr string) (int, error) {
	v, err := c.ctx.evaluator.ParseAndExecute(countExpr, c.ctx)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case string:
		var count int
		if _, err := fmt.Sscanf(n, "%d", &count); err != nil {
			return 0, dscerror.Validation(fmt.Sprintf("copy.count %q did not evaluate to an integer", countExpr))
		}
		return count, nil
	default:
		return 0, dscerror.Validation(fmt.Sprintf("copy.count %q did not evaluate to a number", countExpr))
	}
}

// topoSort orders resources so each appears after everything it
// dependsOn. Dependencies reference "type::name" keys.
func topoSort(resources []orderedResource) ([]orderedResource, error) {
	byKey := make(map[string]int, len(resources))
	for i, r := range resources {
		byKey[r.resource.Key()] = i
	}

	visited := make([]int, len(resources)) // 0=unvisited, 1=in-progress, 2=done
	var out []orderedResource

	var visit func(i int) error
	visit = func(i int) error {
		switch visited[i] {
		case 2:
			return nil
		case 1:
			return dscerror.Validation(fmt.Sprintf("dependency cycle involving resource %q", resources[i].resource.Name))
		}
		visited[i] = 1
		for _, dep := range resources[i].resource.DependsOn {
			idx, ok := byKey[strings.ToLower(dep)]
			if !ok {
				return dscerror.Validation(fmt.Sprintf("resource %q dependsOn unknown resource %q", resources[i].resource.Name, dep))
			}
			if err := visit(idx); err != nil {
				return err
			}
		}
		visited[i] = 2
		out = append(out, resources[i])
		return nil
	}

	for i := range resources {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return out, nil
}
