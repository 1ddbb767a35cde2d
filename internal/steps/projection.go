package steps

import "stepagg/internal/domain"

// DefinitionTree returns the structure of the accumulated tree: titles and
// nesting only. Leaves carry no Steps.
func (p *Processor) DefinitionTree() []domain.AutotestStep {
	return definitions(p.roots)
}

// ResultTree returns a snapshot of the top level of the accumulated tree.
// Nested nodes are shared with the processor.
func (p *Processor) ResultTree() []*domain.StepNode {
	out := make([]*domain.StepNode, len(p.roots))
	copy(out, p.roots)
	return out
}

func definitions(roots []*domain.StepNode) []domain.AutotestStep {
	type frame struct {
		nodes []*domain.StepNode
		dst   *[]domain.AutotestStep
	}

	var result []domain.AutotestStep
	stack := []frame{{nodes: roots, dst: &result}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		out := make([]domain.AutotestStep, len(f.nodes))
		for i, node := range f.nodes {
			out[i].Title = node.Title
			if node.IsGroup() {
				stack = append(stack, frame{nodes: node.Children, dst: &out[i].Steps})
			}
		}
		*f.dst = out
	}
	return result
}
