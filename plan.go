package warden

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const goalPrefix = "GOAL:"

// Plan is the structured reading of a PLAN block:
//
//	GOAL: Refactor the parser
//	CHANGES:
//	1. Extract validation
//	2. Add error types
type Plan struct {
	Goal       string
	Changes    []string
	hasChanges bool
}

func (p Plan) Structured() bool {
	return p.Goal != "" && p.hasChanges
}

func ParsePlan(src string) Plan {
	source := []byte(src)
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	var plan Plan
	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Paragraph, *ast.Heading:
			for _, line := range blockLines(n, source) {
				upper := strings.ToUpper(line)
				switch {
				case strings.HasPrefix(upper, goalPrefix):
					plan.Goal = strings.TrimSpace(line[len(goalPrefix):])
				case strings.HasPrefix(upper, "CHANGES:"):
					plan.hasChanges = true
					if rest := strings.TrimSpace(line[len("CHANGES:"):]); rest != "" {
						plan.Changes = append(plan.Changes, rest)
					}
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.List:
			if !plan.hasChanges {
				return ast.WalkSkipChildren, nil
			}
			for item := n.FirstChild(); item != nil; item = item.NextSibling() {
				if first := item.FirstChild(); first != nil {
					if t := strings.Join(blockLines(first, source), " "); t != "" {
						plan.Changes = append(plan.Changes, t)
					}
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	}

	_ = ast.Walk(root, walker)
	return plan
}

func blockLines(n ast.Node, source []byte) []string {
	var out []string
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		if l := strings.TrimSpace(string(seg.Value(source))); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// GoalText is the plan with its leading "GOAL:" label removed. It is what
// gets committed and what is remembered as the retry intent.
func GoalText(plan string) string {
	goal := strings.TrimSpace(plan)
	if len(goal) >= len(goalPrefix) && strings.EqualFold(goal[:len(goalPrefix)], goalPrefix) {
		goal = strings.TrimSpace(goal[len(goalPrefix):])
	}
	return goal
}
