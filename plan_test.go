package warden

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePlan(t *testing.T) {
	tests := []struct {
		name       string
		plan       string
		goal       string
		changes    []string
		structured bool
	}{
		{
			name:       "numbered changes",
			plan:       "GOAL: Refactor the parser\nCHANGES:\n1. Extract validation\n2. Add error types",
			goal:       "Refactor the parser",
			changes:    []string{"Extract validation", "Add error types"},
			structured: true,
		},
		{
			name:       "bulleted changes after blank line",
			plan:       "GOAL: Fix bug\n\nCHANGES:\n\n- one\n- two",
			goal:       "Fix bug",
			changes:    []string{"one", "two"},
			structured: true,
		},
		{
			name:       "inline change",
			plan:       "goal: lower case\nchanges: just this",
			goal:       "lower case",
			changes:    []string{"just this"},
			structured: true,
		},
		{
			name: "free text",
			plan: "Make it faster.\n\n- cache things",
		},
		{
			name: "goal only",
			plan: "GOAL: Something",
			goal: "Something",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePlan(tt.plan)
			assert.Equal(t, tt.goal, p.Goal)
			assert.Equal(t, tt.changes, p.Changes)
			assert.Equal(t, tt.structured, p.Structured())
		})
	}
}

func TestGoalText(t *testing.T) {
	assert.Equal(t, "Add caching", GoalText("GOAL: Add caching"))
	assert.Equal(t, "Add caching", GoalText("  goal:   Add caching \n"))
	assert.Equal(t, "Add caching\nCHANGES:\n1. x", GoalText("GOAL: Add caching\nCHANGES:\n1. x"))
	assert.Equal(t, "No prefix here", GoalText("No prefix here"))
	assert.Equal(t, "GO", GoalText("GO"))
}
