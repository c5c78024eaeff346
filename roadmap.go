package warden

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
)

const RoadmapMarker = "===ROADMAP==="

var roadmapBlockRegex = regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(RoadmapMarker) + `[ \t\r]*$`)

// RoadmapProcessor applies the task-tracker commands embedded in a payload
// to the roadmap at path and reports one message per command.
type RoadmapProcessor interface {
	HandleInput(path, raw string) ([]string, error)
}

func ContainsRoadmapBlock(text string) bool {
	return roadmapBlockRegex.MatchString(text)
}

// CommandRoadmap hands the raw payload to an external roadmap command on
// stdin. The roadmap path is passed in WARDEN_ROADMAP.
type CommandRoadmap struct {
	Command string
	Dir     string
}

func (r *CommandRoadmap) HandleInput(path, raw string) ([]string, error) {
	cmd := shellCommand(context.Background(), r.Command)
	cmd.Dir = r.Dir
	cmd.Env = append(cmd.Environ(), "WARDEN_ROADMAP="+path)
	cmd.Stdin = strings.NewReader(raw)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("roadmap command %q: %w: %s", r.Command, err, strings.TrimSpace(stderr.String()))
	}

	var results []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			results = append(results, line)
		}
	}
	return results, nil
}
