package warden

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const fallbackCommitMessage = "warden: apply changes"

type Committer interface {
	CommitAndPush(ctx context.Context, message string) (string, error)
}

// GitCommitter stages everything, commits and pushes. A clean tree is not
// an error.
type GitCommitter struct {
	Dir    string
	Prefix string
	NoPush bool
}

func (g *GitCommitter) CommitAndPush(ctx context.Context, message string) (string, error) {
	if _, err := g.run(ctx, "add", "-A"); err != nil {
		return "", err
	}

	status, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return "", err
	}
	if status == "" {
		return "No changes to commit.", nil
	}

	if _, err := g.run(ctx, "commit", "-m", g.Prefix+message); err != nil {
		return "", err
	}
	subject := strings.SplitN(g.Prefix+message, "\n", 2)[0]
	if g.NoPush {
		return "Committed: " + subject, nil
	}

	if _, err := g.run(ctx, "push"); err != nil {
		return "", err
	}
	return "Committed and pushed: " + subject, nil
}

func (g *GitCommitter) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// BuildCommitMessage folds a stored retry intent into the commit so the
// original objective survives a chain of fix-up attempts.
func BuildCommitMessage(plan string, hasPlan bool, intent string) string {
	goal := fallbackCommitMessage
	if hasPlan {
		if g := GoalText(plan); g != "" {
			goal = g
		}
	}

	intent = strings.TrimSpace(intent)
	if intent != "" && intent != goal {
		return intent + "\n\nFollow-up: " + goal
	}
	return goal
}
