package warden

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"go.uber.org/zap"
)

type Verifier interface {
	Verify(ctx context.Context) (bool, string)
}

// CommandVerifier runs the configured checks in order and stops at the
// first failure. When every check passes, Scan runs last.
type CommandVerifier struct {
	Checks   []string
	Scan     string
	Dir      string
	Logger   *zap.Logger
	Progress *Progress
}

func (v *CommandVerifier) Verify(ctx context.Context) (bool, string) {
	var log strings.Builder

	for _, c := range v.Checks {
		if strings.TrimSpace(c) == "" {
			continue
		}
		ok, out := v.run(ctx, c)
		fmt.Fprintf(&log, "> %s\n%s\n", c, out)
		if !ok {
			return false, log.String()
		}
	}

	if strings.TrimSpace(v.Scan) == "" {
		v.logger().Warn("no scan command configured, self-scan skipped; set [commands] scan in " + ConfigFileName)
		return true, log.String()
	}
	ok, out := v.run(ctx, v.Scan)
	fmt.Fprintf(&log, "> %s\n%s\n", v.Scan, out)
	return ok, log.String()
}

func (v *CommandVerifier) run(ctx context.Context, command string) (bool, string) {
	logger := v.logger()
	logger.Info("running check", zap.String("command", command))

	if v.Progress != nil {
		v.Progress.Start("Running " + command)
		defer v.Progress.Stop()
	}

	cmd := shellCommand(ctx, command)
	if v.Dir != "" {
		cmd.Dir = v.Dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := strings.TrimRight(stdout.String(), "\n") + "\n" + strings.TrimRight(stderr.String(), "\n")
	if err != nil {
		logger.Warn("check failed", zap.String("command", command), zap.Error(err))
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			out += "\n" + err.Error()
		}
		return false, out
	}
	return true, out
}

func (v *CommandVerifier) logger() *zap.Logger {
	if v.Logger == nil {
		return zap.NewNop()
	}
	return v.Logger
}

func shellCommand(ctx context.Context, command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	return exec.CommandContext(ctx, "sh", "-c", command)
}
