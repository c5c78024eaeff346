package warden

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
)

type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// PromptConfirmer asks on the terminal with a huh form and falls back to
// a plain [y/N] line read when stdin is not a terminal.
type PromptConfirmer struct {
	In  *os.File
	Out io.Writer
}

func NewPromptConfirmer() *PromptConfirmer {
	return &PromptConfirmer{In: os.Stdin, Out: os.Stdout}
}

func (c *PromptConfirmer) Confirm(prompt string) (bool, error) {
	if c.In != nil && IsTerminal(c.In) {
		var ok bool
		field := huh.NewConfirm().
			Title(prompt).
			Affirmative("Yes").
			Negative("No").
			Value(&ok)
		err := huh.NewForm(huh.NewGroup(field)).
			WithInput(c.In).
			WithOutput(c.Out).
			Run()
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return ok, err
	}

	fmt.Fprintf(c.Out, "%s [y/N] ", prompt)
	var in io.Reader = os.Stdin
	if c.In != nil {
		in = c.In
	}
	return readYes(in)
}

func readYes(r io.Reader) (bool, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
