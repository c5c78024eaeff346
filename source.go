package warden

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/mattn/go-isatty"
)

var ErrEmptyPayload = errors.New("no payload available")

type PayloadSource interface {
	ReadPayload() (string, error)
}

type Clipboard interface {
	Copy(text string) error
}

// SourceProvider reads piped stdin when there is one and the system
// clipboard otherwise.
type SourceProvider struct {
	Stdin *os.File
}

func NewSourceProvider() *SourceProvider {
	return &SourceProvider{Stdin: os.Stdin}
}

func (sp *SourceProvider) ReadPayload() (string, error) {
	if sp.Stdin != nil && !IsTerminal(sp.Stdin) {
		c, err := io.ReadAll(sp.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(c), nil
	}

	if clipboard.Unsupported {
		return "", fmt.Errorf("%w: clipboard unsupported on this system", ErrEmptyPayload)
	}
	c, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return c, nil
}

type FileSource struct {
	Path string
}

func (s FileSource) ReadPayload() (string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read payload file: %w", err)
	}
	return string(data), nil
}

type StringSource string

func (s StringSource) ReadPayload() (string, error) {
	return string(s), nil
}

type SystemClipboard struct{}

func (SystemClipboard) Copy(text string) error {
	if clipboard.Unsupported {
		return errors.New("clipboard unsupported on this system")
	}
	return clipboard.WriteAll(text)
}

func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
