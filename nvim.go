package warden

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/neovim/go-client/nvim"
)

const nvimAddrEnv = "NVIM_LISTEN_ADDRESS"

// BufferReloader tells editors holding the written files to re-read them.
type BufferReloader interface {
	Reload(paths []string) error
}

// NvimReloader talks to the Neovim instance advertised in
// NVIM_LISTEN_ADDRESS. Without one it does nothing.
type NvimReloader struct {
	Addr string
	Root string
}

func NewNvimReloader(root string) *NvimReloader {
	return &NvimReloader{Addr: os.Getenv(nvimAddrEnv), Root: root}
}

func (r *NvimReloader) Reload(paths []string) error {
	if r.Addr == "" || len(paths) == 0 {
		return nil
	}

	v, err := nvim.Dial(r.Addr)
	if err != nil {
		return fmt.Errorf("failed to connect to nvim at %s: %w", r.Addr, err)
	}
	defer v.Close()

	b := v.NewBatch()
	for _, p := range paths {
		abs, err := filepath.Abs(resolvePath(p, r.Root))
		if err != nil {
			continue
		}
		// Only buffers already open are touched.
		b.Command(fmt.Sprintf("if bufexists(%q) | checktime %s | endif", abs, escapeExPath(abs)))
	}
	return b.Execute()
}

func escapeExPath(p string) string {
	out := make([]rune, 0, len(p))
	for _, c := range p {
		switch c {
		case ' ', '\\', '%', '#', '|', '"':
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(out)
}
