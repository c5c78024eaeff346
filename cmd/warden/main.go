package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sokinpui/warden"
)

func main() {
	if err := warden.Execute(); err != nil {
		if !errors.Is(err, warden.ErrApplyFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
