package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ivlev/placement2video/internal/faults"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			if kind := faults.KindName(err); kind != "unknown" {
				fmt.Fprintf(os.Stderr, "%s: %v\n", kind, err)
			} else {
				fmt.Fprintln(os.Stderr, err)
			}
		}
		os.Exit(1)
	}
}
