package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/goliatone/go-sitecore/internal/prompt"
)

func main() {
	root := newRootCommand(os.Stdout, prompt.Survey())
	if err := root.Execute(); err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "sitecore:", err)
		os.Exit(1)
	}
}
