package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/karmatic/cmd/karmatic"
	"github.com/arthur-debert/karmatic/internal/version"
)

func main() {
	rootCmd := karmatic.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "KARMATIC",
		Section: "1",
		Source:  "karmatic " + version.Version,
		Manual:  "karmatic manual",
	}

	err := doc.GenMan(rootCmd, header, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
