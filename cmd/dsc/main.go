// Command dsc is the engine's command-line entry point.
package main

import (
	"fmt"
	"os"

	"github.com/open-dsc/dsc/cmd/dsc/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
