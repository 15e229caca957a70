package main

import (
	"fmt"
	"os"

	"github.com/babarot/sift/internal/cli"
)

const appName = "sift"

// set by ldflags
var (
	Version   = "unset"
	Revision  = "unset"
	BuildDate = "unknown"
)

func main() {
	if err := cli.Run(cli.Version{
		AppName:   appName,
		Version:   Version,
		Revision:  Revision,
		BuildDate: BuildDate,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}
