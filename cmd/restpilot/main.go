package main

import (
	"fmt"
	"os"

	"github.com/restpilot/restpilot/internal/cli"
	"github.com/restpilot/restpilot/internal/config"
)

func main() {
	cfg, err := config.LoadFile(configPath())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := cli.Execute(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// configPath honors RESTPILOT_CONFIG, falling back to the conventional
// dotfile name in the current directory.
func configPath() string {
	if p := os.Getenv("RESTPILOT_CONFIG"); p != "" {
		return p
	}
	return ".restpilot.yaml"
}
