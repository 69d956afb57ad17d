package main

import (
	"fmt"
	"os"

	"github.com/techtribe/techtribe/internal/cli"
	"github.com/tillberg/autorestart"
)

func main() {
	if os.Getenv("TECHTRIBE_AUTORESTART") != "" {
		go autorestart.RestartOnChange()
	}

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
