package main

import (
	"fmt"
	"os"

	"github.com/locvowork/workforce_dashboard/internal/command"
)

func main() {
	if err := command.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
