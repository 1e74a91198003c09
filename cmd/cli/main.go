package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

const exitDeclined = 2

func main() {
	if err := Execute(); err != nil {
		if errors.Is(err, errDeclined) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitDeclined)
		}
		slog.Error("cli failed to run", "error", err)
		os.Exit(1)
	}
}
