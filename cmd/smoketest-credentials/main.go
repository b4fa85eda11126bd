package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fivetwenty-io/twitch-client/internal/harness"
)

func main() {
	err := harness.New(os.Stdout).RunWithCredentials(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
