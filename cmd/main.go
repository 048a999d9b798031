package main

import (
	"fmt"
	"os"

	"github.com/RaikyD/laundry-queue/internal/logger"
)

func main() {
	logger.Init()
	defer logger.Sync()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		logger.Sync()
		os.Exit(1)
	}
}
