// Package main implements the entry point for the scry-remind bot, which
// reminds Telegram users of the terms they are learning on a spaced
// repetition schedule.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
