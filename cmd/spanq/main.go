// Command spanq builds frame timeline frames from a SQLite trace database.
//
// Usage:
//
//	spanq init --db trace.db
//	spanq frames --config spanq.yaml --start 0 --end 2.5 --resolution 1e-6 [--out frames/]
//	spanq inspect frames/app_frames.frame
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
