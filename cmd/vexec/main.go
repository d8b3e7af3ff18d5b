// vexec serves columnar tables over HTTP and executes queries against them
// with parallel vectorized fragments.
package main

import (
	"log/slog"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
