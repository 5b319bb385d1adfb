// Command e2e runs the end-to-end suites against the contracts app, or serves
// the app itself.
//
//	e2e serve --seed
//	e2e run --base-url http://localhost:8080 --driver playwright
//	e2e run --serve
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand(ctx, os.Stdout, os.Stderr).execute()
	stop()
	if err != nil {
		os.Exit(1)
	}
}
