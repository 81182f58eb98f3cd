// Package main is the entry point for the scm command.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google-code-export/editra-plugins-sub001/internal/bootstrap"
	"github.com/google-code-export/editra-plugins-sub001/internal/buildinfo"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	buildinfo.Set(version, commit, date, builtBy)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := bootstrap.Main(ctx, os.Args)
	stop()
	os.Exit(code)
}
