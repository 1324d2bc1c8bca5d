// Command auditkit turns radio communication policies into weighted
// compliance templates and scores incident transcripts against them.
//
// Usage:
//
//	auditkit extract policy.docx
//	auditkit template generate policy.docx
//	auditkit audit run transcript.json --incident 2024-0193
//	auditkit mcp serve
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/auditkit/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
