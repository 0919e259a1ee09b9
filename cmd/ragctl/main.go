// Command ragctl exercises the core operations directly: a caller that
// already knows which user it's acting as and invokes the Go APIs one
// subcommand at a time. Any HTTP surface, auth middleware, or UI lives
// outside this module and would wire the same services the same way.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spacevault/ragcore/internal/config"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 3 {
		printUsage()
		os.Exit(2)
	}

	cfg := config.MustLoad()
	group, cmd := os.Args[1], os.Args[2]
	args := os.Args[3:]

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DeadlineDefault)
	defer cancel()

	if err := dispatch(ctx, cfg, logger, group, cmd, args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, cfg config.Config, logger *slog.Logger, group, cmd string, args []string) error {
	switch group {
	case "space":
		return runSpaceCommand(ctx, cfg, logger, cmd, args)
	case "item":
		return runItemCommand(ctx, cfg, logger, cmd, args)
	case "query":
		return runQueryCommand(ctx, cfg, logger, cmd, args)
	case "reindex":
		return runReindexCommand(ctx, cfg, logger, cmd, args)
	default:
		printUsage()
		return fmt.Errorf("unknown command group %q", group)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `ragctl <group> <command> [flags]

groups:
  space   create | list | get | update | delete
  item    save-message | save-file | list | delete
  query   ask | list | search | global-search
  reindex run

every command takes -user and, except "space create"/"space list"/"query global-search"/"reindex run", -space.
run "ragctl <group> <command> -h" for flag details.`)
}

// withDeadline re-derives a context with an explicit per-command deadline
// when the caller passes -deadline, overriding cfg.DeadlineDefault.
func withDeadline(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(context.WithoutCancel(parent), d)
}
