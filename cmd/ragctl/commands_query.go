package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"

	"github.com/spacevault/ragcore/internal/config"
)

func runQueryCommand(ctx context.Context, cfg config.Config, logger *slog.Logger, cmd string, args []string) error {
	switch cmd {
	case "ask":
		return queryAsk(ctx, cfg, logger, args)
	case "list":
		return queryList(cfg, logger, args)
	case "search":
		return querySearch(ctx, cfg, logger, args)
	case "global-search":
		return queryGlobalSearch(ctx, cfg, logger, args)
	default:
		return fmt.Errorf("unknown query command %q", cmd)
	}
}

func queryAsk(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("query ask", flag.ExitOnError)
	user := fs.String("user", "", "owning user id")
	spaceID := fs.String("space", "", "space id")
	question := fs.String("question", "", "question text, 1-2000 chars")
	k := fs.Int("k", 0, "number of sources to retrieve, 1-20, 0 uses the default")
	deadline := fs.Duration("deadline", 0, "per-call deadline, overrides default")
	fs.Parse(args)

	a, err := openApp(cfg, *user, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	qctx, cancel := withDeadline(ctx, *deadline)
	defer cancel()

	q, err := a.rag.Query(qctx, *spaceID, *question, *k)
	if err != nil {
		return err
	}
	return printJSON(q)
}

func queryList(cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("query list", flag.ExitOnError)
	user := fs.String("user", "", "owning user id")
	spaceID := fs.String("space", "", "space id")
	limit := fs.Int("limit", 20, "page size")
	offset := fs.Int("offset", 0, "page offset")
	fs.Parse(args)

	a, err := openApp(cfg, *user, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	queries, err := a.rag.ListQueries(*spaceID, *limit, *offset)
	if err != nil {
		return err
	}
	return printJSON(queries)
}

func querySearch(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("query search", flag.ExitOnError)
	user := fs.String("user", "", "owning user id")
	spaceID := fs.String("space", "", "space id")
	text := fs.String("text", "", "search text")
	k := fs.Int("k", 0, "number of results, 0 uses the default")
	fs.Parse(args)

	a, err := openApp(cfg, *user, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	hits, err := a.rag.SearchInSpace(ctx, *spaceID, *text, *k)
	if err != nil {
		return err
	}
	return printJSON(hits)
}

func queryGlobalSearch(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("query global-search", flag.ExitOnError)
	user := fs.String("user", "", "owning user id")
	text := fs.String("text", "", "search text")
	k := fs.Int("k", 0, "number of results, 0 uses the default")
	fs.Parse(args)

	a, err := openApp(cfg, *user, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	hits, err := a.rag.GlobalSearch(ctx, *text, *k)
	if err != nil {
		return err
	}
	return printJSON(hits)
}
