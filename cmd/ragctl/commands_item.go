package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spacevault/ragcore/internal/config"
)

func runItemCommand(ctx context.Context, cfg config.Config, logger *slog.Logger, cmd string, args []string) error {
	switch cmd {
	case "save-message":
		return itemSaveMessage(ctx, cfg, logger, args)
	case "save-file":
		return itemSaveFile(ctx, cfg, logger, args)
	case "list":
		return itemList(cfg, logger, args)
	case "delete":
		return itemDelete(cfg, logger, args)
	default:
		return fmt.Errorf("unknown item command %q", cmd)
	}
}

func itemSaveMessage(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("item save-message", flag.ExitOnError)
	user := fs.String("user", "", "owning user id")
	spaceID := fs.String("space", "", "space id")
	text := fs.String("text", "", "message text")
	notes := fs.String("notes", "", "optional free-form notes")
	deadline := fs.Duration("deadline", 0, "per-call deadline, overrides default")
	fs.Parse(args)

	a, err := openApp(cfg, *user, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ictx, cancel := withDeadline(ctx, *deadline)
	defer cancel()

	item, err := a.ingest.SaveMessage(ictx, *spaceID, *text, *notes)
	if err != nil {
		return err
	}
	return printJSON(item)
}

func itemSaveFile(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("item save-file", flag.ExitOnError)
	user := fs.String("user", "", "owning user id")
	spaceID := fs.String("space", "", "space id")
	path := fs.String("file", "", "path to the file to upload")
	mime := fs.String("mime", "", "declared MIME type, e.g. application/pdf")
	notes := fs.String("notes", "", "optional free-form notes")
	deadline := fs.Duration("deadline", 0, "per-call deadline, overrides default")
	fs.Parse(args)

	data, err := os.ReadFile(*path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	a, err := openApp(cfg, *user, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ictx, cancel := withDeadline(ctx, *deadline)
	defer cancel()

	item, err := a.ingest.SaveFile(ictx, *spaceID, data, *mime, filepath.Base(*path), *notes)
	if err != nil {
		return err
	}
	return printJSON(item)
}

func itemList(cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("item list", flag.ExitOnError)
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

	items, err := a.ingest.ListItems(*spaceID, *limit, *offset)
	if err != nil {
		return err
	}
	return printJSON(items)
}

func itemDelete(cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("item delete", flag.ExitOnError)
	user := fs.String("user", "", "owning user id")
	spaceID := fs.String("space", "", "space id")
	itemID := fs.String("item", "", "item id")
	fs.Parse(args)

	a, err := openApp(cfg, *user, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ingest.DeleteItem(*spaceID, *itemID); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "deleted")
	return nil
}
