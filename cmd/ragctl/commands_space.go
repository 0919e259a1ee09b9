package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/spacevault/ragcore/internal/config"
)

func runSpaceCommand(ctx context.Context, cfg config.Config, logger *slog.Logger, cmd string, args []string) error {
	switch cmd {
	case "create":
		return spaceCreate(cfg, logger, args)
	case "list":
		return spaceList(cfg, logger, args)
	case "get":
		return spaceGet(cfg, logger, args)
	case "update":
		return spaceUpdate(cfg, logger, args)
	case "delete":
		return spaceDelete(cfg, logger, args)
	default:
		return fmt.Errorf("unknown space command %q", cmd)
	}
}

func spaceCreate(cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("space create", flag.ExitOnError)
	user := fs.String("user", "", "owning user id")
	name := fs.String("name", "", "space name, 1-50 chars")
	description := fs.String("description", "", "space description, <=500 chars")
	fs.Parse(args)

	a, err := openApp(cfg, *user, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sp, err := a.space.Create(*name, *description)
	if err != nil {
		return err
	}
	return printJSON(sp)
}

func spaceList(cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("space list", flag.ExitOnError)
	user := fs.String("user", "", "owning user id")
	fs.Parse(args)

	a, err := openApp(cfg, *user, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	spaces, err := a.space.List()
	if err != nil {
		return err
	}
	return printJSON(spaces)
}

func spaceGet(cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("space get", flag.ExitOnError)
	user := fs.String("user", "", "owning user id")
	spaceID := fs.String("space", "", "space id")
	fs.Parse(args)

	a, err := openApp(cfg, *user, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sp, err := a.space.Get(*spaceID)
	if err != nil {
		return err
	}
	return printJSON(sp)
}

func spaceUpdate(cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("space update", flag.ExitOnError)
	user := fs.String("user", "", "owning user id")
	spaceID := fs.String("space", "", "space id")
	name := fs.String("name", "", "new name, leave empty to keep unchanged")
	description := fs.String("description", "", "new description, leave empty to keep unchanged")
	fs.Parse(args)

	a, err := openApp(cfg, *user, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var namePtr, descPtr *string
	if *name != "" {
		namePtr = name
	}
	if fs.Lookup("description").Value.String() != "" {
		descPtr = description
	}

	sp, err := a.space.Update(*spaceID, namePtr, descPtr)
	if err != nil {
		return err
	}
	return printJSON(sp)
}

func spaceDelete(cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("space delete", flag.ExitOnError)
	user := fs.String("user", "", "owning user id")
	spaceID := fs.String("space", "", "space id")
	fs.Parse(args)

	a, err := openApp(cfg, *user, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.space.Delete(*spaceID); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "deleted")
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
