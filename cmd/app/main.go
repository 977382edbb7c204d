package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/laguz/internal"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/noteservice"
	"github.com/starford/laguz/internal/search"
	"github.com/starford/laguz/internal/store"
	pkgconfig "github.com/starford/laguz/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfPresent(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// withService runs a one-shot command against an opened store.
func withService(cmd *cli.Command, fn func(cfg *internal.Config, svc *noteservice.Service) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	return fn(cfg, noteservice.NewService(db, logger))
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func addAction(ctx context.Context, cmd *cli.Command) error {
	return withService(cmd, func(_ *internal.Config, svc *noteservice.Service) error {
		n := &models.Note{
			Section: cmd.String("section"),
			Title:   cmd.String("title"),
			Content: cmd.String("content"),
		}
		if err := svc.SaveNote(ctx, n); err != nil {
			return err
		}
		fmt.Printf("saved note %d\n", n.ID)
		return nil
	})
}

func searchAction(ctx context.Context, cmd *cli.Command) error {
	return withService(cmd, func(cfg *internal.Config, svc *noteservice.Service) error {
		filter := search.Filter{
			Section: cmd.String("section"),
			Book:    cmd.String("book"),
			Tag:     cmd.String("tag"),
		}
		term := strings.Join(cmd.Args().Slice(), " ")
		page, err := svc.Search(ctx, filter, term, cfg.Search.PageSize, int(cmd.Int("page")))
		if err != nil {
			return err
		}
		fmt.Printf("%d results (keywords: %s)\n", page.Total, strings.Join(page.Keywords, ", "))
		for _, row := range page.Rows {
			fmt.Printf("#%d  %s\n    %s\n", row.ID, row.Title, row.Preview)
		}
		return nil
	})
}

func tagAction(ctx context.Context, cmd *cli.Command) error {
	return withService(cmd, func(_ *internal.Config, svc *noteservice.Service) error {
		if cmd.Bool("list") {
			refs, err := svc.SectionTags(ctx, cmd.String("section"))
			if err != nil {
				return err
			}
			for _, tr := range refs {
				fmt.Printf("%s (%d)\n", tr.Tag.Name, tr.Refs)
			}
			return nil
		}
		var tags []string
		for _, t := range strings.Split(cmd.String("tags"), ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		noteID := cmd.Int("note")
		if !svc.UpdateNoteTags(ctx, noteID, tags) {
			return fmt.Errorf("tag update failed for note %d", noteID)
		}
		return nil
	})
}

func bookAction(ctx context.Context, cmd *cli.Command) error {
	return withService(cmd, func(_ *internal.Config, svc *noteservice.Service) error {
		noteID := cmd.Int("note")
		if !svc.UpdateNoteBook(ctx, noteID, cmd.String("name")) {
			return fmt.Errorf("book update failed for note %d", noteID)
		}
		return nil
	})
}

func main() {
	cmd := &cli.Command{
		Name:  "laguz",
		Usage: "Personal note store with adaptive full-text search and reference-counted tags and books",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the note tools over MCP stdio",
				Action: serveAction,
			},
			{
				Name:  "add",
				Usage: "Create a note",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "section", Aliases: []string{"s"}, Required: true, Usage: "Section the note belongs to"},
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Required: true, Usage: "Note title"},
					&cli.StringFlag{Name: "content", Usage: "Note content (HTML allowed)"},
				},
				Action: addAction,
			},
			{
				Name:      "search",
				Usage:     "Search notes in a section",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "section", Aliases: []string{"s"}, Required: true, Usage: "Section to search in"},
					&cli.StringFlag{Name: "book", Usage: "Filter by book name"},
					&cli.StringFlag{Name: "tag", Usage: "Filter by tag name"},
					&cli.IntFlag{Name: "page", Value: 1, Usage: "Result page"},
				},
				Action: searchAction,
			},
			{
				Name:  "tag",
				Usage: "Replace a note's tag set, or list a section's tags",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "note", Aliases: []string{"n"}, Usage: "Note id"},
					&cli.StringFlag{Name: "tags", Usage: "Comma-separated tag names (empty to clear)"},
					&cli.BoolFlag{Name: "list", Usage: "List the section's tags with reference counts"},
					&cli.StringFlag{Name: "section", Aliases: []string{"s"}, Usage: "Section for --list"},
				},
				Action: tagAction,
			},
			{
				Name:  "book",
				Usage: "Set or clear a note's book",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "note", Aliases: []string{"n"}, Required: true, Usage: "Note id"},
					&cli.StringFlag{Name: "name", Usage: "Book name (empty to clear)"},
				},
				Action: bookAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
