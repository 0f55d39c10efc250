// Command searchctl is the operator CLI for the search engine: run a query
// against the configured index, inspect or initialise the index database and
// read live analytics from a running service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/index/sqlstore"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/internal/searcher/setup"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/database"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/logger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "searchctl",
		Usage: "Query and inspect the web search index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file (empty for built-in defaults)",
			},
			&cli.StringFlag{
				Name:  "sqlite",
				Usage: "Use the SQLite index at this path instead of the configured store",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "query",
				Usage:     "Run a search and print the JSON response",
				ArgsUsage: "<query>",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "phrase",
						Usage: "Phrase mode: 0 disabled, 1 stemmed raw phrase, 2 exact raw phrase",
						Value: "0",
					},
					&cli.BoolFlag{
						Name:  "title",
						Usage: "Match the phrase in titles only",
					},
					&cli.BoolFlag{
						Name:  "page-rank",
						Usage: "Blend PageRank into the score",
					},
					&cli.IntFlag{
						Name:  "distance",
						Usage: "Maximum gap between consecutive phrase words",
						Value: 1,
					},
					&cli.StringFlag{
						Name:  "exclude",
						Usage: "Drop documents containing any of these words",
					},
				},
			},
			{
				Name:   "check-db",
				Usage:  "Report the number of indexed words",
				Action: checkDBCommand,
			},
			{
				Name:   "init-db",
				Usage:  "Create the index tables if they do not exist",
				Action: initDBCommand,
			},
			{
				Name:   "stats",
				Usage:  "Print live analytics from a running service",
				Action: statsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Usage: "Analytics endpoint",
						Value: "http://localhost:8083/api/v1/analytics",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "HTTP timeout",
						Value: 5 * time.Second,
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	level := strings.ToLower(c.String("log-level"))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", level)
	}
	logger.Setup(level, "text")
	return nil
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if path := c.String("sqlite"); path != "" {
		cfg.Store.Driver = database.DriverSQLite
		cfg.Store.SQLitePath = path
	}
	return cfg, nil
}

func queryCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("a query is required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	rt, err := setup.Open(cfg, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	resp, err := rt.Engine.Search(c.Context, executor.Request{
		Query:        query,
		PhraseMode:   executor.ParsePhraseMode(c.String("phrase")),
		MatchInTitle: c.Bool("title"),
		WithPageRank: c.Bool("page-rank"),
		Distance:     c.Int("distance"),
		ExcludeWords: c.String("exclude"),
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return printJSON(c.App.Writer, resp)
}

func checkDBCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	rt, err := setup.Open(cfg, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	n, err := rt.Engine.WordCount(c.Context)
	if err != nil {
		return printJSON(c.App.Writer, map[string]string{"error": err.Error()})
	}
	return printJSON(c.App.Writer, map[string]int64{"wordList_count": n})
}

func initDBCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := database.New(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sqlstore.New(db).EnsureSchema(c.Context); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "index schema ready (%s)\n", db.Driver)
	return nil
}

func statsCommand(c *cli.Context) error {
	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.String("url"), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching analytics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("analytics endpoint returned %s", resp.Status)
	}
	var stats map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return fmt.Errorf("decoding analytics: %w", err)
	}
	return printJSON(c.App.Writer, stats)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
