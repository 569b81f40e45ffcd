// Copyright 2026 PulseMed Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pulsemed/protosearch"
	"github.com/pulsemed/protosearch/ai"
	"github.com/pulsemed/protosearch/core"
	"github.com/pulsemed/protosearch/ingestion"
	"github.com/pulsemed/protosearch/ranking"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "protosearch",
		Usage: "Semantic search over EMS protocol documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "load",
				Usage:  "Load protocol chunks from a JSON file into the index",
				Action: loadCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB index directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "JSON file containing protocol chunks",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent embedding workers",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to embed per provider call",
						Value: 32,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.Float64Flag{
						Name:  "rps",
						Usage: "Embedding request rate limit (0 disables)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search protocols within a jurisdiction scope",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB index directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "state",
						Usage:    "Two-letter state code (hard scope filter)",
						Required: true,
					},
					&cli.Uint64Flag{
						Name:  "county",
						Usage: "County ID (soft ranking boost)",
					},
					&cli.Uint64Flag{
						Name:  "agency",
						Usage: "Agency ID (soft ranking boost)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 5,
					},
					&cli.StringFlag{
						Name:  "weights",
						Usage: "TOML file with ranking weights",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Request deadline",
						Value: 10 * time.Second,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.Float64Flag{
						Name:  "rps",
						Usage: "Embedding request rate limit (0 disables)",
					},
				},
			},
			{
				Name:      "cost",
				Usage:     "Estimate how many embedding calls a query would issue",
				ArgsUsage: "QUERY...",
				Action:    costCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB index directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// chunkInput is the JSON shape of one protocol chunk in a load file.
type chunkInput struct {
	AgencyId       uint64 `json:"agencyId"`
	CountyId       uint64 `json:"countyId"`
	StateCode      string `json:"stateCode"`
	ProtocolNumber string `json:"protocolNumber"`
	Title          string `json:"title"`
	Section        string `json:"section"`
	Text           string `json:"text"`
	Year           int    `json:"year"`
}

func loadCommand(c *cli.Context) error {
	ctx := context.Background()

	data, err := os.ReadFile(c.String("input"))
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	var inputs []chunkInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return fmt.Errorf("failed to parse input file: %w", err)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("input file contains no chunks")
	}

	chunks := make([]*core.ProtocolChunk, len(inputs))
	for i, in := range inputs {
		chunks[i] = &core.ProtocolChunk{
			AgencyId:       core.ID(in.AgencyId),
			CountyId:       core.ID(in.CountyId),
			StateCode:      in.StateCode,
			ProtocolNumber: in.ProtocolNumber,
			Title:          in.Title,
			Section:        in.Section,
			Text:           in.Text,
			Year:           in.Year,
		}
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	pipeline, err := engine.NewIngestionPipeline(
		ingestion.WithPoolSize(c.Int("pool-size")),
		ingestion.WithBatchSize(c.Int("batch-size")),
	)
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	fmt.Fprintf(os.Stderr, "Index: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintf(os.Stderr, "Chunks: %d\n\n", len(chunks))

	tracker := ingestion.NewProgressTracker(os.Stderr, len(chunks), c.Int("report-interval"))
	tracker.Start()

	if err := pipeline.Load(ctx, chunks, tracker); err != nil {
		return fmt.Errorf("load failed: %w", err)
	}
	tracker.Finish()

	fmt.Fprintf(os.Stderr, "Loaded %d chunks in %s\n", len(chunks), tracker.Elapsed().Round(time.Millisecond))
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("query is required")
	}

	opts, err := engineOptions(c)
	if err != nil {
		return err
	}

	engine, err := protosearch.Open(c.String("db"), opts...)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer engine.Close()

	scope := &core.ScopeFilter{
		StateCode: c.String("state"),
		CountyId:  core.ID(c.Uint64("county")),
		AgencyId:  core.ID(c.Uint64("agency")),
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
	defer cancel()

	resp, err := engine.Search(ctx, query, scope, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if resp.Degraded {
		fmt.Fprintln(os.Stderr, "warning: embedding provider unavailable, keyword results only")
	}

	fmt.Printf("Found %d hits (%s)\n", len(resp.Results), resp.Mode)
	for _, hit := range resp.Results {
		fmt.Printf("%d: %s %s - %s [%0.3f]\n",
			hit.Rank,
			hit.Chunk.ProtocolNumber,
			hit.Chunk.Title,
			hit.Chunk.Section,
			hit.CompositeScore)
	}
	return nil
}

func costCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("query is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	fmt.Printf("%d\n", engine.EstimateCost(query))
	return nil
}

func openEngine(c *cli.Context) (*protosearch.Engine, error) {
	opts, err := engineOptions(c)
	if err != nil {
		return nil, err
	}

	engine, err := protosearch.Open(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return engine, nil
}

func engineOptions(c *cli.Context) ([]protosearch.EngineOption, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
		ai.WithRequestsPerSecond(c.Float64("rps")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid embedding configuration: %w", err)
	}

	opts := []protosearch.EngineOption{protosearch.WithAIConfig(aiConfig)}

	if path := c.String("weights"); path != "" {
		weights, err := ranking.LoadWeights(path)
		if err != nil {
			return nil, fmt.Errorf("invalid weights file: %w", err)
		}
		opts = append(opts, protosearch.WithWeights(weights))
	}
	return opts, nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
