package main

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	app := &cli.App{
		Name: "protosearch",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
			},
		},
		Before: setupLogger,
		Action: func(c *cli.Context) error { return nil },
	}

	t.Run("valid levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
			err := app.Run([]string{"protosearch", "--log-level", level})
			assert.NoError(t, err, "level %q", level)
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		err := app.Run([]string{"protosearch", "--log-level", "verbose"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestLoadCommand_MissingInput(t *testing.T) {
	app := &cli.App{
		Name: "protosearch",
		Commands: []*cli.Command{
			{
				Name:   "load",
				Action: loadCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "db", Required: true},
					&cli.StringFlag{Name: "input", Required: true},
					&cli.StringFlag{Name: "embedding-model", Required: true},
				},
			},
		},
	}

	t.Run("input flag is required", func(t *testing.T) {
		err := app.Run([]string{"protosearch", "load", "--db", t.TempDir(), "--embedding-model", "m"})
		assert.Error(t, err)
	})

	t.Run("missing input file", func(t *testing.T) {
		err := app.Run([]string{
			"protosearch", "load",
			"--db", t.TempDir(),
			"--embedding-model", "m",
			"--input", "/nonexistent/chunks.json",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read input file")
	})
}

func TestChunkInputParsing(t *testing.T) {
	content := `[{
		"agencyId": 42,
		"countyId": 7,
		"stateCode": "CA",
		"protocolNumber": "M-12",
		"title": "Anaphylaxis",
		"section": "Adult Treatment",
		"text": "Epinephrine auto-injector 0.3 mg IM.",
		"year": 2024
	}]`

	var inputs []chunkInput
	require.NoError(t, json.Unmarshal([]byte(content), &inputs))
	require.Len(t, inputs, 1)
	assert.Equal(t, uint64(42), inputs[0].AgencyId)
	assert.Equal(t, uint64(7), inputs[0].CountyId)
	assert.Equal(t, "CA", inputs[0].StateCode)
	assert.Equal(t, 2024, inputs[0].Year)
}
