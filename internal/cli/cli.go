// Package cli implements the command-line interface for pipelinectl.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/eunmann/s3-file-pipeline/internal/app"
	"github.com/eunmann/s3-file-pipeline/internal/config"
	"github.com/eunmann/s3-file-pipeline/internal/logctx"
	"github.com/eunmann/s3-file-pipeline/internal/pipeline"
	"github.com/eunmann/s3-file-pipeline/pkg/objstore"
)

const defaultConcurrency = 4

// Run executes the CLI. args[0] is the program name.
func Run(ctx context.Context, args []string) error {
	return Command().Run(ctx, args)
}

// Command returns the pipelinectl root command.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "pipelinectl",
		Usage: "run the file pipeline handlers against live AWS resources",
		Flags: config.Flags(),
		Commands: []*cli.Command{
			{
				Name:      "process",
				Usage:     "run the ingestion processor once per object",
				ArgsUsage: "KEY|s3://BUCKET/KEY ...",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "objects processed in parallel",
						Value: defaultConcurrency,
					},
				},
				Action: runProcess,
			},
			{
				Name:      "replay",
				Usage:     "run a captured S3 notification through the ingestion handler",
				ArgsUsage: "FILE (- for stdin)",
				Action:    runReplay,
			},
			{
				Name:   "report",
				Usage:  "run the daily aggregation reporter once",
				Action: runReport,
			},
		},
	}
}

func runProcess(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd, config.RoleIngest)
	if err != nil {
		return err
	}

	args := cmd.Args().Slice()
	if len(args) == 0 {
		return errors.New("at least one object key or s3:// URI is required")
	}
	refs := make([]objstore.Ref, len(args))
	for i, arg := range args {
		ref, err := objstore.ParseRef(arg, cfg.Bucket)
		if err != nil {
			return fmt.Errorf("argument %q: %w", arg, err)
		}
		refs[i] = ref
	}

	concurrency := cmd.Int("concurrency")
	if concurrency < 1 {
		return fmt.Errorf("--concurrency must be at least 1, got %d", concurrency)
	}

	ctx = setupLogging(ctx, cfg)
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}

	// Each object is an independent invocation; one failing does not stop
	// the others.
	results := make([]pipeline.IngestResult, len(refs))
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			ictx := pipeline.InvocationContext(ctx, "ingest")
			ictx = logctx.WithStr(ictx, "bucket", ref.Bucket)
			ictx = logctx.WithStr(ictx, "key", ref.Key)

			res, err := a.Process(ictx, ref)
			results[i] = res
			return err
		})
	}
	waitErr := g.Wait()

	if err := writeResults(output(cmd), results); err != nil {
		return err
	}
	if waitErr != nil {
		return fmt.Errorf("%d of %d objects failed, first: %w", countFailed(results), len(results), waitErr)
	}
	return nil
}

func runReplay(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd, config.RoleIngest)
	if err != nil {
		return err
	}
	if cmd.Args().Len() != 1 {
		return errors.New("exactly one event file is required")
	}

	evt, err := readEvent(cmd.Args().First())
	if err != nil {
		return err
	}

	ctx = setupLogging(ctx, cfg)
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}

	res, err := a.HandleObjectCreated(ctx, evt)
	if err != nil {
		return err
	}
	if err := writeResults(output(cmd), []pipeline.IngestResult{res}); err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("replay failed: %s", res.Message)
	}
	return nil
}

func runReport(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd, config.RoleReport)
	if err != nil {
		return err
	}

	ctx = setupLogging(ctx, cfg)
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}

	res, runErr := a.GenerateDailyReport(pipeline.InvocationContext(ctx, "report"))
	if err := json.NewEncoder(output(cmd)).Encode(res); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return runErr
}

func setupLogging(ctx context.Context, cfg *config.Config) context.Context {
	logger := logctx.NewConfiguredLogger(cfg.LogLevel, cfg.LogHuman)
	logctx.SetDefaultLogger(logger)
	return logctx.WithLogger(ctx, logger)
}

func readEvent(path string) (events.S3Event, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return events.S3Event{}, fmt.Errorf("open event file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var evt events.S3Event
	if err := json.NewDecoder(r).Decode(&evt); err != nil {
		return events.S3Event{}, fmt.Errorf("decode event %s: %w", path, err)
	}
	return evt, nil
}

func writeResults(w io.Writer, results []pipeline.IngestResult) error {
	enc := json.NewEncoder(w)
	for _, res := range results {
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return nil
}

func countFailed(results []pipeline.IngestResult) int {
	n := 0
	for _, res := range results {
		if res.StatusCode != http.StatusOK {
			n++
		}
	}
	return n
}

func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
