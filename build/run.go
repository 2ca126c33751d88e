// Package build implements commands turning source stylesheets into CSS.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"twc/config"
	"twc/css"
	"twc/design"
	"twc/pipeline"
	"twc/purge"
	"twc/state"
)

// builder carries everything shared by concurrently processed stylesheets.
// Design configuration and purger are read only.
type builder struct {
	design    *design.Configuration
	purger    purge.Purger
	cfg       *config.BuildConfig
	dst       string
	overwrite bool
	log       *zap.Logger

	// debug report is not safe for concurrent use
	mu  sync.Mutex
	rpt *config.Report
}

func (b *builder) report(fn func(r *config.Report)) {
	if b.rpt == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b.rpt)
}

// Run is the "build" command.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("build")

	sources := cmd.Args().Slice()
	if len(sources) == 0 {
		return errors.New("no input source has been specified")
	}

	dst := cmd.String("out")
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}

	buildCfg := withPurge(env.Cfg.Build, cmd.StringSlice("purge"))

	b, err := newBuilder(env, &buildCfg, cmd.String("design"), dst, log)
	if err != nil {
		return err
	}
	b.overwrite = cmd.Bool("overwrite")

	log.Info("Processing starting", zap.Strings("sources", sources), zap.String("destination", dst), zap.Int("concurrency", concurrency(buildCfg.Concurrency)))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return b.buildAll(ctx, sources)
}

// withPurge returns copy of cfg with purging enabled for additional content
// patterns. cfg itself is not modified.
func withPurge(cfg config.BuildConfig, patterns []string) config.BuildConfig {
	if len(patterns) > 0 {
		cfg.Purge.Enable = true
		cfg.Purge.Content = slices.Concat(cfg.Purge.Content, patterns)
	}
	return cfg
}

func newBuilder(env *state.LocalEnv, cfg *config.BuildConfig, designPath, dst string, log *zap.Logger) (*builder, error) {
	dc, err := env.LoadDesign(designPath)
	if err != nil {
		return nil, err
	}
	b := &builder{design: dc, cfg: cfg, dst: dst, rpt: env.Rpt, log: log}
	if cfg.Purge.Enable {
		patterns, err := cfg.Purge.CompiledWhitelist()
		if err != nil {
			return nil, err
		}
		b.purger = purge.New(purge.Options{
			Content:           cfg.Purge.Content,
			Whitelist:         cfg.Purge.Whitelist,
			WhitelistPatterns: patterns,
			Keyframes:         cfg.Purge.Keyframes,
			FontFace:          cfg.Purge.FontFace,
		}, log)
	}
	return b, nil
}

func concurrency(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// buildAll processes sources concurrently. Failure of one stylesheet does not
// stop others, all failures are returned together.
func (b *builder) buildAll(ctx context.Context, sources []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency(b.cfg.Concurrency))

	var (
		mu   sync.Mutex
		errs error
	)
	for _, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := b.buildFile(ctx, src); err != nil {
				b.log.Error("Unable to process stylesheet", zap.String("file", src), zap.Error(err))
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", src, err))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return errs
}

// process parses and transforms a single source.
func (b *builder) process(ctx context.Context, src string) (*pipeline.Result, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("unable to read source: %w", err)
	}
	b.report(func(r *config.Report) { r.StoreData("input/"+filepath.Base(src), data) })

	sheet := css.NewParser(b.log).Parse(data, src)
	for _, w := range sheet.Warnings {
		b.log.Warn("Stylesheet problem", zap.String("warning", w))
	}

	res, err := pipeline.Process(ctx, sheet, b.design, pipeline.Options{
		Log: b.log,
		OnSelectorError: func(message string) {
			b.log.Warn(message, zap.String("file", src))
		},
	})
	if err != nil {
		return nil, err
	}
	if b.purger != nil {
		purged, err := b.purger.Process(res.Sheet)
		if err != nil {
			return nil, fmt.Errorf("unable to purge: %w", err)
		}
		res.Sheet = purged
	}
	return res, nil
}

func (b *builder) buildFile(ctx context.Context, src string) error {
	abs, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	out, err := outputPath(src, b.dst, b.cfg)
	if err != nil {
		return err
	}
	if out == abs {
		return fmt.Errorf("output would overwrite source (%s)", out)
	}
	if _, err := os.Stat(out); err == nil && !b.overwrite {
		return fmt.Errorf("output file already exists (%s)", out)
	}

	res, err := b.process(ctx, src)
	if err != nil {
		return err
	}

	data := []byte(res.Sheet.String())
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("unable to write result: %w", err)
	}
	b.report(func(r *config.Report) { r.StoreData("output/"+filepath.Base(out), data) })

	b.log.Info("Stylesheet written", zap.String("source", src), zap.String("destination", out),
		zap.Int("warnings", len(res.Warnings)), zap.Int("bytes", len(data)))
	return nil
}
