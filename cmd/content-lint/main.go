package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/okian/lodge/internal/adapters/source"
	"github.com/okian/lodge/internal/config"
	"github.com/okian/lodge/internal/content"
	"github.com/okian/lodge/internal/contentlint"
	"github.com/okian/lodge/internal/domain/model"
	"github.com/okian/lodge/internal/domain/transform"
	"github.com/okian/lodge/pkg/logger"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	exitRuntime = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("content-lint", flag.ContinueOnError)
	var (
		dir      = fs.String("dir", "", "Content root containing events/, gamemasters/ and news/")
		category = fs.String("category", "", "Only check one category: events, gamemasters or news")
		strict   = fs.Bool("strict", false, "Exit non-zero on warnings as well as errors")
		asJSON   = fs.Bool("json", false, "Print the report as JSON")
		verbose  = fs.Bool("verbose", false, "Enable debug logging")
		help     = fs.Bool("help", false, "Show help")
	)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *help {
		contentlint.ShowHelp(stdout)
		return exitOK
	}

	// progress goes to stderr so stdout stays a clean report
	if err := logger.Init(logger.WithOutput(stderr)); err != nil {
		fmt.Fprintf(stderr, "failed to initialize logging: %v\n", err)
		return exitRuntime
	}
	if !*verbose {
		_ = logger.SetLevelString("warn")
	}

	cfg := &contentlint.Config{Dir: *dir, Strict: *strict, JSON: *asJSON}
	if *category != "" {
		c, ok := model.ParseCategory(*category)
		if !ok {
			fmt.Fprintf(stderr, "unknown category: %s\n", *category)
			return exitUsage
		}
		cfg.Categories = []model.Category{c}
	}

	// Excerpt length and timezone follow the service configuration.
	appCfg, err := config.Load(context.Background())
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return exitRuntime
	}
	loc, err := appCfg.Location()
	if err != nil {
		fmt.Fprintf(stderr, "invalid timezone: %v\n", err)
		return exitRuntime
	}
	tr := transform.New(transform.WithExcerptLength(appCfg.ExcerptLength), transform.WithLocation(loc))

	var src source.Source = source.NewFS(content.FS())
	if cfg.Dir != "" {
		src = source.NewDir(cfg.Dir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := contentlint.Run(ctx, src, cfg, tr)
	if err != nil {
		logger.Get().Error(ctx, "content lint failed", logger.Error(err))
		return exitRuntime
	}
	if err := contentlint.Write(stdout, report, cfg.JSON); err != nil {
		logger.Get().Error(ctx, "write report failed", logger.Error(err))
		return exitRuntime
	}
	if report.Failed(cfg.Strict) {
		return exitFailed
	}
	return exitOK
}
