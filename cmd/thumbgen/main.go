// Command thumbgen renders page thumbnails of a PDF file to a directory
// through the thumbnail pipeline: priority-ordered loading bounded by the
// render gate, with LRU caching.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/wudi/thumbkit/bus"
	"github.com/wudi/thumbkit/observability"
	"github.com/wudi/thumbkit/render/fitz"
	"github.com/wudi/thumbkit/thumbnail"
)

type options struct {
	pdfPath string
	outDir  string
	limit   int
	cache   int
	verbose bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "thumbgen: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "thumbgen: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: thumbgen [flags] <pdf>\n")
		flag.PrintDefaults()
	}
	flag.StringVar(&opts.outDir, "out", "thumbnails", "Directory for rendered thumbnails")
	flag.IntVar(&opts.limit, "limit", thumbnail.DefaultGateLimit, "Maximum concurrent renders")
	flag.IntVar(&opts.cache, "cache", thumbnail.DefaultCacheCapacity, "Thumbnail cache capacity")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return opts, fmt.Errorf("expected exactly one PDF path")
	}
	opts.pdfPath = flag.Arg(0)
	return opts, nil
}

func run(opts options) error {
	zl, err := newZap(opts.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	log := observability.NewZapLogger(zl)

	doc, err := fitz.Open(opts.pdfPath)
	if err != nil {
		return err
	}
	defer doc.Close()

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	coordinator, err := thumbnail.New(fitz.NewRenderer(), nil, bus.New(),
		thumbnail.WithGateLimit(opts.limit),
		thumbnail.WithCacheCapacity(opts.cache),
		thumbnail.WithInitialBatch(doc.PageCount()),
		thumbnail.WithLogger(log),
	)
	if err != nil {
		return err
	}
	defer coordinator.Close()

	ctx := context.Background()
	if err := coordinator.LoadThumbnails(ctx, doc); err != nil {
		return err
	}

	written := 0
	for _, item := range coordinator.Items() {
		im := item.Image()
		if im == nil {
			log.Warn("page skipped, render failed",
				observability.Int("page", item.PageNumber()))
			continue
		}
		name := filepath.Join(opts.outDir, fmt.Sprintf("page-%03d.png", item.PageNumber()))
		if err := os.WriteFile(name, im.PNG(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		written++
	}

	log.Info("thumbnails written",
		observability.String("pdf", opts.pdfPath),
		observability.Int("pages", doc.PageCount()),
		observability.Int("written", written),
		observability.String("out", opts.outDir))
	return nil
}

func newZap(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}
