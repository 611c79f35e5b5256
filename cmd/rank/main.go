package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"os"
	"time"

	"github.com/okian/userboard/internal/adapters/http/api"
	"github.com/okian/userboard/internal/adapters/source"
	"github.com/okian/userboard/internal/config"
	"github.com/okian/userboard/internal/domain/model"
	"github.com/okian/userboard/internal/domain/ranking"
	"github.com/okian/userboard/pkg/logger"
)

const fetchTimeout = 30 * time.Second

type options struct {
	kind, path, url string
	search          string
	page, size      int
	id              string
	cfg             config.Config
}

func main() {
	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	defaults := config.New()
	opts := options{cfg: *defaults}
	flag.StringVar(&opts.kind, "source", config.SourceFile, "User source: file, sqlite or http")
	flag.StringVar(&opts.path, "path", "users.json", "File or database path for the file and sqlite sources")
	flag.StringVar(&opts.url, "url", defaults.SourceURL, "Users endpoint for the http source")
	flag.StringVar(&opts.search, "search", "", "Case-insensitive id substring filter")
	flag.IntVar(&opts.page, "page", 0, "Zero-based page index")
	flag.IntVar(&opts.size, "size", defaults.DefaultPageSize, "Page size")
	flag.StringVar(&opts.id, "id", "", "Print the global rank of this user instead of a page")
	flag.Float64Var(&opts.cfg.RatingWeight, "w-rating", defaults.RatingWeight, "Rating weight")
	flag.Float64Var(&opts.cfg.RentsWeight, "w-rents", defaults.RentsWeight, "Rents weight")
	flag.Float64Var(&opts.cfg.RecencyWeight, "w-recency", defaults.RecencyWeight, "Recency weight")
	flag.Parse()

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		logger.Get().Error(context.Background(), "rank failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	cfg := opts.cfg
	cfg.SourceKind = opts.kind
	cfg.SourcePath = opts.path
	cfg.SourceURL = opts.url
	if err := cfg.Validate(); err != nil {
		return err
	}

	src, err := source.New(&cfg)
	if err != nil {
		return err
	}
	if closer, ok := src.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	users, err := src.Fetch(fetchCtx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if opts.id != "" {
		ranked := ranking.Prepare(users, ranking.WithWeights(cfg.Weights()))
		pos, rec, ok := ranked.Position(opts.id)
		if !ok {
			return errors.New("user not found: " + opts.id)
		}
		return enc.Encode(api.NewRankResponse(pos+1, rec))
	}

	page, err := ranking.RankAndPaginate(users,
		model.ViewParameters{SearchText: opts.search, PageIndex: opts.page, PageSize: opts.size},
		ranking.WithWeights(cfg.Weights()),
	)
	if err != nil {
		return err
	}
	return enc.Encode(api.NewPageResponse(page, opts.page, opts.size))
}
