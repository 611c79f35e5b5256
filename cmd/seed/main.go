package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/userboard/internal/testusers"
	"github.com/okian/userboard/pkg/logger"
)

// Default configuration constants.
const (
	defaultCount     = 1000
	defaultPageSize  = 20
	defaultMalformed = 0.02
	defaultTimeout   = 2 * time.Minute
)

func main() {
	var (
		count     = flag.Int("n", defaultCount, "Number of users to generate")
		out       = flag.String("out", "users.json", "Output path; .json, .yaml, .yml, .db or .sqlite")
		seed      = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Seed for ratings, rents and timestamps")
		malformed = flag.Float64("malformed", defaultMalformed, "Share of users with an unparseable recentlyActive")
		verifyURL = flag.String("verify", "", "Base URL of a running server to check against, e.g. http://localhost:9080")
		search    = flag.String("search", "", "Search text used when verifying")
		pageSize  = flag.Int("page-size", defaultPageSize, "Page size used when verifying")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	users := testusers.Generate(testusers.Config{Count: *count, MalformedRatio: *malformed, Seed: *seed})
	if err := testusers.Write(ctx, *out, users); err != nil {
		log.Error(ctx, "failed to write users", logger.String("out", *out), logger.Error(err))
		os.Exit(1)
	}
	log.Info(ctx, "users written", logger.String("out", *out), logger.Int("count", len(users)))

	if *verifyURL == "" {
		return
	}
	if err := testusers.Verify(ctx, *verifyURL, users, *search, *pageSize); err != nil {
		log.Error(ctx, "verification failed", logger.Error(err))
		os.Exit(1)
	}
}
