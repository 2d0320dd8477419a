package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"travel-search/internal/config"
	"travel-search/internal/database/migration"
	dbpostgres "travel-search/internal/database/postgres"
	"travel-search/internal/database/seeder"
	"travel-search/internal/domain/search"
	"travel-search/internal/infrastructure/cache"
	"travel-search/internal/pkg/jwt"
	"travel-search/internal/pkg/logger"
	"travel-search/internal/usecase"
	"travel-search/migrations"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const nearExpiry = 5 * time.Minute

type options struct {
	cmd     string
	pattern string
	typ     string
	from    string
	to      string
	city    string
	date    string
	subject string
}

func main() {
	var o options
	flag.StringVar(&o.cmd, "cmd", "stats", "stats|view|info|clear|flush|seed|token")
	flag.StringVar(&o.pattern, "pattern", "", "key pattern for stats and clear")
	flag.StringVar(&o.typ, "type", "all", "search type for info")
	flag.StringVar(&o.from, "from", "", "origin for info")
	flag.StringVar(&o.to, "to", "", "destination for info")
	flag.StringVar(&o.city, "city", "", "city for info")
	flag.StringVar(&o.date, "date", "", "date for info")
	flag.StringVar(&o.subject, "subject", "ops", "token subject")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lg := logger.New(cfg.App.AppName, cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, os.Stdout, cfg, lg, o); err != nil {
		lg.Fatal().Err(err).Str("cmd", o.cmd).Msg("cachectl failed")
	}
}

func run(ctx context.Context, w io.Writer, cfg config.Config, lg zerolog.Logger, o options) error {
	switch strings.ToLower(strings.TrimSpace(o.cmd)) {
	case "seed":
		return seed(ctx, cfg, lg)
	case "token":
		return token(w, cfg, o.subject)
	}

	store := cache.NewRedis(cfg.Redis, lg)
	defer store.Close()
	if !store.Available() {
		return cache.ErrUnavailable
	}
	admin := usecase.NewCacheAdminUsecase(store, lg)

	switch strings.ToLower(strings.TrimSpace(o.cmd)) {
	case "stats":
		return stats(ctx, w, admin, o.pattern)
	case "view":
		return view(ctx, w, admin, store)
	case "info":
		return info(ctx, w, store, o)
	case "clear":
		if err := admin.Clear(ctx, o.pattern); err != nil {
			return err
		}
		fmt.Fprintln(w, "search cache cleared")
		return nil
	case "flush":
		if err := admin.Flush(ctx); err != nil {
			return err
		}
		fmt.Fprintln(w, "cache flushed")
		return nil
	default:
		return fmt.Errorf("unknown command %q", o.cmd)
	}
}

func stats(ctx context.Context, w io.Writer, admin usecase.CacheAdminUsecase, pattern string) error {
	if pattern == "" {
		pattern = usecase.SearchPattern
	}
	st, err := admin.Stats(ctx, pattern)
	if err != nil {
		return err
	}

	var size int64
	expiring := 0
	for _, e := range st.Entries {
		size += e.Size
		if e.TTL >= 0 && e.TTL < nearExpiry {
			expiring++
		}
	}
	fmt.Fprintf(w, "pattern:            %s\n", pattern)
	fmt.Fprintf(w, "cached items:       %d\n", st.TotalKeys)
	fmt.Fprintf(w, "total size:         %.2f KB\n", float64(size)/1024)
	fmt.Fprintf(w, "expiring < 5 min:   %d\n", expiring)
	prefixes := make([]string, 0, len(st.ByPrefix))
	for prefix := range st.ByPrefix {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	for _, prefix := range prefixes {
		fmt.Fprintf(w, "  %-16s %d\n", prefix, st.ByPrefix[prefix])
	}
	return nil
}

// view prints every combined search entry with its per-type counts.
// Entries written by the tracker hold a bare item list and show a total.
func view(ctx context.Context, w io.Writer, admin usecase.CacheAdminUsecase, store usecase.SearchCache) error {
	st, err := admin.Stats(ctx, usecase.SearchPattern)
	if err != nil {
		return err
	}
	for _, e := range st.Entries {
		fmt.Fprintf(w, "%s  ttl=%s  size=%dB\n", e.Key, e.TTL.Round(time.Second), e.Size)

		var resp usecase.SearchResponse
		if hit, err := store.GetJSON(ctx, e.Key, &resp); err == nil && hit && resp.Filters.Type != "" {
			fmt.Fprintf(w, "  hotels=%d flights=%d buses=%d\n", resp.Count.Hotels, resp.Count.Flights, resp.Count.Buses)
			continue
		}
		var items []search.Item
		if hit, err := store.GetJSON(ctx, e.Key, &items); err == nil && hit {
			fmt.Fprintf(w, "  results=%d\n", len(items))
		}
	}
	fmt.Fprintf(w, "total cached searches: %d\n", st.TotalKeys)
	return nil
}

func info(ctx context.Context, w io.Writer, store usecase.SearchCache, o options) error {
	t := search.TypeAll
	if raw := strings.TrimSpace(o.typ); raw != "" && raw != string(search.TypeAll) {
		parsed, err := search.ParseType(raw)
		if err != nil {
			return err
		}
		t = parsed
	}
	key := usecase.LegacySearchKey(t, o.from, o.to, o.city, o.date)

	var resp usecase.SearchResponse
	hit, err := store.GetJSON(ctx, key, &resp)
	if err != nil {
		return err
	}
	if !hit {
		fmt.Fprintf(w, "MISS %s\n", key)
		return nil
	}
	fmt.Fprintf(w, "HIT %s\n", key)
	fmt.Fprintf(w, "  hotels=%d flights=%d buses=%d\n", resp.Count.Hotels, resp.Count.Flights, resp.Count.Buses)
	return nil
}

func seed(ctx context.Context, cfg config.Config, lg zerolog.Logger) error {
	if !cfg.Database.Enabled() {
		return errors.New("DB_HOST is not configured")
	}
	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := (migration.Runner{FS: migrations.FS, Logger: lg}).Run(ctx, db.SQLDB()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return seeder.Runner{Seeders: seeder.Defaults(), Logger: lg}.Run(ctx, db)
}

func token(w io.Writer, cfg config.Config, subject string) error {
	if cfg.Admin.JWTSecret == "" {
		return errors.New("ADMIN_JWT_SECRET is not configured")
	}
	tok, err := jwt.NewHMACService(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL).GenerateAdminToken(subject)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, tok)
	return nil
}
