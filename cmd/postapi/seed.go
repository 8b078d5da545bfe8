package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/eringen/postapi"
	"github.com/eringen/postapi/fixture"
	"github.com/eringen/postapi/store"
)

// runSeed inserts generated posts into the store named by DATABASE_URL.
// The variable must be set explicitly so a default database is never
// seeded by accident.
func runSeed(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	n := fs.Int("n", fixture.SeedCount, "number of posts to insert")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *n <= 0 {
		return fmt.Errorf("-n must be positive, got %d", *n)
	}

	dsn := postapi.MustEnv("DATABASE_URL")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := store.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer s.Close()

	posts, err := s.InsertMany(ctx, fixture.GeneratePosts(*n))
	if err != nil {
		return err
	}
	total, err := s.Count(ctx)
	if err != nil {
		return err
	}

	for _, p := range posts {
		fmt.Printf("  %s  %s\n", color.CyanString(p.ID), p.Title)
	}
	color.Green("Seeded %d posts (%d total)", len(posts), total)
	return nil
}
