// Command lobreplay is a thin demo driver: decode one ticker out of a
// raw feed file and replay it, printing the resulting top of book. Full
// ticker/date selection, statistics, and progress reporting are an
// external collaborator per spec §1 — this just exercises the library.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"lobreplay/internal/engine"
	"lobreplay/internal/feed"
)

func main() {
	feedPath := flag.String("feed", "", "path to a raw binary feed file")
	ticker := flag.String("ticker", "", "ticker symbol to replay (8-byte ASCII field, right-padded)")
	strict := flag.Bool("strict", false, "fail on unrecognised message types instead of skipping them")
	lenient := flag.Bool("lenient", false, "downgrade unknown-order errors on cancel/delete to warnings")
	verbose := flag.Bool("verbose", false, "debug-level logging")
	flag.Parse()

	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *feedPath == "" || *ticker == "" {
		fmt.Fprintln(os.Stderr, "usage: lobreplay -feed <path> -ticker <symbol>")
		os.Exit(2)
	}

	if err := run(*feedPath, *ticker, *strict, *lenient); err != nil {
		log.Error().Err(err).Msg("replay failed")
		os.Exit(1)
	}
}

func run(feedPath, ticker string, strict, lenient bool) error {
	data, err := os.ReadFile(feedPath)
	if err != nil {
		return fmt.Errorf("read feed file: %w", err)
	}

	events, err := feed.Decode(data, ticker, strict)
	if err != nil {
		return fmt.Errorf("decode feed: %w", err)
	}
	log.Info().Str("ticker", ticker).Int("events", len(events)).Msg("decoded feed")

	book := engine.NewOrderBook()
	book.Lenient = lenient
	replay := engine.NewReplay(book)

	producer := feed.NewProducer(events)
	t, ctx := tomb.WithContext(context.Background())
	_ = ctx
	t.Go(func() error { return producer.Run(t) })

	if err := replay.Run(producer.Events()); err != nil {
		t.Kill(err)
		_ = t.Wait()
		return err
	}
	if err := t.Wait(); err != nil {
		return err
	}

	bid, ask := book.BestBid(), book.BestAsk()
	log.Info().
		Int("applied", replay.Applied()).
		Int64("bestBid", int64(bid)).
		Int64("bestAsk", int64(ask)).
		Msg("replay complete")
	fmt.Printf("best bid: %.4f  best ask: %.4f\n", bid.AsCurrency(), ask.AsCurrency())
	return nil
}
