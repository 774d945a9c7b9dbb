package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jinjor/juno-audio/src/audio"
	"golang.org/x/sync/errgroup"
)

const numTables = 128
const numSamples = 2048

var rates = flag.String("rates", "44100,48000,96000", "comma separated sample rates")

func main() {
	flag.Parse()
	dir := flag.Arg(0)
	if dir == "" {
		panic("dir is not passed")
	}
	log.SetFlags(log.Lshortfile)

	sampleRates, err := parseRates(*rates)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	ctx := context.Background()
	g, _ := errgroup.WithContext(ctx)
	for _, sampleRate := range sampleRates {
		g.Go(func() error {
			wts := audio.NewWavetableSet(numTables, numSamples)
			if err := wts.MakeBandLimitedSawTables(sampleRate, numSamples); err != nil {
				return err
			}
			log.Printf("generated saw wave for %d Hz\n", sampleRate)
			path := filepath.Join(dir, fmt.Sprintf("saw-%d.wt", sampleRate))
			if err := wts.Save(path); err != nil {
				return err
			}
			log.Printf("saved %s\n", path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("Successfully generated wavetables.")
}

func parseRates(s string) ([]int, error) {
	var result []int
	for _, item := range strings.Split(s, ",") {
		rate, err := strconv.Atoi(strings.TrimSpace(item))
		if err != nil {
			return nil, fmt.Errorf("invalid sample rate %q: %w", item, err)
		}
		result = append(result, rate)
	}
	return result, nil
}
