package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jinjor/juno-audio/src/audio"
	"golang.org/x/sync/errgroup"
)

var (
	sampleRate    = flag.Int("rate", 48000, "sample rate in Hz")
	blockSize     = flag.Int("block", 256, "samples per render block")
	maxPoly       = flag.Int("poly", 32, "max number of voices")
	channelNum    = flag.Int("channels", 2, "1 or 2")
	wavetablePath = flag.String("wavetable", "", "wavetable file made by gentables")
	phraseText    = flag.String("phrase", "", `steps like "C4,E4,G4:2 A3:1", default is a short progression`)
	bpm           = flag.Float64("bpm", 120, "tempo of the phrase")
	outDir        = flag.String("out", ".", "output directory")
)

// usage: render [flags] [patch.json ...]
// Every patch is a params JSON and is rendered to <name>.wav. Without patches the default
// params are rendered to default.wav.
func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)

	phrase := audio.DefaultPhrase()
	if *phraseText != "" {
		p, err := audio.ParsePhrase(*phraseText, *bpm)
		if err != nil {
			log.Fatalf("error: %v\n", err)
		}
		phrase = p
	}
	config := audio.DefaultConfig()
	config.SampleRate = *sampleRate
	config.BlockSize = *blockSize
	config.MaxPoly = *maxPoly
	config.ChannelNum = *channelNum
	config.WavetablePath = *wavetablePath
	if err := config.Validate(); err != nil {
		log.Fatalf("error: %v\n", err)
	}

	patches := flag.Args()
	if len(patches) == 0 {
		patches = []string{""}
	}
	g, _ := errgroup.WithContext(context.Background())
	for _, patch := range patches {
		g.Go(func() error {
			return renderPatch(config, phrase, patch)
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("Successfully rendered.")
}

func renderPatch(config audio.Config, phrase audio.Phrase, patch string) (err error) {
	engine, err := audio.NewEngine(config)
	if err != nil {
		return err
	}
	defer engine.Close()
	name := "default"
	if patch != "" {
		data, err := os.ReadFile(patch)
		if err != nil {
			return err
		}
		if err := engine.ApplyParamsJSON(data); err != nil {
			return fmt.Errorf("%s: %w", patch, err)
		}
		name = strings.TrimSuffix(filepath.Base(patch), filepath.Ext(patch))
	}
	path := filepath.Join(*outDir, name+".wav")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(file)
	if err := audio.RenderPhrase(engine, phrase, w); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	log.Printf("rendered %s\n", path)
	return nil
}
