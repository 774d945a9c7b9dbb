package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hajimehoshi/oto"
	"github.com/jinjor/juno-audio/src/audio"
	"golang.org/x/sync/errgroup"
)

const defaultSockFileName = "/tmp/juno-audio.sock"
const filterShapePoints = 128

var (
	sampleRate    = flag.Int("rate", 48000, "sample rate in Hz")
	blockSize     = flag.Int("block", 256, "samples per render block")
	maxPoly       = flag.Int("poly", 32, "max number of voices")
	wavetablePath = flag.String("wavetable", "", "wavetable file made by gentables")
	sockFileName  = flag.String("sock", defaultSockFileName, "unix socket path for commands")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	log.Printf("NumCPU: %v\n", runtime.NumCPU())

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	config := audio.DefaultConfig()
	config.SampleRate = *sampleRate
	config.BlockSize = *blockSize
	config.MaxPoly = *maxPoly
	config.WavetablePath = *wavetablePath

	engine, err := audio.NewEngine(config)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	defer engine.Close()

	otoContext, err := oto.NewContext(config.SampleRate, config.ChannelNum, 2, engine.PlayerBufferSize())
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	defer otoContext.Close()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		sig := <-signalCh
		log.Printf("Caught signal %s: shutting down...\n", sig)
		cancel()
	}()
	err = withIPCConnection(ctx, *sockFileName, func(conn net.Conn) error {
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return play(ctx, otoContext, engine)
		})
		g.Go(func() error {
			return receiveCommands(ctx, conn, engine)
		})
		g.Go(func() error {
			return sendReports(ctx, conn, engine)
		})
		return g.Wait()
	})
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

func play(ctx context.Context, otoContext *oto.Context, engine *audio.Engine) error {
	p := otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	return engine.Start(ctx, p)
}

func withIPCConnection(ctx context.Context, sockFileName string, f func(net.Conn) error) error {
	os.Remove(sockFileName)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", sockFileName)
	if err != nil {
		return err
	}
	defer func() {
		log.Println("Closing IPC...")
		err := listener.Close()
		if err != nil {
			log.Printf("error while closing listener: %v", err)
		}
		os.Remove(sockFileName)
	}()
	log.Printf("start listening on %s...\n", sockFileName)
	conn, err := listener.Accept()
	if err != nil {
		return err
	}
	defer func() {
		err := conn.Close()
		if err != nil {
			log.Printf("error while closing connection: %v", err)
		}
	}()
	return f(conn)
}

func receiveCommands(ctx context.Context, conn net.Conn, engine audioUpdater) error {
	// unblock ReadLine on cancel
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	reader := bufio.NewReader(conn)
	var line []byte
loop:
	for {
		next, isPrefix, err := reader.ReadLine()
		if ctx.Err() != nil {
			log.Println("Connection interrupted")
			break loop
		}
		if err == io.EOF {
			break loop
		}
		if err != nil {
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		log.Printf("received: %s\n", string(line))
		command, err := parseCommand(string(line))
		line = []byte{}
		if err != nil {
			log.Printf("failed to parse command: %v\n", err)
			continue
		}
		if err := engine.Update(command); err != nil {
			log.Printf("failed to apply command: %v\n", err)
		}
	}
	log.Println("receiveCommands() ended.")
	return nil
}

type audioUpdater interface {
	Update(command []string) error
}

func parseCommand(line string) ([]string, error) {
	lineStr := strings.Split(strings.TrimSpace(line), " ")
	for i, item := range lineStr {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		lineStr[i] = escaped
	}
	return lineStr, nil
}

func sendReports(ctx context.Context, conn net.Conn, engine *audio.Engine) error {
	t := time.NewTicker(time.Second / 60)
	defer t.Stop()
	lastVoices := -1
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("sendReports() interrupted")
			break loop
		case <-t.C:
			lines, err := collectReports(engine, &lastVoices)
			if err != nil {
				return err
			}
			for _, s := range lines {
				select {
				case <-ctx.Done():
					log.Println("sendReports() interrupted")
					break loop
				default:
				}
				if _, err := conn.Write([]byte(s + "\n")); err != nil {
					return err
				}
			}
		}
	}
	log.Println("sendReports() ended.")
	return nil
}

func collectReports(engine *audio.Engine, lastVoices *int) ([]string, error) {
	var lines []string
	if engine.Changes.Has("power") {
		engine.Changes.Delete("power")
		state := "off"
		if engine.IsPowered() {
			state = "on"
		}
		lines = append(lines, "power "+state)
	}
	if engine.Changes.Has("params") {
		engine.Changes.Delete("params")
		lines = append(lines, "params "+string(engine.ParamsJSON()))
	}
	if engine.Changes.Has("filter-shape") {
		engine.Changes.Delete("filter-shape")
		lines = append(lines, "filter_shape"+formatValues(engine.FilterShape(filterShapePoints)))
	}
	if n := engine.ActiveVoices(); n != *lastVoices {
		*lastVoices = n
		lines = append(lines, fmt.Sprintf("voices %d", n))
	}
	result, err := engine.Spectrum()
	if err != nil {
		return nil, err
	}
	if result != nil {
		lines = append(lines, "fft"+formatValues(result))
	}
	return lines, nil
}

func formatValues(values []float64) string {
	var sb strings.Builder
	for _, value := range values {
		sb.WriteString(" ")
		sb.WriteString(strconv.FormatFloat(value, 'f', 6, 64))
	}
	return sb.String()
}
