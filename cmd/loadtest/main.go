// loadtest drives a running lastprice server with concurrent batch runs and
// reports per-operation latency percentiles.
// Usage: go run ./cmd/loadtest --addr http://localhost:50051 --workers 8 --watch
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/lastprice/internal/api"
	"github.com/rickgao/lastprice/internal/config"
	"github.com/rickgao/lastprice/internal/model"
)

func main() {
	addr := flag.String("addr", "http://localhost:50051", "server base URL")
	workers := flag.Int("workers", 4, "concurrent batch runs")
	warmup := flag.Int("warmup", 100, "warmup iterations per worker")
	iterations := flag.Int("iterations", 1000, "measured iterations per worker")
	records := flag.Int("records", 1000, "records per uploaded chunk")
	instruments := flag.String("instruments", strings.Join(config.DefaultSupportedInstruments, ","), "comma separated instruments")
	watch := flag.Bool("watch", false, "count completions received on the stream endpoint")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	client := api.NewClient(*addr,
		api.WithLogger(logger),
		api.WithTimeout(10*time.Second),
		api.WithRetries(2, 100*time.Millisecond),
	)

	var streamed atomic.Int64
	if *watch {
		conn, err := dialStream(*addr)
		if err != nil {
			logger.Error("failed to connect to stream", "error", err)
			os.Exit(1)
		}
		defer conn.Close()
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
				streamed.Add(1)
			}
		}()
	}

	gen := &generator{instruments: strings.Split(*instruments, ","), size: *records}

	logger.Info("warming up", "workers", *workers, "iterations", *warmup)
	if _, err := runWorkers(ctx, client, gen, *workers, *warmup); err != nil {
		logger.Error("warmup failed", "error", err)
		os.Exit(1)
	}

	logger.Info("measuring", "workers", *workers, "iterations", *iterations, "records", *records)
	start := time.Now()
	lat, err := runWorkers(ctx, client, gen, *workers, *iterations)
	if err != nil {
		logger.Error("load test failed", "error", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	runs := *workers * *iterations
	fmt.Printf("\n%d batch runs in %v (%.1f runs/s, %.0f records/s)\n\n",
		runs, elapsed.Round(time.Millisecond),
		float64(runs)/elapsed.Seconds(),
		float64(runs*(*records))/elapsed.Seconds(),
	)
	fmt.Printf("%-10s %10s %10s %10s %10s\n", "op", "p50", "p90", "p99", "max")
	for _, op := range []string{"start", "upload", "complete"} {
		s := summarize(lat[op])
		fmt.Printf("%-10s %10v %10v %10v %10v\n", op, s.P50, s.P90, s.P99, s.Max)
	}

	if *watch {
		// Give the stream a moment to catch up.
		time.Sleep(500 * time.Millisecond)
		fmt.Printf("\nstream completions received: %d\n", streamed.Load())
	}
}

// runWorkers executes n start/upload/complete cycles on each of workers goroutines.
func runWorkers(ctx context.Context, client *api.Client, gen *generator, workers, n int) (map[string][]time.Duration, error) {
	results := make([]map[string][]time.Duration, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			lat := map[string][]time.Duration{
				"start":    make([]time.Duration, 0, n),
				"upload":   make([]time.Duration, 0, n),
				"complete": make([]time.Duration, 0, n),
			}
			for i := 0; i < n; i++ {
				if err := cycle(gctx, client, gen, lat); err != nil {
					return err
				}
			}
			results[w] = lat
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string][]time.Duration)
	for _, lat := range results {
		for op, d := range lat {
			merged[op] = append(merged[op], d...)
		}
	}
	return merged, nil
}

func cycle(ctx context.Context, client *api.Client, gen *generator, lat map[string][]time.Duration) error {
	t := time.Now()
	start, err := client.StartBatchRun(ctx)
	if err != nil {
		return err
	}
	lat["start"] = append(lat["start"], time.Since(t))
	if start.Status != api.StatusSuccess {
		return fmt.Errorf("start batch run: %s", start.Status)
	}

	t = time.Now()
	up, err := client.UploadChunk(ctx, start.BatchID, gen.chunk())
	if err != nil {
		return err
	}
	lat["upload"] = append(lat["upload"], time.Since(t))
	if up.Status != api.StatusSuccess {
		return fmt.Errorf("upload chunk %d: %s", start.BatchID, up.Status)
	}

	t = time.Now()
	done, err := client.CompleteBatchRun(ctx, start.BatchID)
	if err != nil {
		return err
	}
	lat["complete"] = append(lat["complete"], time.Since(t))
	if done.Status != api.StatusSuccess {
		return fmt.Errorf("complete batch run %d: %s", start.BatchID, done.Status)
	}
	return nil
}

func dialStream(addr string) (*websocket.Conn, error) {
	url := "ws" + strings.TrimPrefix(addr, "http") + config.DefaultStreamPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return conn, nil
}

// generator produces random price records.
type generator struct {
	instruments []string
	size        int
}

func (g *generator) chunk() []model.PriceRecord {
	now := time.Now().UnixMilli()
	out := make([]model.PriceRecord, g.size)
	for i := range out {
		payload := make([]byte, 8)
		for j := range payload {
			payload[j] = byte(rand.IntN(256))
		}
		out[i] = model.PriceRecord{
			Instrument: g.instruments[rand.IntN(len(g.instruments))],
			AsOf:       now - rand.Int64N(60_000),
			Payload:    payload,
		}
	}
	return out
}
