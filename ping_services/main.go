// Ping the scorer's HTTP API, its fanout websocket, and the remote match
// store to measure how quickly a score change can reach another device.
//
// Usage:
//
//	go run ./ping_services                  # default: 20 requests
//	go run ./ping_services -n 50            # 50 requests per endpoint
//	go run ./ping_services --ws             # also measure fanout ping/pong
//	go run ./ping_services --api http://scorer:8765
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/adapters/outbound/remote"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/config"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/replica"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/fanout"
)

const (
	httpTimeout = 10 * time.Second
	probeMatch  = "__ping__"
)

func main() {
	cfg := config.Load()

	n := flag.Int("n", 20, "Number of requests per endpoint")
	ws := flag.Bool("ws", false, "Also measure fanout WebSocket ping/pong latency")
	api := flag.String("api", fmt.Sprintf("http://localhost:%d", cfg.HTTPPort), "Scorer API base URL")
	flag.Parse()

	fmt.Printf("\nPinging scoring services  store=%s  fanout=%s\n", cfg.StoreBackend, cfg.FanoutAddr)

	pingAPI(strings.TrimRight(*api, "/")+"/healthz", *n)
	if *ws {
		pingFanout(cfg.FanoutAddr, *n)
	}
	pingStore(cfg, *n)
	fmt.Println()
}

func header(title string) {
	fmt.Printf("\n%s\n", strings.Repeat("=", 55))
	fmt.Printf("  %s\n", title)
	fmt.Printf("%s\n", strings.Repeat("=", 55))
}

func pingAPI(healthURL string, n int) {
	header("SCORER API  " + healthURL)

	fmt.Println("\n  Cold-start request (DNS + TCP + HTTP):")
	ms, code, err := measureHTTP(healthURL, nil)
	if err != nil {
		fmt.Printf("    FAILED: %v\n", err)
		return
	}
	fmt.Printf("    %.1f ms  (HTTP %d)\n", ms, code)

	fmt.Printf("\n  Warm HTTP latency (%d requests, keep-alive):\n", n)
	client := &http.Client{Timeout: httpTimeout}
	latencies := make([]float64, 0, n)
	pad := len(fmt.Sprintf("%d", n))
	for i := 1; i <= n; i++ {
		ms, code, err := measureHTTP(healthURL, client)
		if err != nil {
			fmt.Printf("  [%*d/%d]  FAILED: %v\n", pad, i, n, err)
			continue
		}
		latencies = append(latencies, ms)
		fmt.Printf("  [%*d/%d]  %7.1f ms  (HTTP %d)\n", pad, i, n, ms, code)
	}
	printStats(latencies, "Scorer HTTP")
}

func pingFanout(addr string, n int) {
	header("FANOUT  " + addr)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr+"?match="+fanout.AllMatches, nil)
	if err != nil {
		fmt.Printf("  [!] WebSocket dial failed: %v\n", err)
		return
	}
	defer conn.Close()

	pongCh := make(chan struct{}, 1)
	conn.SetPongHandler(func(string) error {
		select {
		case pongCh <- struct{}{}:
		default:
		}
		return nil
	})

	// Control frames are only processed while reading.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	fmt.Printf("\n  WebSocket ping/pong latency (%d pings):\n", n)
	latencies := make([]float64, 0, n)
	pad := len(fmt.Sprintf("%d", n))
	for i := 1; i <= n; i++ {
		start := time.Now()
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
			fmt.Printf("  [!] WS ping failed: %v\n", err)
			break
		}
		select {
		case <-pongCh:
			ms := float64(time.Since(start).Microseconds()) / 1000
			latencies = append(latencies, ms)
			fmt.Printf("  [%*d/%d]  %7.1f ms  (WS ping/pong)\n", pad, i, n, ms)
		case <-time.After(5 * time.Second):
			fmt.Printf("  [!] WS pong timeout\n")
			printStats(latencies, "Fanout WebSocket")
			return
		}
	}
	printStats(latencies, "Fanout WebSocket")
}

// pingStore times Load round trips for a match id that is never saved, so
// the probe reads nothing and writes nothing.
func pingStore(cfg *config.Config, n int) {
	header("MATCH STORE  " + strings.ToUpper(cfg.StoreBackend))

	start := time.Now()
	store, err := remote.Open(cfg)
	if err != nil {
		fmt.Printf("  [!] Open failed: %v\n", err)
		return
	}
	defer store.Close()
	fmt.Printf("\n  Connect: %.1f ms\n", float64(time.Since(start).Microseconds())/1000)

	fmt.Printf("\n  Load round trip (%d requests):\n", n)
	latencies := make([]float64, 0, n)
	pad := len(fmt.Sprintf("%d", n))
	for i := 1; i <= n; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), httpTimeout)
		t := time.Now()
		_, err := store.Load(ctx, probeMatch)
		cancel()
		if err != nil && !errors.Is(err, replica.ErrNotFound) {
			fmt.Printf("  [%*d/%d]  FAILED: %v\n", pad, i, n, err)
			continue
		}
		ms := float64(time.Since(t).Microseconds()) / 1000
		latencies = append(latencies, ms)
		fmt.Printf("  [%*d/%d]  %7.1f ms\n", pad, i, n, ms)
	}
	printStats(latencies, "Match store")
}

func measureHTTP(url string, client *http.Client) (ms float64, statusCode int, err error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return 0, 0, err
	}
	c := client
	if c == nil {
		c = &http.Client{Timeout: httpTimeout}
	}
	start := time.Now()
	resp, err := c.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	return float64(elapsed.Microseconds()) / 1000, resp.StatusCode, nil
}

func printStats(latencies []float64, label string) {
	if len(latencies) < 2 {
		fmt.Printf("\n  Not enough %s samples for statistics.\n", label)
		return
	}
	sorted := make([]float64, len(latencies))
	copy(sorted, latencies)
	sort.Float64s(sorted)

	mean := 0.0
	for _, v := range latencies {
		mean += v
	}
	mean /= float64(len(latencies))

	variance := 0.0
	for _, v := range latencies {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(latencies) - 1)

	p95 := min(int(float64(len(sorted))*0.95), len(sorted)-1)

	fmt.Printf("\n  --- %s Stats (%d requests) ---\n", label, len(latencies))
	fmt.Printf("  Min:    %7.1f ms\n", sorted[0])
	fmt.Printf("  Max:    %7.1f ms\n", sorted[len(sorted)-1])
	fmt.Printf("  Mean:   %7.1f ms\n", mean)
	fmt.Printf("  Median: %7.1f ms\n", sorted[len(sorted)/2])
	fmt.Printf("  Stdev:  %7.1f ms\n", math.Sqrt(variance))
	fmt.Printf("  p95:    %7.1f ms\n", sorted[p95])
}
