package main

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	probeBaseURL     string
	probeSlug        string
	probeRequests    int
	probeConcurrency int
	probeKeyHeader   string
	probeKeyValue    string
)

// probeCmd dispara requisições contra a rota pública para validar o
// throttle e a cota à mão (ex.: 20 requisições => 10x302 + 10x429).
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Fire requests at /api/v/:slug and tally response statuses",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if strings.TrimSpace(probeSlug) == "" {
			return fmt.Errorf("--slug is required")
		}
		target := strings.TrimRight(probeBaseURL, "/") + "/api/v/" + probeSlug

		res, err := runProbe(cmd.Context(), probeOptions{
			URL:         target,
			Requests:    probeRequests,
			Concurrency: probeConcurrency,
			KeyHeader:   probeKeyHeader,
			KeyValue:    probeKeyValue,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "target: %s\n", target)
		fmt.Fprintf(out, "requests: %d elapsed=%s\n", probeRequests, res.Elapsed.Round(time.Millisecond))
		for _, code := range res.codes() {
			fmt.Fprintf(out, "  %d %s: %d\n", code, http.StatusText(code), res.Statuses[code])
		}
		if res.Failed > 0 {
			fmt.Fprintf(out, "  transport errors: %d\n", res.Failed)
		}
		return nil
	},
}

func init() {
	probeCmd.Flags().StringVar(&probeBaseURL, "url", "http://localhost:8080", "gateway base URL")
	probeCmd.Flags().StringVar(&probeSlug, "slug", "", "public slug to request")
	probeCmd.Flags().IntVarP(&probeRequests, "requests", "n", 20, "total requests")
	probeCmd.Flags().IntVarP(&probeConcurrency, "concurrency", "c", 5, "parallel requests")
	probeCmd.Flags().StringVar(&probeKeyHeader, "key-header", "", "header used as rate limit key (RATE_KEY_HEADER)")
	probeCmd.Flags().StringVar(&probeKeyValue, "key", "", "value for --key-header")

}

type probeOptions struct {
	URL         string
	Requests    int
	Concurrency int
	KeyHeader   string
	KeyValue    string
	Client      *http.Client
}

type probeResult struct {
	Statuses map[int]int
	Failed   int
	Elapsed  time.Duration
}

func (r probeResult) codes() []int {
	codes := make([]int, 0, len(r.Statuses))
	for c := range r.Statuses {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	return codes
}

func runProbe(ctx context.Context, opts probeOptions) (probeResult, error) {
	if opts.Requests <= 0 {
		return probeResult{}, fmt.Errorf("requests must be > 0")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	client := opts.Client
	if client == nil {
		// o gateway responde 302; o probe quer ver o status, não seguir o link
		client = &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	var (
		mu  sync.Mutex
		res = probeResult{Statuses: make(map[int]int)}
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	start := time.Now()
	for i := 0; i < opts.Requests; i++ {
		g.Go(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
			if err != nil {
				return err
			}
			if opts.KeyHeader != "" {
				req.Header.Set(opts.KeyHeader, opts.KeyValue)
			}

			resp, err := client.Do(req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed++
				return nil
			}
			_ = resp.Body.Close()
			res.Statuses[resp.StatusCode]++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return probeResult{}, err
	}
	res.Elapsed = time.Since(start)
	return res, nil
}
