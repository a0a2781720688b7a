package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goMFA "github.com/MrEthical07/goMFA"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		methods     = flag.Int("methods", 10000, "number of MFA methods to spread load across")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "operations per phase (issue + validate)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *methods <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "methods, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  *redis.Client
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewClient(&redis.Options{Addr: addr})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewClient(&redis.Options{Addr: addr})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	capture := &codeCapture{}

	engine, err := goMFA.New().
		WithRedis(client).
		WithDelivery(capture).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	methodIDs := make([]string, *methods)
	for i := range methodIDs {
		methodIDs[i] = uuid.NewString()
	}

	issueStats := runIssuePhase(ctx, engine, methodIDs, *ops, *concurrency)
	validateStats := runValidatePhase(ctx, engine, capture, methodIDs, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("issue", issueStats)
	printStats("validate", validateStats)

	snapshot := engine.MetricsSnapshot()
	fmt.Printf("counters: success=%d invalid=%d no_code=%d busy=%d\n",
		snapshot.Counters[goMFA.MetricValidateSuccess],
		snapshot.Counters[goMFA.MetricValidateInvalid],
		snapshot.Counters[goMFA.MetricValidateNoCode],
		snapshot.Counters[goMFA.MetricValidateBusy],
	)
}

// codeCapture stands in for a delivery provider and remembers the most recent
// code sent to each destination, which the validate phase replays.
type codeCapture struct {
	codes sync.Map
}

func (c *codeCapture) Send(_ context.Context, code, destination string) error {
	c.codes.Store(destination, code)
	return nil
}

func (c *codeCapture) Load(destination string) (string, bool) {
	v, ok := c.codes.Load(destination)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func runIssuePhase(ctx context.Context, engine *goMFA.Engine, methodIDs []string, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				methodID := methodIDs[r.Intn(len(methodIDs))]
				t0 := time.Now()
				_, err := engine.Issue(ctx, methodID, methodID)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

func runValidatePhase(ctx context.Context, engine *goMFA.Engine, capture *codeCapture, methodIDs []string, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				methodID := methodIDs[r.Intn(len(methodIDs))]

				// Reissue so every op validates a live code; a concurrent
				// consume on the same method shows up as ErrNoActiveCode and
				// is expected, not a failure.
				if _, err := engine.Issue(ctx, methodID, methodID); err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				code, ok := capture.Load(methodID)
				if !ok {
					atomic.AddInt64(&failures, 1)
					continue
				}

				t0 := time.Now()
				err := engine.Validate(ctx, methodID, code)
				d := time.Since(t0)
				if err != nil &&
					!errors.Is(err, goMFA.ErrNoActiveCode) &&
					!errors.Is(err, goMFA.ErrInvalidCode) &&
					!errors.Is(err, goMFA.ErrRecordBusy) {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
