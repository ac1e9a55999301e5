package leadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/delhihouse/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
	progressInterval    = time.Second
)

// Run executes a complete seeding run.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	cfg.withDefaults()
	log := logger.GetOr(logger.Nop()).Named("leadgen")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting lead seeding",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("count", cfg.Count),
		logger.Int("duplicates", cfg.Duplicates),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Bool("verify", cfg.Email != ""))

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	defer client.Close()

	// Step 1: Check the site is up
	if err := client.Ready(ctx); err != nil {
		return stats, fmt.Errorf("site health check failed: %w", err)
	}

	// Step 2: Record the baseline before adding leads
	verify := cfg.Email != ""
	if verify {
		if err := client.Login(ctx, cfg.Email, cfg.Password); err != nil {
			return stats, err
		}
		n, err := client.StoredLeads(ctx)
		if err != nil {
			return stats, fmt.Errorf("baseline lead count: %w", err)
		}
		stats.Baseline = n
	}

	// Step 3: Generate and submit
	subs := Generate(cfg.Count, cfg.Duplicates)
	stats.Generated = len(subs)
	submit(ctx, log, client, cfg, subs, stats)

	// Step 4: Save submissions to file
	if cfg.OutputFile != "" {
		if err := saveSubmissions(cfg.OutputFile, subs); err != nil {
			log.Warn(ctx, "failed to save submissions", logger.Error(err))
		}
	}

	// Step 5: Wait until the workers stored everything that was accepted
	if verify {
		if err := waitForLeads(ctx, client, cfg, stats); err != nil {
			finish(ctx, log, stats)
			return stats, err
		}
	}

	finish(ctx, log, stats)
	return stats, nil
}

// submit posts subs concurrently. Resubmissions are sent after every original
// so their tokens are already known to the site.
func submit(ctx context.Context, log logger.Logger, client *Client, cfg Config, subs []Submission, stats *Stats) {
	var counts [4]int64
	var sent int64
	var lastReport atomic.Int64
	index := map[Outcome]int{Accepted: 0, Duplicate: 1, Throttled: 2, Failed: 3}

	send := func(batch []Submission) {
		ch := make(chan Submission, cfg.Workers*2)
		var wg sync.WaitGroup
		for i := 0; i < cfg.Workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for s := range ch {
					o := client.Submit(ctx, s)
					atomic.AddInt64(&counts[index[o]], 1)
					total := atomic.AddInt64(&sent, 1)

					now := time.Now().UnixNano()
					last := lastReport.Load()
					if cfg.Verbose && now-last >= int64(progressInterval) && lastReport.CompareAndSwap(last, now) {
						log.Info(ctx, "progress",
							logger.Int64("submitted", total),
							logger.Int("of", len(subs)),
							logger.Int64("accepted", atomic.LoadInt64(&counts[0])),
							logger.Int64("failed", atomic.LoadInt64(&counts[3])))
					}
				}
			}()
		}
	feed:
		for _, s := range batch {
			select {
			case <-ctx.Done():
				break feed
			case ch <- s:
			}
		}
		close(ch)
		wg.Wait()
	}

	originals := min(cfg.Count, len(subs))
	send(subs[:originals])
	send(subs[originals:])

	stats.Submitted = int(atomic.LoadInt64(&sent))
	stats.Accepted = int(counts[0])
	stats.Duplicate = int(counts[1])
	stats.Throttled = int(counts[2])
	stats.Failed = int(counts[3])
	log.Info(ctx, "submission completed",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("throttled", stats.Throttled),
		logger.Int("failed", stats.Failed))
}

func waitForLeads(ctx context.Context, client *Client, cfg Config, stats *Stats) error {
	want := stats.Baseline + stats.Accepted
	ctx, cancel := context.WithTimeout(ctx, cfg.SettleTimeout)
	defer cancel()

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()
	for {
		n, err := client.StoredLeads(ctx)
		if err == nil {
			stats.Stored = n - stats.Baseline
			if n >= want {
				stats.Verified = true
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %d of %d accepted leads stored", ErrNotSettled, stats.Stored, stats.Accepted)
		case <-ticker.C:
		}
	}
}

func saveSubmissions(filename string, subs []Submission) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, append(data, '\n'), filePermission)
}

func finish(ctx context.Context, log logger.Logger, stats *Stats) {
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("throttled", stats.Throttled),
		logger.Int("failed", stats.Failed),
		logger.Int("stored", stats.Stored),
		logger.Bool("verified", stats.Verified),
		logger.Duration("duration", stats.Duration),
		logger.Float64("submissionsPerSecond", perSecond))
}
