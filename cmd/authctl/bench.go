package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/api"
	"github.com/MrEthical07/goAuthClient/metrics/export/prometheus"
	"github.com/spf13/cobra"
)

// benchGateway answers every call locally so the bench measures the
// engine and redis only.
type benchGateway struct{}

func benchUser(email string) *api.UserResponseDTO {
	token := "bench-token-" + email
	return &api.UserResponseDTO{
		UUID:        "uid-" + email,
		Email:       email,
		RoleName:    "INDIVIDUAL",
		Status:      "ACTIVE",
		AccessToken: &token,
		Account:     &api.AccountDTO{UUID: "acc-" + email, Type: "INDIVIDUAL"},
	}
}

func (benchGateway) RequestOTP(context.Context, string, string) (*api.Envelope[api.Empty], error) {
	return &api.Envelope[api.Empty]{Success: true}, nil
}

func (benchGateway) SignupIndividual(_ context.Context, req api.SignupIndividualRequest) (*api.Envelope[api.UserResponseDTO], error) {
	return &api.Envelope[api.UserResponseDTO]{Success: true, Data: benchUser(req.Email)}, nil
}

func (benchGateway) SignupOrganization(context.Context, api.SignupOrganizationRequest) (*api.Envelope[api.UserResponseDTO], error) {
	return &api.Envelope[api.UserResponseDTO]{Success: false, Message: "not supported in bench"}, nil
}

func (benchGateway) Login(context.Context, string, string) (*api.Envelope[api.Empty], error) {
	return &api.Envelope[api.Empty]{Success: true}, nil
}

func (benchGateway) VerifyLoginOTP(_ context.Context, email, _ string) (*api.Envelope[api.UserResponseDTO], error) {
	return &api.Envelope[api.UserResponseDTO]{Success: true, Data: benchUser(email)}, nil
}

func newBenchCmd(a *app) *cobra.Command {
	var (
		users, concurrency, ops int
		showMetrics             bool
	)

	cmd := &cobra.Command{
		Use:         "bench",
		Short:       "Measure login persistence and user lookups against redis",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"engine": "none"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if users <= 0 || concurrency <= 0 || ops <= 0 {
				return fmt.Errorf("users, concurrency, and ops must be > 0")
			}
			out := cmd.OutOrStdout()

			cfg := cliConfig{
				RedisAddr: a.v.GetString("redis_addr"),
				RedisDB:   a.v.GetInt("redis_db"),
				Prefix:    a.v.GetString("prefix") + ":bench",
			}
			cfg.Memory = cfg.RedisAddr == ""
			client, cleanup, err := openRedis(cfg)
			if err != nil {
				return err
			}
			defer cleanup()
			if cfg.Memory {
				fmt.Fprintln(out, "using in-process redis")
			} else {
				fmt.Fprintf(out, "using redis at %s\n", cfg.RedisAddr)
			}

			engineCfg := goAuthClient.DefaultConfig()
			engineCfg.Session.RedisPrefix = cfg.Prefix + ":s"
			engineCfg.Cache.RedisPrefix = cfg.Prefix + ":c"
			engineCfg.OTP.ThrottlePrefix = cfg.Prefix + ":otp"
			engineCfg.OTP.ChallengePrefix = cfg.Prefix + ":ch"
			engineCfg.OTP.ThrottleEnabled = false
			engineCfg.Metrics.Enabled = true
			engineCfg.Metrics.EnableLatencyHistograms = true

			engine, err := goAuthClient.New().
				WithConfig(engineCfg).
				WithRedis(client).
				WithGateway(benchGateway{}).
				Build()
			if err != nil {
				return err
			}
			defer engine.Close()

			ctx := context.Background()
			emails := make([]string, users)
			fmt.Fprintf(out, "seeding %d users...\n", users)
			startSeed := time.Now()
			for i := range emails {
				emails[i] = fmt.Sprintf("user-%d@bench.test", i)
				if _, err := engine.LoginWithMFA(ctx, emails[i], "000000"); err != nil {
					return fmt.Errorf("seed failed: %w", err)
				}
			}
			fmt.Fprintf(out, "seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

			verifyStats := runPhase(ops, concurrency, 7919, func(r *rand.Rand) error {
				_, err := engine.LoginWithMFA(ctx, emails[r.Intn(len(emails))], "000000")
				return err
			})
			lookupStats := runPhase(ops, concurrency, 6151, func(r *rand.Rand) error {
				_, err := engine.GetUserByID(ctx, "uid-"+emails[r.Intn(len(emails))])
				return err
			})

			fmt.Fprintln(out, "---- results ----")
			printStats(out, "verify", verifyStats)
			printStats(out, "lookup", lookupStats)
			if showMetrics {
				fmt.Fprintln(out, "---- metrics ----")
				fmt.Fprint(out, prometheus.NewPrometheusExporter(engine).Render())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&users, "users", 1000, "number of users to seed")
	cmd.Flags().IntVar(&concurrency, "concurrency", 64, "number of concurrent workers")
	cmd.Flags().IntVar(&ops, "ops", 20000, "operations per phase")
	cmd.Flags().BoolVar(&showMetrics, "show-metrics", false, "print engine metrics in Prometheus format after the run")
	return cmd
}

// runPhase runs op ops times across concurrency workers.
func runPhase(ops, concurrency int, seed int64, op func(*rand.Rand) error) phaseStats {
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
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r)
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
	return computeStats(time.Since(start), latencies, failures)
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
	return samples[(len(samples)-1)*p/100]
}

func printStats(w io.Writer, name string, s phaseStats) {
	fmt.Fprintf(w, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
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
