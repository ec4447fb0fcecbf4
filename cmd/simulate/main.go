package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-appointment-ledger/internal/config"
	"github.com/hackgods/clinic-appointment-ledger/internal/db"
	"github.com/hackgods/clinic-appointment-ledger/internal/logging"
)

type simConfig struct {
	APIBaseURL      string
	Duration        time.Duration
	Workers         int
	CreateRatio     float64
	TransitionRatio float64
	ReadRatio       float64
	CancelShare     float64
	PatientLimit    int
	PostgresDSN     string
	RequestTimeout  time.Duration
}

type patientRef struct {
	ID     uuid.UUID
	UserID string
}

// booked remembers appointments this run created so transitions and reads
// have something to aim at.
type booked struct {
	mu  sync.RWMutex
	ids []bookedAppointment
}

type bookedAppointment struct {
	ID     uuid.UUID
	UserID string
}

func (b *booked) add(a bookedAppointment) {
	b.mu.Lock()
	b.ids = append(b.ids, a)
	b.mu.Unlock()
}

func (b *booked) pick(rng *rand.Rand) (bookedAppointment, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.ids) == 0 {
		return bookedAppointment{}, false
	}
	return b.ids[rng.Intn(len(b.ids))], true
}

type opStats struct {
	Total    int64
	OK       int64
	Rejected int64
	Failed   int64

	mu        sync.Mutex
	latencies []time.Duration
}

// record classifies by status code: 2xx ok, 4xx rejected, anything else failed.
func (o *opStats) record(latency time.Duration, code int) {
	atomic.AddInt64(&o.Total, 1)
	switch {
	case code >= 200 && code < 300:
		atomic.AddInt64(&o.OK, 1)
	case code >= 400 && code < 500:
		atomic.AddInt64(&o.Rejected, 1)
	default:
		atomic.AddInt64(&o.Failed, 1)
	}

	o.mu.Lock()
	o.latencies = append(o.latencies, latency)
	o.mu.Unlock()
}

func (o *opStats) percentiles() (avg, p50, p95, max time.Duration) {
	o.mu.Lock()
	sorted := append([]time.Duration(nil), o.latencies...)
	o.mu.Unlock()

	if len(sorted) == 0 {
		return 0, 0, 0, 0
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}
	at := func(pct int) time.Duration {
		idx := len(sorted) * pct / 100
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		return sorted[idx]
	}
	return sum / time.Duration(len(sorted)), at(50), at(95), sorted[len(sorted)-1]
}

type simulator struct {
	cfg      simConfig
	logger   zerolog.Logger
	client   *http.Client
	patients []patientRef
	booked   booked

	create, schedule, cancel, get, list opStats
}

func main() {
	logger := logging.New("dev", "info", "simulate")

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	logger.Info().
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Float64("create", cfg.CreateRatio).
		Float64("transition", cfg.TransitionRatio).
		Float64("read", cfg.ReadRatio).
		Msg("simulator starting")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	patients, err := loadPatients(ctx, pool, cfg.PatientLimit)
	if err != nil {
		logger.Fatal().Err(err).Msg("load patients")
	}
	logger.Info().Int("patients", len(patients)).Msg("patients loaded")

	sim := &simulator{
		cfg:      cfg,
		logger:   logger,
		client:   &http.Client{Timeout: cfg.RequestTimeout},
		patients: patients,
	}
	sim.run()
	sim.report()
}

func loadConfig() (simConfig, error) {
	base, err := config.Load()
	if err != nil {
		return simConfig{}, err
	}

	cfg := simConfig{
		APIBaseURL:      getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:        getDuration("SIM_DURATION", 30*time.Second),
		Workers:         getInt("SIM_WORKERS", 10),
		CreateRatio:     getFloat("SIM_CREATE_RATIO", 0.4),
		TransitionRatio: getFloat("SIM_TRANSITION_RATIO", 0.3),
		ReadRatio:       getFloat("SIM_READ_RATIO", 0.3),
		CancelShare:     getFloat("SIM_CANCEL_SHARE", 0.3),
		PatientLimit:    getInt("SIM_PATIENT_LIMIT", 4000),
		PostgresDSN:     base.PostgresDSN,
		RequestTimeout:  10 * time.Second,
	}

	if cfg.Workers <= 0 {
		return cfg, fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return cfg, fmt.Errorf("SIM_DURATION must be > 0")
	}

	total := cfg.CreateRatio + cfg.TransitionRatio + cfg.ReadRatio
	if total <= 0 {
		return cfg, fmt.Errorf("operation ratios must sum to > 0")
	}
	cfg.CreateRatio /= total
	cfg.TransitionRatio /= total
	cfg.ReadRatio /= total

	return cfg, nil
}

func loadPatients(ctx context.Context, pool *pgxpool.Pool, limit int) ([]patientRef, error) {
	rows, err := pool.Query(ctx, `SELECT id, user_id FROM patients LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []patientRef
	for rows.Next() {
		var p patientRef
		if err := rows.Scan(&p.ID, &p.UserID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no patients found, run cmd/seed first")
	}
	return out, nil
}

func (s *simulator) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.worker(ctx, id)
		}(i)
	}
	wg.Wait()

	s.logger.Info().Msg("simulation complete")
}

func (s *simulator) worker(ctx context.Context, id int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

	for ctx.Err() == nil {
		r := rng.Float64()
		switch {
		case r < s.cfg.CreateRatio:
			s.doCreate(ctx, rng)
		case r < s.cfg.CreateRatio+s.cfg.TransitionRatio:
			s.doTransition(ctx, rng)
		case rng.Intn(4) == 0:
			s.doList(ctx)
		default:
			s.doGet(ctx, rng)
		}
	}
}

func (s *simulator) doCreate(ctx context.Context, rng *rand.Rand) {
	p := s.patients[rng.Intn(len(s.patients))]
	body := map[string]any{
		"patientId":        p.ID,
		"userId":           p.UserID,
		"primaryPhysician": gofakeit.LastName(),
		"schedule":         time.Now().Add(time.Duration(rng.Intn(30*24)+1) * time.Hour).UTC(),
		"reason":           gofakeit.Sentence(5),
	}

	var created struct {
		ID uuid.UUID `json:"id"`
	}
	code, latency := s.call(ctx, http.MethodPost, "/appointments", body, &created)
	if ctx.Err() != nil {
		return
	}
	s.create.record(latency, code)
	if code == http.StatusCreated && created.ID != uuid.Nil {
		s.booked.add(bookedAppointment{ID: created.ID, UserID: p.UserID})
	}
}

// doTransition aims at an already booked appointment. A second transition
// on the same one is expected to come back 409.
func (s *simulator) doTransition(ctx context.Context, rng *rand.Rand) {
	a, ok := s.booked.pick(rng)
	if !ok {
		return
	}

	if rng.Float64() < s.cfg.CancelShare {
		code, latency := s.call(ctx, http.MethodPost, "/appointments/"+a.ID.String()+"/cancel", map[string]any{
			"userId":             a.UserID,
			"cancellationReason": gofakeit.Sentence(4),
		}, nil)
		if ctx.Err() == nil {
			s.cancel.record(latency, code)
		}
		return
	}

	code, latency := s.call(ctx, http.MethodPost, "/appointments/"+a.ID.String()+"/schedule", map[string]any{
		"userId": a.UserID,
	}, nil)
	if ctx.Err() == nil {
		s.schedule.record(latency, code)
	}
}

func (s *simulator) doGet(ctx context.Context, rng *rand.Rand) {
	a, ok := s.booked.pick(rng)
	if !ok {
		return
	}
	code, latency := s.call(ctx, http.MethodGet, "/appointments/"+a.ID.String(), nil, nil)
	if ctx.Err() == nil {
		s.get.record(latency, code)
	}
}

func (s *simulator) doList(ctx context.Context) {
	code, latency := s.call(ctx, http.MethodGet, "/appointments", nil, nil)
	if ctx.Err() == nil {
		s.list.record(latency, code)
	}
}

// call returns status 0 on transport failure.
func (s *simulator) call(ctx context.Context, method, path string, body, out any) (int, time.Duration) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, 0
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.APIBaseURL+path, &buf)
	if err != nil {
		return 0, 0
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, latency
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode, latency
}

func (s *simulator) report() {
	line := strings.Repeat("=", 72)
	fmt.Println("\n" + line)
	fmt.Println("LEDGER SIMULATION REPORT")
	fmt.Println(line)
	fmt.Printf("Duration: %s  Workers: %d  Booked: %d\n\n", s.cfg.Duration, s.cfg.Workers, len(s.booked.ids))

	printOp("Create", &s.create)
	printOp("Schedule", &s.schedule)
	printOp("Cancel", &s.cancel)
	printOp("Get", &s.get)
	printOp("List recent", &s.list)
}

func printOp(name string, o *opStats) {
	total := atomic.LoadInt64(&o.Total)
	if total == 0 {
		return
	}
	pct := func(n int64) float64 { return float64(n) / float64(total) * 100 }

	ok := atomic.LoadInt64(&o.OK)
	rejected := atomic.LoadInt64(&o.Rejected)
	failed := atomic.LoadInt64(&o.Failed)
	avg, p50, p95, max := o.percentiles()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  total=%d ok=%d (%.1f%%) rejected=%d (%.1f%%) failed=%d (%.1f%%)\n",
		total, ok, pct(ok), rejected, pct(rejected), failed, pct(failed))
	fmt.Printf("  latency avg=%s p50=%s p95=%s max=%s\n\n",
		avg.Round(time.Millisecond), p50.Round(time.Millisecond),
		p95.Round(time.Millisecond), max.Round(time.Millisecond))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return def
}

func getInt(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return def
}
