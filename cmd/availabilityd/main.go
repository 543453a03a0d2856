package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"velora/internal/availability"
	"velora/internal/config"
	"velora/internal/events"
	"velora/internal/lock"
	"velora/internal/metrics"
	"velora/internal/models"
	"velora/internal/notify"
	"velora/internal/report"
	"velora/internal/schedule"
	"velora/internal/store"
	"velora/internal/waitlist"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("VELORA_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid salon timezone")
	}

	db, err := store.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	var rdb *redis.Client
	var guard waitlist.ClaimGuard
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		guard = lock.NewRedisGuard(rdb, logger)
	}

	cache := schedule.NewCache(cfg.ScheduleCacheTTL())
	resolver := schedule.NewResolver(db, cache, logger)
	facade := availability.NewFacade(resolver, availability.SystemClock{}, loc, cfg.StepMinutes(), logger)

	ratePerSec, burst := cfg.NotificationRate()
	dispatcher := notify.NewDispatcher(logEmail{logger}, logSMS{logger}, ratePerSec, burst, logger)

	coordinator := waitlist.NewCoordinator(db, db, dispatcher, guard,
		waitlist.ReleasePolicy(cfg.ReleasePolicy()), logger)
	coordinator.SetGuardTTL(time.Duration(cfg.Waitlist.ClaimTTLSeconds) * time.Second)

	fillLog := report.NewFillLog()

	bus := events.NewBus()
	bus.Subscribe(events.TypeBookingCancelled, func(event events.Event) error {
		var payload events.BookingCancelled
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			logger.Error().Err(err).Msg("bad cancellation payload")
			return err
		}
		fillCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		outcome, err := coordinator.FillCancellation(fillCtx, payload.BookingID)
		if err != nil {
			logger.Error().Err(err).Str("booking_id", payload.BookingID).Msg("waitlist fill failed")
			return err
		}
		if cfg.Reports.Enabled {
			fillLog.Append(fillRecord(payload.BookingID, outcome))
		}
		if outcome.Reason == waitlist.ReasonFilled {
			_ = bus.PublishJSON(events.TypeWaitlistFilled, outcome.Booking)
		}
		return nil
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := waitlist.NewWatcher(db, bus, 15*time.Second, logger)
	go watcher.Run(ctx)

	if cfg.Reports.Enabled {
		go runDailyReports(ctx, cfg, db, facade, fillLog, loc, &logger)
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	logger.Info().Msg("availabilityd started")
	<-ctx.Done()
	logger.Info().Msg("availabilityd stopped")
}

// fillRecord flattens a coordinator outcome into one audit row.
func fillRecord(cancelledID string, outcome *waitlist.Outcome) report.FillRecord {
	rec := report.FillRecord{
		SpecialistID:       outcome.SpecialistID,
		CancelledBookingID: cancelledID,
		Reason:             string(outcome.Reason),
		Skipped:            outcome.Skipped,
		At:                 time.Now(),
	}
	if outcome.Booking != nil {
		rec.BookingID = outcome.Booking.ID
	}
	if outcome.Entry != nil {
		rec.EntryID = outcome.Entry.ID
	}
	return rec
}

// runDailyReports writes one availability workbook per specialist for the
// current day, then repeats every 24 hours.
func runDailyReports(ctx context.Context, cfg *config.Config, db *store.DB, facade *availability.Facade, fillLog *report.FillLog, loc *time.Location, logger *zerolog.Logger) {
	if err := os.MkdirAll(cfg.Reports.Dir, 0o755); err != nil {
		logger.Error().Err(err).Msg("create reports dir failed")
		return
	}

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		writeReports(ctx, cfg, db, facade, fillLog, loc, logger)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func writeReports(ctx context.Context, cfg *config.Config, db *store.DB, facade *availability.Facade, fillLog *report.FillLog, loc *time.Location, logger *zerolog.Logger) {
	today := time.Now().In(loc)
	ids, err := db.SpecialistIDs(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("list specialists failed")
		return
	}

	fills := make(map[string][]report.FillRecord)
	for _, rec := range fillLog.Drain() {
		fills[rec.SpecialistID] = append(fills[rec.SpecialistID], rec)
	}

	req := models.ServiceRequirement{
		DurationMinutes:     cfg.Reports.DefaultService.DurationMinutes,
		BufferBeforeMinutes: cfg.Reports.DefaultService.BufferBeforeMinutes,
		BufferAfterMinutes:  cfg.Reports.DefaultService.BufferAfterMinutes,
	}
	if req.DurationMinutes <= 0 {
		req.DurationMinutes = 60
	}

	for _, id := range ids {
		timeOff, err := db.TimeOffBetween(ctx, id, today, today.Add(24*time.Hour))
		if err != nil {
			logger.Error().Err(err).Str("specialist_id", id).Msg("load time off failed")
			continue
		}
		bookings, err := db.ActiveBookingsOnDate(ctx, id, today)
		if err != nil {
			logger.Error().Err(err).Str("specialist_id", id).Msg("load bookings failed")
			continue
		}
		slots, err := facade.Slots(ctx, availability.Request{
			SpecialistID: id,
			Date:         today,
			Requirement:  req,
			TimeOff:      timeOff,
			Bookings:     bookings,
		})
		if err != nil {
			logger.Error().Err(err).Str("specialist_id", id).Msg("compute availability failed")
			continue
		}

		path := filepath.Join(cfg.Reports.Dir,
			fmt.Sprintf("availability_%s_%s.xlsx", id, today.Format(models.DateKey)))
		f, err := os.Create(path)
		if err != nil {
			logger.Error().Err(err).Str("path", path).Msg("create report failed")
			continue
		}
		r := report.DayReport{Date: today, SpecialistID: id, Slots: slots, Fills: fills[id]}
		if err := r.Write(f); err != nil {
			logger.Error().Err(err).Str("path", path).Msg("write report failed")
		}
		_ = f.Close()
	}
}

// logEmail and logSMS stand in for external delivery providers in
// deployments that haven't configured any; they just record the
// notification.
type logEmail struct {
	log zerolog.Logger
}

func (s logEmail) Send(_ context.Context, to, subject, _ string) error {
	s.log.Info().Str("to", to).Str("subject", subject).Msg("email dispatched")
	return nil
}

type logSMS struct {
	log zerolog.Logger
}

func (s logSMS) Send(_ context.Context, to, _ string) error {
	s.log.Info().Str("to", to).Msg("sms dispatched")
	return nil
}

func startHealthServer(ctx context.Context, port int, db *store.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
