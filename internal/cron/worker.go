// Package cron runs the background worker: a control loop that periodically
// refreshes the persisted forecast snapshot and raises alerts when the latest
// consumption crosses the configured threshold.
package cron

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Pranuu07/Power-Predictor/internal/alerting"
	"github.com/Pranuu07/Power-Predictor/internal/config"
	"github.com/Pranuu07/Power-Predictor/internal/metrics"
	"github.com/Pranuu07/Power-Predictor/internal/notification"
	"github.com/Pranuu07/Power-Predictor/internal/storage"
	"github.com/Pranuu07/Power-Predictor/internal/tracker"
)

const (
	jobName         = "refresh_forecast"
	lockKey   int64 = 42
	// intervalSettingKey is the DB settings row that overrides the refresh
	// interval at runtime.
	intervalSettingKey = "refresh_interval_seconds"
)

// Run starts the worker control loop. The interval comes from the
// environment or a DB settings row and may be integer seconds or a cron
// expression; a PostgreSQL advisory lock ensures only one instance executes
// the job in a multi-instance deployment.
func Run(ctx context.Context, cfg config.Config) error {
	st, err := storage.Open(ctx, storage.Config{Driver: cfg.DBDriver, DSN: cfg.DBDSN})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer st.Close()

	svc := tracker.New(cfg.Schedule, cfg.Analytics, st)
	alerter := alerting.NewAlerter(alerting.DefaultAlertConfig())
	notifSvc := notification.NewService(st)

	// Initial interval from env or default
	// Can be integer seconds or cron expression
	intervalSetting := "300"
	if raw := os.Getenv("POWERTRACKER_CRON_INTERVAL_SECONDS"); raw != "" {
		intervalSetting = raw
	}

	// Check DB for override
	if val, err := st.GetSetting(ctx, intervalSettingKey); err == nil && val != "" {
		intervalSetting = val
	}

	// Control loop ticker (check config and run time)
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	// Helper to calculate next run time
	getNextRun := func(setting string, lastRun time.Time) time.Time {
		// Try integer seconds
		if v, err := strconv.Atoi(setting); err == nil && v > 0 {
			return lastRun.Add(time.Duration(v) * time.Second)
		}
		// Try cron expression
		if sched, err := cron.ParseStandard(setting); err == nil {
			return sched.Next(lastRun)
		}
		// Fallback to default 5m
		return lastRun.Add(5 * time.Minute)
	}

	// If starting fresh, run immediately, then schedule next
	nextRun := time.Now()

	log.Printf("cron worker starting, initial setting=%q driver=%s", intervalSetting, cfg.DBDriver)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// 1. Check for config update
			if val, err := st.GetSetting(ctx, intervalSettingKey); err == nil && val != "" {
				if val != intervalSetting {
					log.Printf("cron: interval updated from %q to %q", intervalSetting, val)
					intervalSetting = val
					nextRun = getNextRun(intervalSetting, time.Now())
				}
			}

			// 2. Check if it's time to run
			if time.Now().Before(nextRun) {
				continue
			}

			started := time.Now()

			ok, err := st.AcquireAdvisoryLock(ctx, lockKey)
			if err != nil {
				log.Printf("cron: acquire advisory lock failed: %v", err)
				metrics.UpdateJobMetrics(jobName, started, err)
				nextRun = getNextRun(intervalSetting, time.Now())
				continue
			}
			if !ok {
				// Another worker is running this job.
				log.Printf("cron: advisory lock held by another worker, skipping run")
				nextRun = getNextRun(intervalSetting, time.Now())
				continue
			}

			// We hold the lock for the duration of the job.
			var runErr error
			func() {
				defer func() {
					if _, err := st.ReleaseAdvisoryLock(ctx, lockKey); err != nil {
						log.Printf("cron: release advisory lock failed: %v", err)
					}
				}()
				runErr = runOnce(ctx, cfg, svc, alerter, notifSvc)
			}()

			// Record metrics & job row.
			metrics.UpdateJobMetrics(jobName, started, runErr)
			dur := time.Since(started)
			errMsg := ""
			success := runErr == nil
			if runErr != nil {
				errMsg = runErr.Error()
			}
			if err := st.UpdateScheduledJob(ctx, jobName, started, dur, success, errMsg); err != nil {
				log.Printf("cron: update scheduled_jobs failed: %v", err)
			}

			if runErr != nil {
				log.Printf("cron: job %s completed with error: %v (duration=%s)", jobName, runErr, dur)
			} else {
				log.Printf("cron: job %s completed successfully (duration=%s)", jobName, dur)
			}

			// Schedule next run
			nextRun = getNextRun(intervalSetting, time.Now())
		}
	}
}

// runOnce refreshes the forecast snapshot and checks the latest consumption
// against the alert threshold.
func runOnce(ctx context.Context, cfg config.Config, svc *tracker.Service, alerter *alerting.Alerter, notifSvc *notification.Service) error {
	f, err := svc.RefreshForecast(ctx)
	if err != nil {
		return fmt.Errorf("refresh forecast: %w", err)
	}

	recent, err := svc.Recent(ctx, 1)
	if err != nil {
		return fmt.Errorf("read latest bill: %w", err)
	}
	if len(recent) == 0 || recent[0].UnitsConsumed <= cfg.AlertUsageThreshold {
		return nil
	}

	latest := recent[0]
	alert := alerting.UsageAlert{
		Usage:          latest.UnitsConsumed,
		Threshold:      cfg.AlertUsageThreshold,
		ProjectedUsage: f.NextPeriodUsage,
		EstimatedBill:  f.NextPeriodCost,
		Trend:          string(f.Trend),
		Timestamp:      time.Now().UTC(),
	}
	if err := alerter.SendUsageAlert(ctx, alert); err != nil {
		log.Printf("cron: webhook alert failed: %v", err)
	}

	if cfg.AlertEmailTo != "" {
		body := fmt.Sprintf(
			"<p>Your latest electricity usage was <strong>%.0f units</strong>, above the %.0f unit threshold.</p>"+
				"<p>Next month projection: %.0f units (estimated bill %.2f). Trend: %s.</p>",
			latest.UnitsConsumed, cfg.AlertUsageThreshold, f.NextPeriodUsage, f.NextPeriodCost, f.Trend,
		)
		if err := notifSvc.SendEmail(ctx, cfg.AlertEmailTo, "High electricity usage alert", body); err != nil {
			log.Printf("cron: email alert failed: %v", err)
		}
	}
	return nil
}
