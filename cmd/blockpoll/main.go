// cmd/blockpoll/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/datatrails/go-datatrails-common/logger"

	"github.com/tamzrod/modbus-blockio/internal/config"
	"github.com/tamzrod/modbus-blockio/internal/driver"
	"github.com/tamzrod/modbus-blockio/internal/modbus"
	"github.com/tamzrod/modbus-blockio/internal/poller"
	"github.com/tamzrod/modbus-blockio/internal/status"
	"github.com/tamzrod/modbus-blockio/internal/writer"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: blockpoll <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	logger.New(cfg.Log.Level)
	defer logger.OnExit()
	svcLog := logger.Sugar.WithServiceName("blockpoll")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	timeout := time.Duration(cfg.Device.TimeoutMs) * time.Millisecond

	// --------------------
	// Device transport + driver
	// --------------------

	tr, err := modbus.New(modbus.Config{
		Mode:     cfg.Device.Transport,
		Endpoint: cfg.Device.Endpoint,
		UnitID:   cfg.Device.UnitID,
		Timeout:  timeout,
		BaudRate: cfg.Device.Serial.BaudRate,
		DataBits: cfg.Device.Serial.DataBits,
		Parity:   cfg.Device.Serial.Parity,
		StopBits: cfg.Device.Serial.StopBits,
	})
	if err != nil {
		log.Fatalf("transport failed (device=%s): %v", cfg.Device.ID, err)
	}
	defer tr.Close()

	drv, err := driver.New(driver.Config{
		Transport:        tr,
		Log:              svcLog,
		ReadMinGap:       cfg.Aggregation.ReadMinGap,
		UpdateReadMinGap: cfg.Aggregation.UpdateReadMinGap,
		Prohibited:       cfg.Aggregation.ProhibitedByDomain(),
		DumpBuffers:      cfg.Log.DumpBuffers,
	})
	if err != nil {
		log.Fatalf("driver failed (device=%s): %v", cfg.Device.ID, err)
	}

	// ---- poller ----
	p, err := poller.Build(cfg, drv)
	if err != nil {
		log.Fatalf("poller build failed (device=%s): %v", cfg.Device.ID, err)
	}

	// ---- writer plan ----
	plan, err := writer.BuildPlan(cfg)
	if err != nil {
		log.Fatalf("writer plan failed (device=%s): %v", cfg.Device.ID, err)
	}
	setpoints := writer.New(plan, drv)

	// ---- status (optional) ----
	statusDrv, closeStatus, err := writer.BuildStatusDriver(plan, timeout, svcLog)
	if err != nil {
		log.Fatalf("status endpoint failed (device=%s): %v", cfg.Device.ID, err)
	}
	defer closeStatus()

	var statusWriter *writer.DeviceStatusWriter
	statusEnabled := false
	if statusDrv != nil {
		statusWriter, statusEnabled = writer.NewDeviceStatusWriter(plan, statusDrv)
	}

	// ---- channel between poller and orchestrator ----
	out := make(chan poller.PollResult)

	// Orchestrator (runner-owned state + 1Hz seconds ticker)
	done := make(chan struct{})
	go func() {
		defer close(done)

		var snap status.Snapshot

		secTicker := time.NewTicker(time.Second)
		defer secTicker.Stop()

		// Setpoints and full status block on start.
		if err := setpoints.Apply(); err != nil {
			svcLog.Infof("setpoint write failed on start (device=%s): %v", plan.DeviceID, err)
		}
		if statusEnabled {
			if err := statusWriter.WriteStatus(snap); err != nil {
				svcLog.Infof("status write failed on start (device=%s): %v", plan.DeviceID, err)
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case res := <-out:
				if res.Err != nil {
					svcLog.Infof("poll failed (device=%s cycle=%s failed=%d): %v", res.DeviceID, res.CycleID, res.Failed, res.Err)
				} else {
					svcLog.Debugf("poll ok (device=%s cycle=%s channels=%d transfers=%d)", res.DeviceID, res.CycleID, len(res.Records), res.Transfers)
				}

				prev := snap
				changed := snap.Observe(res.Err, modbus.ErrorCode(res.Err), res.Failed)

				// Re-assert setpoints after the device comes back.
				if status.Recovered(prev, snap) {
					if err := setpoints.Apply(); err != nil {
						svcLog.Infof("setpoint re-assert failed (device=%s): %v", res.DeviceID, err)
					}
				}

				if changed && statusEnabled {
					if err := statusWriter.WriteStatus(snap); err != nil {
						svcLog.Infof("status write failed (device=%s): %v", res.DeviceID, err)
					}
				}

			case <-secTicker.C:
				if !snap.Tick() || !statusEnabled {
					continue
				}
				if err := statusWriter.WriteStatus(snap); err != nil {
					svcLog.Infof("status seconds tick write failed (device=%s): %v", plan.DeviceID, err)
				}
			}
		}
	}()

	// poller producer
	go p.Run(ctx, out)

	svcLog.Infof("polling device=%s endpoint=%s every %dms", cfg.Device.ID, cfg.Device.Endpoint, cfg.Poll.IntervalMs)

	<-done
	svcLog.Infof("shutting down (device=%s)", cfg.Device.ID)
}
