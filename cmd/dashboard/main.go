package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"

	"streamfolio/internal/dashboard"
	"streamfolio/internal/model"
	"streamfolio/internal/ops"
	"streamfolio/internal/status"
	"streamfolio/pkg/websocket"
)

func main() {
	if err := run(); err != nil {
		logs.Errorf("dashboard: %+v", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "config.json", "path to JSON config")
	pyroscopeFlag := flag.String("pyroscope", "", "pyroscope server address (empty disables profiling)")
	flag.Parse()

	cfg, err := ops.Load(*configFlag)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr := strings.TrimSpace(*pyroscopeFlag); addr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "streamfolio/dashboard",
			ServerAddress:   addr,
			Logger:          emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileInuseObjects,
			},
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	session, err := dashboard.NewSession(cfg, dashboard.Option{
		OnValuation: logValuation,
		OnStreamState: func(state websocket.State) {
			logs.Infof("stream %s", state)
		},
		OnStatus: func(st status.StreamStatus) {
			logs.Infof("streaming mode: realtime=%t sources=%v", st.Realtime, st.Sources)
		},
	})
	if err != nil {
		return err
	}

	if err := session.Start(ctx); err != nil {
		return err
	}
	defer session.Stop()

	logs.Infof("dashboard session started, stream %s", cfg.StreamURL)
	<-ctx.Done()
	logs.Info("shutting down")
	return nil
}

func logValuation(v model.Valuation) {
	logs.Infof("portfolio value %s, pnl %s (%s%%), positions %d",
		v.Aggregate.MarketValue.StringFixed(2),
		v.Aggregate.PnL.StringFixed(2),
		v.Aggregate.PnLPercent.StringFixed(2),
		len(v.PerPosition),
	)
}

type emptyLogger struct{}

func (emptyLogger) Infof(_ string, _ ...interface{})  {}
func (emptyLogger) Debugf(_ string, _ ...interface{}) {}
func (emptyLogger) Errorf(_ string, _ ...interface{}) {}
