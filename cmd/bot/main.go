package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"GroceryLens/internal/bot"
	"GroceryLens/internal/chart"
	"GroceryLens/internal/config"
	"GroceryLens/internal/dataservice"
	"GroceryLens/internal/logger"
	"GroceryLens/internal/notifier"
	"GroceryLens/internal/recorder"
	"GroceryLens/internal/scheduler"
	"GroceryLens/internal/tracker"

	"go.uber.org/zap"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("config validation", zap.Error(err))
	}
	log.Info("GroceryLens starting", zap.String("data_service", cfg.DataService.BaseURL))

	svc := dataservice.NewHTTPService(cfg.DataService.BaseURL,
		dataservice.WithAPIKey(cfg.DataService.APIKey),
		dataservice.WithTimeout(cfg.DataService.Timeout),
		dataservice.WithProxy(cfg.Proxy),
		dataservice.WithLogger(log.Named("dataservice")),
	)
	tr := tracker.New(svc, log.Named("tracker"))
	charts := chart.NewExcelRenderer(cfg.Charts.OutputDir, log.Named("chart"))

	var rec recorder.Recorder
	if cfg.Journal.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Journal.SQLitePath, log.Named("journal"))
		if err != nil {
			log.Warn("init sqlite journal failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	tn, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log.Named("telegram"))
	if err != nil {
		log.Fatal("init telegram", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := tr.LoadCatalog(ctx); err != nil {
		log.Warn("initial catalog load failed, will retry on demand", zap.Error(err))
	}

	sched := scheduler.NewScheduler(ctx, tr, tn, charts, rec, cfg.Watchlist, log.Named("scheduler"))
	if err := sched.RegisterAll(cfg.Schedule.DigestCron, cfg.Schedule.RefreshCron); err != nil {
		log.Fatal("register cron tasks", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	handler := bot.NewHandler(tr, charts, rec, log.Named("bot"))
	go tn.StartPolling(ctx, handler)
	log.Info("telegram polling started")

	if os.Getenv("RUN_ON_START") == "true" && len(cfg.Watchlist) > 0 {
		log.Info("RUN_ON_START enabled, sending digest now")
		go sched.RunDigestNow()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping")
	cancel()
}
