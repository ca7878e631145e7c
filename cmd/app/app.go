package app

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kolecto/tontine-api/internal/api"
	"github.com/kolecto/tontine-api/internal/config"
	"github.com/kolecto/tontine-api/internal/db"
	"github.com/kolecto/tontine-api/internal/logger"
	"github.com/kolecto/tontine-api/internal/repository"
	"github.com/kolecto/tontine-api/internal/repository/dao"
	"github.com/kolecto/tontine-api/internal/scheduler"
	"github.com/kolecto/tontine-api/internal/service"
	"github.com/kolecto/tontine-api/pkg/notifier"
	"github.com/kolecto/tontine-api/pkg/walletclient"
)

func Start() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	wallet := walletclient.NewClient(conf.Wallet.BaseURL, time.Duration(conf.Wallet.TimeoutSeconds)*time.Second)
	fees := config.NewFeeTable(conf.Fees)

	var events service.Notifier
	producer, err := notifier.NewProducer(conf.AMQP.URL)
	if err != nil {
		zap.L().Warn("rabbitmq unavailable, notifications fall back to logging", zap.Error(err))
		events = &notifier.Fallback{Logger: zap.L()}
	} else {
		defer producer.Close()
		events = producer
	}

	sched := startScheduler(postgresDB, wallet, fees, events, conf.Scheduler)
	defer sched.Stop()

	s := api.NewServer(conf, postgresDB, wallet, fees, events)

	addr := ":" + s.Config.API.Port
	zap.L().Info(fmt.Sprintf("starting server at %v", addr))
	if err = s.Router.Run(addr); err != nil {
		return fmt.Errorf("failed to start the server -> %w", err)
	}

	return nil
}

func startScheduler(postgresDB *gorm.DB, wallet service.Wallet, fees service.FeePolicy, events service.Notifier, conf *config.SchedulerConfig) *scheduler.Scheduler {
	tontineRepo := repository.NewTontineRepository(dao.NewTontineDAO(postgresDB))
	penaltyRepo := repository.NewPenaltyRepository(dao.NewPenaltyDAO(postgresDB))

	tontineSvc := service.NewTontineService(tontineRepo, wallet, fees, events)
	penaltySvc := service.NewPenaltyService(penaltyRepo, tontineRepo, wallet, fees, events)

	jobs := scheduler.NewJobs(penaltySvc, tontineSvc, events, zap.L())
	sched := scheduler.New(jobs, zap.L(), conf.PenaltySweep, conf.ContributionReminder)
	sched.Start()

	return sched
}
