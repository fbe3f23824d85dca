// main.go
package main

import (
	"log"

	"retreat-booking/cmd"
	"retreat-booking/internal/data/repository"
	"retreat-booking/internal/wire"
	"retreat-booking/internal/worker"
	"retreat-booking/pkg/cache"
	"retreat-booking/pkg/database"
	"retreat-booking/pkg/gateway"
	"retreat-booking/pkg/notifier"
	"retreat-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Redis-backed waitlist offer tokens
	tokens, err := cache.NewTokenStore(config.Redis.Addr, config.Redis.Password, config.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer tokens.Close()

	// Notification publisher; the engine keeps running without the broker.
	var notify notifier.Sender
	amqpSender, err := notifier.NewAMQPSender(config.AMQP.URL, config.AMQP.Exchange, logger)
	if err != nil {
		logger.Warn("AMQP unavailable, notifications disabled", zap.Error(err))
		notify = notifier.NewNopSender(logger)
	} else {
		notify = amqpSender
	}
	defer notify.Close()

	// Payment gateway
	gw := gateway.NewHTTPClient(config.Gateway.BaseURL, config.Gateway.APIKey)

	// Initialize all repositories and services
	repos := repository.NewRepository(db, logger)
	services := wire.NewServices(repos, gw, notify, tokens, config, logger)

	// Background jobs
	jobs := worker.NewJobs(services.Payment, services.Waitlist, services.Reminder, logger)
	scheduler, err := worker.NewScheduler(jobs, config, logger)
	if err != nil {
		logger.Fatal("Failed to build scheduler", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Wire routes and start server
	router := wire.NewRouter(repos, services, logger)

	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	cmd.APIServer(router, config.App.Port)
}
