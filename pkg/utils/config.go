package utils

import (
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Gateway  GatewayConfig
	AMQP     AMQPConfig
	Redis    RedisConfig
	Payments PaymentsConfig
	Jobs     JobsConfig
}

type AppConfig struct {
	Name     string
	Port     string
	Debug    bool
	LogPath  string
	BaseURL  string
	Currency string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type AuthConfig struct {
	SessionExpiryHours int
}

type GatewayConfig struct {
	BaseURL string
	APIKey  string
}

type AMQPConfig struct {
	URL      string
	Exchange string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PaymentsConfig struct {
	DepositPct           int
	EarlyBirdPct         int
	MaxAttempts          int
	RetryDelayHours      int
	ProcessingStaleHours int
	WaitlistHoldHours    int
}

type JobsConfig struct {
	DueCharges       string
	StaleReclaim     string
	WaitlistSweep    string
	PaymentReminders string
	TripReminders    string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("CURRENCY", "usd")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("SESSION_EXPIRY_HOURS", 24)
	viper.SetDefault("AMQP_EXCHANGE", "notifications")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("DEPOSIT_PCT", 10)
	viper.SetDefault("EARLY_BIRD_PCT", 10)
	viper.SetDefault("PAYMENT_MAX_ATTEMPTS", 3)
	viper.SetDefault("PAYMENT_RETRY_DELAY_HOURS", 24)
	viper.SetDefault("PROCESSING_STALE_HOURS", 2)
	viper.SetDefault("WAITLIST_HOLD_HOURS", 72)
	viper.SetDefault("JOB_DUE_CHARGES", "0 6 * * *")
	viper.SetDefault("JOB_STALE_RECLAIM", "30 * * * *")
	viper.SetDefault("JOB_WAITLIST_SWEEP", "0 * * * *")
	viper.SetDefault("JOB_PAYMENT_REMINDERS", "0 8 * * *")
	viper.SetDefault("JOB_TRIP_REMINDERS", "15 8 * * *")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:     viper.GetString("APP_NAME"),
			Port:     viper.GetString("PORT"),
			Debug:    viper.GetBool("DEBUG"),
			LogPath:  viper.GetString("LOG_PATH"),
			BaseURL:  viper.GetString("BASE_URL"),
			Currency: viper.GetString("CURRENCY"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Auth: AuthConfig{
			SessionExpiryHours: viper.GetInt("SESSION_EXPIRY_HOURS"),
		},
		Gateway: GatewayConfig{
			BaseURL: viper.GetString("GATEWAY_BASE_URL"),
			APIKey:  viper.GetString("GATEWAY_API_KEY"),
		},
		AMQP: AMQPConfig{
			URL:      viper.GetString("AMQP_URL"),
			Exchange: viper.GetString("AMQP_EXCHANGE"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASS"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Payments: PaymentsConfig{
			DepositPct:           viper.GetInt("DEPOSIT_PCT"),
			EarlyBirdPct:         viper.GetInt("EARLY_BIRD_PCT"),
			MaxAttempts:          viper.GetInt("PAYMENT_MAX_ATTEMPTS"),
			RetryDelayHours:      viper.GetInt("PAYMENT_RETRY_DELAY_HOURS"),
			ProcessingStaleHours: viper.GetInt("PROCESSING_STALE_HOURS"),
			WaitlistHoldHours:    viper.GetInt("WAITLIST_HOLD_HOURS"),
		},
		Jobs: JobsConfig{
			DueCharges:       viper.GetString("JOB_DUE_CHARGES"),
			StaleReclaim:     viper.GetString("JOB_STALE_RECLAIM"),
			WaitlistSweep:    viper.GetString("JOB_WAITLIST_SWEEP"),
			PaymentReminders: viper.GetString("JOB_PAYMENT_REMINDERS"),
			TripReminders:    viper.GetString("JOB_TRIP_REMINDERS"),
		},
	}

	return config, nil
}
