package config

import (
	"github.com/spf13/viper"
)

// The service is configured entirely from environment variables, matching
// how it is deployed (one pod, one env). Defaults target the local
// docker-compose stack with LocalStack standing in for AWS.

type Config struct {
	ServerPort          string `mapstructure:"SERVER_PORT"`
	IsLocalDev          bool   `mapstructure:"LOCAL_DEV"`
	DBHost              string `mapstructure:"DB_HOST"`
	DBPort              string `mapstructure:"DB_PORT"`
	DBUser              string `mapstructure:"DB_USER"`
	DBPassword          string `mapstructure:"DB_PASSWORD"`
	DBName              string `mapstructure:"DB_NAME"`
	AWSRegion           string `mapstructure:"AWS_REGION"`
	AWSEndpoint         string `mapstructure:"AWS_ENDPOINT"`
	LiveSQSQueueURL     string `mapstructure:"LIVE_SQS_QUEUE_URL"`
	ExportSQSQueueURL   string `mapstructure:"EXPORT_SQS_QUEUE_URL"`
	RecordsAPIURL       string `mapstructure:"RECORDS_API_URL"`
	RecordsSource       string `mapstructure:"RECORDS_SOURCE"` // "postgres" or "api"
	ReportSender        string `mapstructure:"REPORT_SENDER"`
	OTLPEndpoint        string `mapstructure:"OTLP_ENDPOINT"`
	RosterFile          string `mapstructure:"ROSTER_FILE"`
	AutoRefreshSeconds  int    `mapstructure:"AUTO_REFRESH_SECONDS"`
	NoticeSeconds       int    `mapstructure:"NOTICE_SECONDS"`
	DefaultOrganization string `mapstructure:"DEFAULT_ORGANIZATION"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOCAL_DEV", false)
	viper.SetDefault("DB_HOST", "db")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "attendance_db")
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	viper.SetDefault("LIVE_SQS_QUEUE_URL", "http://localstack:4566/000000000000/live-attendance-queue")
	viper.SetDefault("EXPORT_SQS_QUEUE_URL", "http://localstack:4566/000000000000/export-report-queue")
	viper.SetDefault("RECORDS_API_URL", "http://localhost:8081")
	viper.SetDefault("RECORDS_SOURCE", "postgres")
	viper.SetDefault("REPORT_SENDER", "reports@attendance.local")
	viper.SetDefault("OTLP_ENDPOINT", "jaeger:4317")
	viper.SetDefault("ROSTER_FILE", "")
	viper.SetDefault("AUTO_REFRESH_SECONDS", 30)
	viper.SetDefault("NOTICE_SECONDS", 5)
	viper.SetDefault("DEFAULT_ORGANIZATION", "")

	// Read in environment variables that match the keys.
	viper.AutomaticEnv()

	err = viper.Unmarshal(&config)
	return
}
