package main

import "github.com/spf13/viper"

type Config struct {
	Port        string `mapstructure:"PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`
	Version     string `mapstructure:"VERSION"`
	TLSCertFile string `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile  string `mapstructure:"TLS_KEY_FILE"`

	DB struct {
		Host        string `mapstructure:"POSTGRES_HOST"`
		Port        string `mapstructure:"POSTGRES_PORT"`
		User        string `mapstructure:"POSTGRES_USER"`
		Password    string `mapstructure:"POSTGRES_PASSWORD"`
		Name        string `mapstructure:"POSTGRES_DB"`
		AutoMigrate bool   `mapstructure:"POSTGRES_AUTO_MIGRATE"`
	} `mapstructure:",squash"`

	Mail struct {
		Host     string `mapstructure:"MAIL_HOST"`
		Port     int    `mapstructure:"MAIL_PORT"`
		User     string `mapstructure:"MAIL_USER"`
		Password string `mapstructure:"MAIL_PASSWORD"`
		Sender   string `mapstructure:"MAIL_SENDER"`
	} `mapstructure:",squash"`

	RabbitMQ struct {
		Host     string `mapstructure:"RABBITMQ_HOST"`
		Port     string `mapstructure:"RABBITMQ_PORT"`
		User     string `mapstructure:"RABBITMQ_USER"`
		Password string `mapstructure:"RABBITMQ_PASSWORD"`
	} `mapstructure:",squash"`

	MinIO struct {
		Endpoint  string `mapstructure:"MINIO_ENDPOINT"`
		AccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
		SecretKey string `mapstructure:"MINIO_SECRET_KEY"`
		Bucket    string `mapstructure:"MINIO_BUCKET"`
		PublicURL string `mapstructure:"MINIO_PUBLIC_URL"`
		UseSSL    bool   `mapstructure:"MINIO_USE_SSL"`
	} `mapstructure:",squash"`

	Admin struct {
		Username string `mapstructure:"ADMIN_USERNAME"`
		Email    string `mapstructure:"ADMIN_EMAIL"`
		Nickname string `mapstructure:"ADMIN_NICKNAME"`
		Password string `mapstructure:"ADMIN_PASSWORD"`
	} `mapstructure:",squash"`

	Limiter struct {
		RPS     float64 `mapstructure:"LIMITER_RPS"`
		Burst   int     `mapstructure:"LIMITER_BURST"`
		Enabled bool    `mapstructure:"LIMITER_ENABLED"`
	} `mapstructure:",squash"`
}

func loadConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
