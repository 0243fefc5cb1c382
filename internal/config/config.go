// Package config предоставляет структуры и функцию для парсинга и загрузки конфига.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек всех сервисов платформы.
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	ClientURL       string `yaml:"client_url" env:"CLIENT_URL"`
	MongoConnection `yaml:"mongo_connection"`
	MySQLSource     `yaml:"mysql_source"`
	RedisConnection `yaml:"redis_connection"`
	RabbitMQ        `yaml:"rabbitmq"`
	HTTPServer      `yaml:"http_server"`
	JWTToken        `yaml:"jwttoken"`
	Midtrans        `yaml:"midtrans"`
	SMTP            `yaml:"smtp"`
	Importer        `yaml:"importer"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":4000"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// MongoConnection структура для настройки подключения к MongoDB,
// основному хранилищу платформы.
type MongoConnection struct {
	MongoURI     string        `yaml:"uri" env:"MONGO_URI"`
	MongoDB      string        `yaml:"database" env:"MONGO_DATABASE" env-default:"flexbit"`
	MongoTimeout time.Duration `yaml:"timeout" env-default:"10s"`
}

// MySQLSource структура для подключения к исходной реляционной базе,
// из которой планировщик импортирует данные по акциям. Доступ только на чтение.
type MySQLSource struct {
	MySQLDSN string `yaml:"dsn" env:"MYSQL_DSN"`
}

// RedisConnection структура для настройки подключения к redis.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// RabbitMQ структура для подключения к брокеру уведомлений.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"10"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"3s"`
}

// JWTToken структура для работы с jwt-токеном.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"720h"`
}

// Midtrans структура с настройками платежного шлюза.
// ServerKey участвует и в Basic-авторизации запросов к API шлюза,
// и в проверке подписи входящих уведомлений.
type Midtrans struct {
	ServerKey string `yaml:"server_key" env:"MIDTRANS_SERVER_KEY"`
	ClientKey string `yaml:"client_key" env:"MIDTRANS_CLIENT_KEY"`
}

// SMTP структура с настройками почтового транспорта.
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"pass" env:"SMTP_PASS"`
}

// Importer структура с настройками планировщика импорта из MySQL.
// Запуск ежедневный, в HourOfDay по времени Timezone.
type Importer struct {
	HourOfDay int    `yaml:"hour_of_day" env-default:"19"`
	Timezone  string `yaml:"timezone" env-default:"Asia/Jakarta"`
}

// MustLoad загружает конфиг по пути из CONFIG_PATH, при ошибке завершает процесс.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

// IsProduction сообщает, работает ли сервис в боевом окружении.
// От этого зависит доступность ручной проверки платежа и выбор хостов шлюза.
func (c *Config) IsProduction() bool {
	return c.Env == "prod"
}
