// Package config загружает настройки сервиса из переменных окружения.
// Значения по умолчанию задаются тегами, Validate проверяет результат при старте.
package config

import (
	"net"
	"strconv"
	"time"
)

// Виды хранилища.
const (
	StorageInMemory = "in-memory"
	StoragePostgres = "postgres"
)

// Config - все настройки приложения.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Logging  LoggingConfig
}

// ServerConfig - параметры HTTP-сервера.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`
	// RequestTimeout ограничивает обработку одного запроса (chi middleware.Timeout)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`
}

// StorageConfig выбирает хранилище. Флаг --storage имеет приоритет.
type StorageConfig struct {
	Backend string `env:"STORAGE" default:"in-memory"`
}

// DatabaseConfig - подключение к PostgreSQL, нужно только для postgres-хранилища.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL" envAlt:"DB_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" default:"4"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" default:"1h"`
}

// AuthConfig - общий секрет для изменяющих запросов.
type AuthConfig struct {
	Token string `env:"API_ACCESS_TOKEN"`
	// AllowWhenUnset открывает запись всем, если токен не задан
	AllowWhenUnset bool `env:"AUTH_ALLOW_WHEN_UNSET" default:"false"`
}

// LoggingConfig - уровень (debug, info, warn, error) и формат (text, json).
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr возвращает адрес в формате host:port.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
