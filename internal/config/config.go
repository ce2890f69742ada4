package config

import (
	"flag"
	"regexp"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Настройки хранилища
	DatabaseDSN string `env:"DATABASE_URI"`
	StorageDir  string `env:"STORAGE_DIR"`

	// Сетевые настройки узла
	BaseURL      string `env:"BASE_URL"`
	SelfEndpoint string `env:"SELF_ENDPOINT"` // внешний адрес этого узла, как его видят остальные узлы replica set

	// Секрет межузловой аутентификации (пустой — аутентификация отключена)
	NodeAuthSecret string `env:"NODE_AUTH_SECRET"`

	// Делегат-кошелёк узла (идентичность узла в сети)
	DelegateOwnerWallet string `env:"DELEGATE_OWNER_WALLET"`

	// Дефолтный replica set (эндпоинты через запятую) — пока без
	// интеграции с discovery-слоем
	ReplicaSetEndpoints string `env:"REPLICA_SET_ENDPOINTS"`

	// Параметры движка репликации
	MaxExportClockRange int `env:"MAX_EXPORT_CLOCK_RANGE"` // максимальная ширина окна clock в одном экспорте
	SyncConcurrency     int `env:"SYNC_CONCURRENCY"`       // число воркеров импорта
	SyncQueueSize       int `env:"SYNC_QUEUE_SIZE"`
	SkipThreshold       int `env:"SKIP_THRESHOLD"` // число неудачных sync-попыток, после которого импорт допускает skipped-файлы

	// Кворум записи
	EnforceWriteQuorum   bool `env:"ENFORCE_WRITE_QUORUM"`
	QuorumPollIntervalMs int  `env:"QUORUM_POLL_INTERVAL_MS"`
	QuorumTimeoutMs      int  `env:"QUORUM_TIMEOUT_MS"`

	// Таймауты исходящих запросов
	SyncRequestTimeoutSec int `env:"SYNC_REQUEST_TIMEOUT_SEC"` // export/sync — длинные вызовы
	ClockStatusTimeoutSec int `env:"CLOCK_STATUS_TIMEOUT_SEC"` // короткий таймаут для опроса clock_status
	FetchTimeoutSec       int `env:"FETCH_TIMEOUT_SEC"`

	DebounceIntervalMs int `env:"DEBOUNCE_INTERVAL_MS"` // окно схлопывания повторных /sync по одному кошельку
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{EnforceWriteQuorum: true}
	_ = env.Parse(cfg)

	// flags работают ТОЛЬКО если переменные из env не заданы
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД")
	flag.StringVar(&cfg.StorageDir, "storage", cfg.StorageDir, "каталог хранения контента")
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "адрес, на котором слушает сервер (host:port)")
	flag.StringVar(&cfg.SelfEndpoint, "self-endpoint", cfg.SelfEndpoint, "внешний URL этого узла")
	flag.StringVar(&cfg.NodeAuthSecret, "node-auth-secret", cfg.NodeAuthSecret, "секрет подписи межузловых JWT")
	flag.StringVar(&cfg.DelegateOwnerWallet, "delegate-wallet", cfg.DelegateOwnerWallet, "кошелёк-идентичность узла")
	flag.BoolVar(&cfg.EnforceWriteQuorum, "enforce-quorum", cfg.EnforceWriteQuorum, "ждать подтверждения secondary перед ответом на запись")
	flag.Parse()

	applyDefaults(cfg)
	return cfg
}

// applyDefaults выставляет значения по умолчанию для всего, что не задано.
// Вынесено отдельно, чтобы тесты могли собирать конфиг без flag.Parse.
func applyDefaults(cfg *Config) {
	// BaseURL: только "address:port" (без схемы и пути), иначе дефолт
	hostPortRe := regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:4000"
	}
	if cfg.SelfEndpoint == "" {
		cfg.SelfEndpoint = "http://" + cfg.BaseURL
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = "/var/tmp/content-node/storage"
	}
	if cfg.MaxExportClockRange <= 0 {
		cfg.MaxExportClockRange = 10000
	}
	if cfg.SyncConcurrency <= 0 {
		cfg.SyncConcurrency = 10
	}
	if cfg.SyncQueueSize <= 0 {
		cfg.SyncQueueSize = 256
	}
	if cfg.SkipThreshold <= 0 {
		cfg.SkipThreshold = 10
	}
	if cfg.QuorumPollIntervalMs <= 0 {
		cfg.QuorumPollIntervalMs = 500
	}
	if cfg.QuorumTimeoutMs <= 0 {
		cfg.QuorumTimeoutMs = 45000
	}
	if cfg.SyncRequestTimeoutSec <= 0 {
		cfg.SyncRequestTimeoutSec = 300
	}
	if cfg.ClockStatusTimeoutSec <= 0 {
		cfg.ClockStatusTimeoutSec = 2
	}
	if cfg.FetchTimeoutSec <= 0 {
		cfg.FetchTimeoutSec = 45
	}
	if cfg.DebounceIntervalMs <= 0 {
		cfg.DebounceIntervalMs = 3000
	}
}

// NewTestConfig — конфиг с дефолтами, без чтения env и флагов (для тестов).
func NewTestConfig() *Config {
	cfg := &Config{EnforceWriteQuorum: true}
	applyDefaults(cfg)
	return cfg
}

// Удобные обёртки над числовыми полями конфигурации.

func (c *Config) QuorumPollInterval() time.Duration {
	return time.Duration(c.QuorumPollIntervalMs) * time.Millisecond
}

func (c *Config) QuorumTimeout() time.Duration {
	return time.Duration(c.QuorumTimeoutMs) * time.Millisecond
}

func (c *Config) SyncRequestTimeout() time.Duration {
	return time.Duration(c.SyncRequestTimeoutSec) * time.Second
}

func (c *Config) ClockStatusTimeout() time.Duration {
	return time.Duration(c.ClockStatusTimeoutSec) * time.Second
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

func (c *Config) DebounceInterval() time.Duration {
	return time.Duration(c.DebounceIntervalMs) * time.Millisecond
}
