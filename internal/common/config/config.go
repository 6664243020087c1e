// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Browser       BrowserConfig           `mapstructure:"browser"`
	Automation    AutomationConfig        `mapstructure:"automation"`
	Evidence      EvidenceConfig          `mapstructure:"evidence"`
	Gates         GatesConfig             `mapstructure:"gates"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	AuditIndex string   `mapstructure:"audit_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Browser / Automation Config ---

// BrowserConfig controls the headless Chrome sessions driven per attempt.
type BrowserConfig struct {
	Headless          bool   `mapstructure:"headless"`
	ChromePath        string `mapstructure:"chrome_path"`
	NavigationTimeout int    `mapstructure:"navigation_timeout"` // milliseconds
	ActionTimeout     int    `mapstructure:"action_timeout"`     // milliseconds
}

// AutomationConfig holds the retry and timeout policy passed explicitly into
// the base adapter and orchestrator, so attempts stay reproducible.
type AutomationConfig struct {
	FieldRetries     int `mapstructure:"field_retries"`      // extra attempts per fill_field call
	FieldWaitTimeout int `mapstructure:"field_wait_timeout"` // milliseconds per attempt
	MaxFillAttempts  int `mapstructure:"max_fill_attempts"`  // orchestrator-level RETRY cap
	ValuePreviewLen  int `mapstructure:"value_preview_len"`  // audit value truncation
}

// EvidenceConfig points at the S3 bucket screenshots are pushed to.
type EvidenceConfig struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// GatesConfig holds the pre-automation gating thresholds.
type GatesConfig struct {
	MinMatchScore float64 `mapstructure:"min_match_score"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// NotificationConfig drives the manual-intervention notifier.
type NotificationConfig struct {
	Region       string `mapstructure:"region"`
	SenderEmail  string `mapstructure:"sender_email"`
	SupportEmail string `mapstructure:"support_email"`
	SNSTopicARN  string `mapstructure:"sns_topic_arn"`
	Enabled      bool   `mapstructure:"enabled"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
