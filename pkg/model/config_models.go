package model

// Config holds application settings loaded from the config file and the environment.
type Config struct {
	DatabaseType string `json:"database_type" validate:"required,oneof=sqlite postgres"`
	DatabaseDir  string `json:"database_dir" validate:"required_if=DatabaseType sqlite"`
	DatabaseFile string `json:"database_file" validate:"required_if=DatabaseType sqlite"`
	DatabaseDSN  string `json:"database_dsn,omitempty" validate:"required_if=DatabaseType postgres"`

	LogFolder  string `json:"log_folder" validate:"required"`
	CommandLog string `json:"command_log" validate:"required"`
	ErrorLog   string `json:"error_log" validate:"required"`
	InfoLog    string `json:"info_log" validate:"required"`
	LogLevel   string `json:"log_level" validate:"omitempty,oneof=command error warn info debug"`

	HTTPAddr      string   `json:"http_addr" validate:"required"`
	MetricsAddr   string   `json:"metrics_addr,omitempty"`
	CORSOrigins   []string `json:"cors_origins"`
	JWTSecret     string   `json:"jwt_secret,omitempty" validate:"required_without=JWKSURL"`
	JWTTTLMinutes int      `json:"jwt_ttl_minutes" validate:"gte=1"`
	JWKSURL       string   `json:"jwks_url,omitempty" validate:"omitempty,url"`

	SnapshotBackend  string `json:"snapshot_backend" validate:"required,oneof=sqlite redis"`
	RedisURL         string `json:"redis_url,omitempty" validate:"required_if=SnapshotBackend redis"`
	SnapshotTTLHours int    `json:"snapshot_ttl_hours" validate:"gte=0"`

	OpenAIAPIKey  string  `json:"openai_api_key,omitempty"`
	OpenAIModel   string  `json:"openai_model" validate:"required"`
	OpenAIBaseURL string  `json:"openai_base_url,omitempty" validate:"omitempty,url"`
	LLMRateLimit  float64 `json:"llm_rate_limit" validate:"gte=0"`
	LLMBurst      int     `json:"llm_burst" validate:"gte=1"`

	HistoryDepth  int    `json:"history_depth" validate:"gte=1"`
	CLIConfigFile string `json:"cli_config_file"`
}
