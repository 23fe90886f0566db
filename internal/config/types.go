package config

// Config is the top-level configuration tree for tradepilot.
type Config struct {
	App       AppConfig       `toml:"app"`
	Exchange  ExchangeConfig  `toml:"exchange"`
	Trading   TradingConfig   `toml:"trading"`
	Oracle    OracleConfig    `toml:"oracle"`
	News      NewsConfig      `toml:"news"`
	Store     StoreConfig     `toml:"store"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Notify    NotifyConfig    `toml:"notify"`
}

type AppConfig struct {
	Env            string `toml:"env"`
	LogLevel       string `toml:"log_level"`
	LogPath        string `toml:"log_path"`
	HTTPAddr       string `toml:"http_addr"`
	OracleDump     bool   `toml:"oracle_dump"`
	OracleDumpPath string `toml:"oracle_dump_path"`
}

type ExchangeConfig struct {
	APIKey         string `toml:"api_key"`
	APISecret      string `toml:"api_secret"`
	RESTBaseURL    string `toml:"rest_base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// TimeframeConfig names one OHLCV window fed into the market snapshot.
type TimeframeConfig struct {
	Interval string `toml:"interval"`
	Limit    int    `toml:"limit"`
}

type TradingConfig struct {
	Symbol         string            `toml:"symbol"`
	MinNotionalUSD float64           `toml:"min_notional_usd"`
	Timeframes     []TimeframeConfig `toml:"timeframes"`
	HistoryLimit   int               `toml:"history_limit"`
}

type OracleConfig struct {
	APIURL         string `toml:"api_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxRetries     int    `toml:"max_retries"`
}

type NewsConfig struct {
	Enabled        bool   `toml:"enabled"`
	APIKey         string `toml:"api_key"`
	Query          string `toml:"query"`
	Limit          int    `toml:"limit"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

// SchedulerConfig holds the three loop delays. Parse failures wait longer
// than transient exchange errors.
type SchedulerConfig struct {
	NormalDelaySeconds  int `toml:"normal_delay_seconds"`
	ErrorBackoffSeconds int `toml:"error_backoff_seconds"`
	ParseBackoffSeconds int `toml:"parse_backoff_seconds"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}
