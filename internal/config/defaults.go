package config

import "strings"

// Defaults mirror the settings the agent has always traded with: BTCUSDT,
// one-minute loop cadence, 15m/1h/4h snapshot windows covering roughly one,
// two and five days of history.
func (c *Config) applyDefaults() {
	if c == nil {
		return
	}
	if strings.TrimSpace(c.App.Env) == "" {
		c.App.Env = "prod"
	}
	if strings.TrimSpace(c.App.LogLevel) == "" {
		c.App.LogLevel = "info"
	}
	if strings.TrimSpace(c.App.HTTPAddr) == "" {
		c.App.HTTPAddr = ":9980"
	}
	if c.App.OracleDump && strings.TrimSpace(c.App.OracleDumpPath) == "" {
		c.App.OracleDumpPath = "logs/oracle.log"
	}

	if strings.TrimSpace(c.Exchange.RESTBaseURL) == "" {
		c.Exchange.RESTBaseURL = "https://fapi.binance.com"
	}
	if c.Exchange.TimeoutSeconds <= 0 {
		c.Exchange.TimeoutSeconds = 10
	}

	if strings.TrimSpace(c.Trading.Symbol) == "" {
		c.Trading.Symbol = "BTCUSDT"
	}
	if c.Trading.MinNotionalUSD <= 0 {
		c.Trading.MinNotionalUSD = 100
	}
	if len(c.Trading.Timeframes) == 0 {
		c.Trading.Timeframes = []TimeframeConfig{
			{Interval: "15m", Limit: 96},
			{Interval: "1h", Limit: 48},
			{Interval: "4h", Limit: 30},
		}
	}
	if c.Trading.HistoryLimit <= 0 {
		c.Trading.HistoryLimit = 10
	}

	if strings.TrimSpace(c.Oracle.APIURL) == "" {
		c.Oracle.APIURL = "https://api.openai.com/v1"
	}
	if strings.TrimSpace(c.Oracle.Model) == "" {
		c.Oracle.Model = "gpt-5-mini"
	}
	if c.Oracle.TimeoutSeconds <= 0 {
		c.Oracle.TimeoutSeconds = 120
	}
	if c.Oracle.MaxRetries <= 0 {
		c.Oracle.MaxRetries = 2
	}

	if strings.TrimSpace(c.News.Query) == "" {
		c.News.Query = "bitcoin"
	}
	if c.News.Limit <= 0 {
		c.News.Limit = 10
	}
	if c.News.TimeoutSeconds <= 0 {
		c.News.TimeoutSeconds = 10
	}

	if strings.TrimSpace(c.Store.Path) == "" {
		c.Store.Path = "data/tradepilot.db"
	}

	if c.Scheduler.NormalDelaySeconds <= 0 {
		c.Scheduler.NormalDelaySeconds = 60
	}
	if c.Scheduler.ErrorBackoffSeconds <= 0 {
		c.Scheduler.ErrorBackoffSeconds = 5
	}
	if c.Scheduler.ParseBackoffSeconds <= 0 {
		c.Scheduler.ParseBackoffSeconds = 30
	}
}
