package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if c == nil {
		return fmt.Errorf("nil config")
	}
	if strings.TrimSpace(c.Exchange.APIKey) == "" || strings.TrimSpace(c.Exchange.APISecret) == "" {
		return fmt.Errorf("exchange.api_key and exchange.api_secret are required")
	}
	if strings.TrimSpace(c.Oracle.APIKey) == "" {
		return fmt.Errorf("oracle.api_key is required")
	}
	for i, tf := range c.Trading.Timeframes {
		if strings.TrimSpace(tf.Interval) == "" {
			return fmt.Errorf("trading.timeframes[%d].interval is required", i)
		}
		if tf.Limit <= 0 {
			return fmt.Errorf("trading.timeframes[%d].limit must be > 0", i)
		}
	}
	if c.News.Enabled && strings.TrimSpace(c.News.APIKey) == "" {
		return fmt.Errorf("news.api_key is required when news is enabled")
	}
	if c.Notify.Telegram.Enabled {
		if strings.TrimSpace(c.Notify.Telegram.BotToken) == "" || strings.TrimSpace(c.Notify.Telegram.ChatID) == "" {
			return fmt.Errorf("notify.telegram requires bot_token and chat_id when enabled")
		}
	}
	return nil
}
