package main

import (
	"time"

	"github.com/spf13/viper"
)

func initViperDefaults() {
	// LLM defaults shared by every narrator call.
	viper.SetDefault("llm.endpoint", "https://api.openai.com")
	viper.SetDefault("llm.model", "gpt-5.2")
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.request_timeout", 90*time.Second)
	viper.SetDefault("llm.retry_attempts", 3)
	viper.SetDefault("llm.retry_backoff", 500*time.Millisecond)

	// State
	viper.SetDefault("state_dir", "~/.lorekeeper")

	// Telegram
	viper.SetDefault("telegram.base_url", "https://api.telegram.org")
	viper.SetDefault("telegram.poll_timeout", 30*time.Second)
	viper.SetDefault("telegram.max_concurrency", 4)
	viper.SetDefault("telegram.queue_size", 16)
	viper.SetDefault("telegram.attachment_max_bytes", int64(1<<20))
	viper.SetDefault("telegram.allowed_chat_ids", []int64{})
}
