package config

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"strings"
	"sync"
	"time"
)

var once sync.Once

// StrategyKeys are the heuristic thresholds that may be overridden, each read
// from the upper-cased env var with "." replaced by "_".
var StrategyKeys = []string{
	"strategy.short_window",
	"strategy.long_window",
	"strategy.ema_window",
	"strategy.min_samples",
	"strategy.buy_ema_factor",
	"strategy.buy_ma_factor",
	"strategy.min_volume",
	"strategy.sell_ema_factor",
	"strategy.sell_ma_factor",
	"strategy.buy_stop_loss",
	"strategy.buy_take_profit",
	"strategy.sell_stop_loss",
	"strategy.sell_take_profit",
}

func InitConfig() {
	once.Do(func() {
		// A missing .env is fine, the process environment still applies.
		_ = godotenv.Load()

		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN", "TOKEN_BOT")
		viper.BindEnv("api_pro_key", "API_PRO_KEY")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "BOT_LANG")
		viper.BindEnv("mode", "BOT_MODE")
		viper.BindEnv("webhook_url", "WEBHOOK_URL")
		viper.BindEnv("webhook_port", "PORT")
		viper.BindEnv("webhook_path", "WEBHOOK_PATH")
		viper.BindEnv("bitso_base_url", "BITSO_BASE_URL")
		viper.BindEnv("token_book", "TOKEN_BOOK")
		viper.BindEnv("fx_book", "FX_BOOK")
		viper.BindEnv("direct_book", "DIRECT_BOOK")
		viper.BindEnv("token_symbol", "TOKEN_SYMBOL")
		viper.BindEnv("fiat_symbol", "FIAT_SYMBOL")
		viper.BindEnv("fetch_timeout", "FETCH_TIMEOUT")
		viper.BindEnv("fetch_max_attempts", "FETCH_MAX_ATTEMPTS")
		viper.BindEnv("fetch_backoff", "FETCH_BACKOFF")
		viper.BindEnv("history_size", "HISTORY_SIZE")
		viper.BindEnv("sample_interval", "SAMPLE_INTERVAL")
		viper.BindEnv("cache_ttl", "CACHE_TTL")
		viper.BindEnv("redis_addr", "REDIS_ADDR")
		viper.BindEnv("redis_password", "REDIS_PASSWORD")
		viper.BindEnv("redis_db", "REDIS_DB")
		viper.BindEnv("db_path", "DB_PATH")
		viper.BindEnv("log_file", "LOG_FILE")
		viper.BindEnv("paprika_coin_id", "PAPRIKA_COIN_ID")
		for _, key := range StrategyKeys {
			viper.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
		}

		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "es")
		viper.SetDefault("mode", "polling")
		viper.SetDefault("webhook_port", 10000)
		viper.SetDefault("webhook_path", "/telegram")
		viper.SetDefault("bitso_base_url", "https://api.bitso.com")
		viper.SetDefault("token_book", "shib_usd")
		viper.SetDefault("fx_book", "usd_mxn")
		viper.SetDefault("direct_book", "")
		viper.SetDefault("token_symbol", "SHIB")
		viper.SetDefault("fiat_symbol", "MXN")
		viper.SetDefault("fetch_timeout", 10*time.Second)
		viper.SetDefault("fetch_max_attempts", 3)
		viper.SetDefault("fetch_backoff", 500*time.Millisecond)
		viper.SetDefault("history_size", 15)
		viper.SetDefault("sample_interval", time.Duration(0))
		viper.SetDefault("cache_ttl", time.Duration(0))
		viper.SetDefault("redis_db", 0)
		viper.SetDefault("db_path", "data/bot.db")
		viper.SetDefault("paprika_coin_id", "shib-shiba-inu")
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

func GetFloat64(key string) float64 {
	InitConfig()
	return viper.GetFloat64(key)
}

// GetDuration accepts Go duration strings ("5s") as well as plain integers,
// which viper treats as nanoseconds.
func GetDuration(key string) time.Duration {
	InitConfig()
	return viper.GetDuration(key)
}

func IsSet(key string) bool {
	InitConfig()
	return viper.IsSet(key)
}
