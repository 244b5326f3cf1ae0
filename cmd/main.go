package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"shib-price-bot/config"
	"shib-price-bot/internal/bitso"
	"shib-price-bot/internal/cache"
	"shib-price-bot/internal/commands"
	"shib-price-bot/internal/database"
	"shib-price-bot/internal/price"
	"shib-price-bot/internal/strategy"
	"shib-price-bot/internal/telegram"
	"shib-price-bot/lib/translation"
	"strconv"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const commandTimeout = 30 * time.Second

type BotMetrics struct {
	CommandsProcessed  prometheus.Counter
	CommandsFailed     *prometheus.CounterVec
	MessagesHandled    prometheus.Counter
	ChannelsCount      prometheus.Gauge
	ChannelNames       *prometheus.CounterVec
	ChannelsSet        map[int64]string
	MessagesPerChannel *prometheus.CounterVec
	Mutex              sync.Mutex
}

var (
	metrics = NewBotMetrics()
)

func init() {
	config.InitConfig()
	setupLogging()
}

func NewBotMetrics() *BotMetrics {
	metrics := &BotMetrics{
		CommandsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shib_bot",
			Subsystem: "telegram",
			Name:      "commands_processed",
			Help:      "The total number of processed commands",
		}),
		CommandsFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shib_bot",
				Subsystem: "telegram",
				Name:      "commands_failed",
				Help:      "Commands whose reply could not be delivered",
			},
			[]string{"command"},
		),
		MessagesHandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shib_bot",
			Subsystem: "telegram",
			Name:      "messages_handled",
			Help:      "The total number of handled messages",
		}),
		ChannelsCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shib_bot",
			Subsystem: "telegram",
			Name:      "channels_count",
			Help:      "The current number of unique channels the bot is operating in",
		}),
		ChannelNames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shib_bot",
				Subsystem: "telegram",
				Name:      "channel_names",
				Help:      "Tracks channels the bot has interacted with",
			},
			[]string{"chat_id", "chat_name"},
		),
		MessagesPerChannel: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shib_bot",
				Subsystem: "telegram",
				Name:      "messages_per_channel",
				Help:      "The total number of messages handled per channel",
			},
			[]string{"chat_id", "chat_name"},
		),
		ChannelsSet: make(map[int64]string),
	}

	prometheus.MustRegister(metrics.CommandsProcessed)
	prometheus.MustRegister(metrics.CommandsFailed)
	prometheus.MustRegister(metrics.MessagesHandled)
	prometheus.MustRegister(metrics.ChannelsCount)
	prometheus.MustRegister(metrics.ChannelNames)
	prometheus.MustRegister(metrics.MessagesPerChannel)

	return metrics
}

func main() {
	translation.Configure("locales", config.GetString("lang"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	persistMetrics := config.GetString("db_path") != ""
	if persistMetrics {
		if err := database.InitDB(config.GetString("db_path")); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer database.CloseDB()
		LoadMetricsFromDB()
	}

	quotes := price.NewService(
		newFetcher(ctx),
		price.NewHistory(config.GetInt("history_size")),
		price.Books{
			Token:  config.GetString("token_book"),
			FX:     config.GetString("fx_book"),
			Direct: config.GetString("direct_book"),
		},
	)
	if interval := config.GetDuration("sample_interval"); interval > 0 {
		quotes.StartSampler(ctx, interval)
	}

	cmds := commands.New(commands.Config{
		Quotes:     quotes,
		Thresholds: loadThresholds(),
		Symbols: commands.Symbols{
			Token: config.GetString("token_symbol"),
			Fiat:  config.GetString("fiat_symbol"),
		},
		Reference: commands.NewPaprikaSource(config.GetString("api_pro_key")),
		CoinID:    config.GetString("paprika_coin_id"),
	})

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:          config.GetString("telegram_bot_token"),
		Debug:          config.GetBool("debug"),
		UpdatesTimeout: 60,
		Mode:           config.GetString("mode"),
		WebhookURL:     config.GetString("webhook_url"),
		WebhookPath:    config.GetString("webhook_path"),
	}, cmds)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	updates, err := bot.GetUpdatesChannel()
	if err != nil {
		log.Fatalf("Failed to get updates channel: %v", err)
	}

	go handleUpdates(ctx, bot, updates)

	if persistMetrics {
		go func() {
			for {
				time.Sleep(5 * time.Minute)
				SaveMetricsToDB()
			}
		}()
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		cancel()
		if persistMetrics {
			SaveMetricsToDB()
			log.Info("Metrics saved, shutting down...")
		}
		os.Exit(0)
	}()

	metricsPort := config.GetInt("metrics_port")
	if bot.Config.Mode == telegram.ModeWebhook {
		if webhookPort := config.GetInt("webhook_port"); webhookPort != metricsPort {
			go func() {
				log.Infof("Launching webhook endpoint on :%d", webhookPort)
				if err := http.ListenAndServe(fmt.Sprintf(":%d", webhookPort), http.DefaultServeMux); err != nil {
					log.Fatalf("Webhook server failed: %v", err)
				}
			}()
		}
	}

	if err := launchMetricsAndHealthServer(metricsPort); err != nil {
		log.Fatalf("Failed to start metrics and health server: %v", err)
	}
}

func setupLogging() {
	log.SetLevel(log.ErrorLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	if logFile := config.GetString("log_file"); logFile != "" {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}))
		log.SetFormatter(&log.JSONFormatter{})
	}
	log.Debug("Starting telegram bot...")
}

// newFetcher builds the Bitso client, wrapped in a ticker cache when
// cache_ttl is set. Redis is used when redis_addr is configured and reachable.
func newFetcher(ctx context.Context) price.Fetcher {
	client := bitso.NewClient(bitso.Config{
		BaseURL: config.GetString("bitso_base_url"),
		Timeout: config.GetDuration("fetch_timeout"),
		Retry: bitso.RetryPolicy{
			MaxAttempts: config.GetInt("fetch_max_attempts"),
			Backoff:     config.GetDuration("fetch_backoff"),
		},
	})

	ttl := config.GetDuration("cache_ttl")
	if ttl <= 0 {
		return client
	}

	var store cache.Store = cache.NewMemoryStore()
	if addr := config.GetString("redis_addr"); addr != "" {
		redisStore := cache.NewRedisStore(addr, config.GetString("redis_password"), config.GetInt("redis_db"))
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := redisStore.Ping(pingCtx); err != nil {
			log.Errorf("Redis at %s unreachable, caching tickers in memory: %v", addr, err)
		} else {
			store = redisStore
		}
	}
	return cache.NewFetcher(client, store, ttl)
}

func loadThresholds() strategy.Thresholds {
	th := strategy.DefaultThresholds()

	floats := map[string]*float64{
		"strategy.buy_ema_factor":   &th.BuyEMAFactor,
		"strategy.buy_ma_factor":    &th.BuyMAFactor,
		"strategy.min_volume":       &th.MinVolume,
		"strategy.sell_ema_factor":  &th.SellEMAFactor,
		"strategy.sell_ma_factor":   &th.SellMAFactor,
		"strategy.buy_stop_loss":    &th.BuyStopLoss,
		"strategy.buy_take_profit":  &th.BuyTakeProfit,
		"strategy.sell_stop_loss":   &th.SellStopLoss,
		"strategy.sell_take_profit": &th.SellTakeProfit,
	}
	for key, field := range floats {
		if config.IsSet(key) {
			*field = config.GetFloat64(key)
		}
	}

	ints := map[string]*int{
		"strategy.short_window": &th.ShortWindow,
		"strategy.long_window":  &th.LongWindow,
		"strategy.ema_window":   &th.EMAWindow,
		"strategy.min_samples":  &th.MinSamples,
	}
	for key, field := range ints {
		if config.IsSet(key) {
			*field = config.GetInt(key)
		}
	}

	log.Debugf("strategy thresholds: %+v", th)
	return th
}

func handleUpdates(ctx context.Context, bot *telegram.Bot, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if update.Message == nil {
			log.Debug("Received non-message update")
			continue
		}

		if !update.Message.IsCommand() {
			continue
		}

		metrics.MessagesHandled.Inc()

		chatID := update.Message.Chat.ID
		chatName := update.Message.Chat.Title
		if chatName == "" {
			chatName = fmt.Sprintf("%s-%d", "PrivateChat", chatID)
		}

		updateChannelsSet(chatID, chatName)

		metrics.MessagesPerChannel.WithLabelValues(
			fmt.Sprintf("%d", chatID), chatName,
		).Inc()

		go handleCommand(ctx, bot, update)
	}
}

func handleCommand(ctx context.Context, bot *telegram.Bot, update tgbotapi.Update) {
	logger := log.WithFields(log.Fields{
		"request_id": uuid.NewString(),
		"command":    update.Message.Command(),
		"chat_id":    update.Message.Chat.ID,
	})

	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			logger.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	start := time.Now()
	text := bot.HandleUpdate(ctx, update)
	if text == "" {
		metrics.CommandsProcessed.Inc()
		return
	}

	err := bot.SendMessage(telegram.Message{
		ChatID:    update.Message.Chat.ID,
		Text:      text,
		MessageID: update.Message.MessageID,
	})

	if err != nil {
		metrics.CommandsFailed.WithLabelValues(update.Message.Command()).Inc()
		logger.Errorf("Failed to send message: %v", err)
	} else {
		metrics.CommandsProcessed.Inc()
		logger.Debugf("Replied in %s", time.Since(start))
	}
}

func updateChannelsSet(chatID int64, chatName string) {
	metrics.Mutex.Lock()
	defer metrics.Mutex.Unlock()

	if _, exists := metrics.ChannelsSet[chatID]; !exists {
		metrics.ChannelsSet[chatID] = chatName
		metrics.ChannelsCount.Set(float64(len(metrics.ChannelsSet)))

		metrics.ChannelNames.WithLabelValues(fmt.Sprintf("%d", chatID), chatName).Inc()
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchMetricsAndHealthServer(port int) error {
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", healthCheckHandler)

	log.Infof("Launching metrics and health endpoint on :%d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), http.DefaultServeMux)
}

func LoadMetricsFromDB() {
	metrics.Mutex.Lock()
	defer metrics.Mutex.Unlock()

	commandsProcessed, _ := database.GetMetric("commands_processed")
	messagesHandled, _ := database.GetMetric("messages_handled")

	metrics.CommandsProcessed.Add(commandsProcessed)
	metrics.MessagesHandled.Add(messagesHandled)

	loadLabeledMetrics("channel_names", func(chatIDStr, chatName string, _ float64) {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			log.Errorf("Failed to parse chatID %s: %v", chatIDStr, err)
			return
		}
		metrics.ChannelNames.WithLabelValues(chatIDStr, chatName).Add(1)
		metrics.ChannelsSet[chatID] = chatName
	})
	metrics.ChannelsCount.Set(float64(len(metrics.ChannelsSet)))

	loadLabeledMetrics("messages_per_channel", func(chatID, chatName string, value float64) {
		metrics.MessagesPerChannel.WithLabelValues(chatID, chatName).Add(value)
	})

	log.Info("Metrics loaded from database.")
}

func loadLabeledMetrics(metricName string, callback func(labelKey, labelValue string, value float64)) {
	metricsWithLabels, err := database.GetMetricsWithLabels(metricName)
	if err != nil {
		log.Errorf("Failed to load %s: %v", metricName, err)
		return
	}
	for labelKey, labelValues := range metricsWithLabels {
		for labelValue, value := range labelValues {
			callback(labelKey, labelValue, value)
		}
	}
}

func SaveMetricsToDB() {
	metrics.Mutex.Lock()
	defer metrics.Mutex.Unlock()

	saveOrLog(database.SaveMetric("commands_processed", GetMetricValue(metrics.CommandsProcessed)))
	saveOrLog(database.SaveMetric("messages_handled", GetMetricValue(metrics.MessagesHandled)))
	saveOrLog(database.SaveMetric("channels_count", float64(len(metrics.ChannelsSet))))

	for chatID, chatName := range metrics.ChannelsSet {
		saveOrLog(database.SaveMetricWithLabels("channel_names", fmt.Sprintf("%d", chatID), chatName, float64(chatID)))
	}

	metricChan := make(chan prometheus.Metric, 1)
	go func() {
		metrics.MessagesPerChannel.Collect(metricChan)
		close(metricChan)
	}()

	for metric := range metricChan {
		metricProto := &dto.Metric{}
		if err := metric.Write(metricProto); err != nil {
			log.Errorf("Failed to read MessagesPerChannel metric: %v", err)
			continue
		}
		var chatID, chatName string
		for _, label := range metricProto.Label {
			if label.GetName() == "chat_id" {
				chatID = label.GetValue()
			}
			if label.GetName() == "chat_name" {
				chatName = label.GetValue()
			}
		}
		saveOrLog(database.SaveMetricWithLabels("messages_per_channel", chatID, chatName, metricProto.Counter.GetValue()))
	}

	log.Info("Metrics saved to database.")
}

func saveOrLog(err error) {
	if err != nil {
		log.Error(err)
	}
}

func GetMetricValue(metric prometheus.Collector) float64 {
	var metricValue float64
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Errorf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		metricValue = metricProto.Counter.GetValue()
	} else if metricProto.Gauge != nil {
		metricValue = metricProto.Gauge.GetValue()
	}
	return metricValue
}
