package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/watchparty/internal/app"
	"github.com/sharetube/watchparty/internal/search"
	"github.com/sharetube/watchparty/internal/suggestion"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

var (
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8080,
		usage:        "Server port",
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
		usage:        "Server host",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
		usage:        "Logging level",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "",
		usage:        "Redis host, empty disables the search cache",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
		usage:        "Redis port",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
		usage:        "Redis password",
	}
	searchCacheTTL = configVar[time.Duration]{
		envKey:       "SEARCH_CACHE_TTL",
		flagKey:      "search-cache-ttl",
		defaultValue: 10 * time.Minute,
		usage:        "How long search results stay cached",
	}
	youtubeAPIKey = configVar[string]{
		envKey:       "YOUTUBE_API_KEY",
		flagKey:      "youtube-api-key",
		defaultValue: "",
		usage:        "YouTube Data API key",
	}
	youtubeAPIURL = configVar[string]{
		envKey:       "YOUTUBE_API_URL",
		flagKey:      "youtube-api-url",
		defaultValue: search.DefaultYouTubeURL,
		usage:        "YouTube Data API base url",
	}
	dailymotionAPIURL = configVar[string]{
		envKey:       "DAILYMOTION_API_URL",
		flagKey:      "dailymotion-api-url",
		defaultValue: search.DefaultDailymotionURL,
		usage:        "Dailymotion API base url",
	}
	geminiAPIKey = configVar[string]{
		envKey:       "GEMINI_API_KEY",
		flagKey:      "gemini-api-key",
		defaultValue: "",
		usage:        "Gemini API key, empty disables suggestions",
	}
	geminiModel = configVar[string]{
		envKey:       "GEMINI_MODEL",
		flagKey:      "gemini-model",
		defaultValue: suggestion.DefaultGeminiModel,
		usage:        "Gemini model",
	}
	geminiAPIURL = configVar[string]{
		envKey:       "GEMINI_API_URL",
		flagKey:      "gemini-api-url",
		defaultValue: suggestion.DefaultGeminiURL,
		usage:        "Gemini API base url",
	}
	suggestionTimeout = configVar[time.Duration]{
		envKey:       "SUGGESTION_TIMEOUT",
		flagKey:      "suggestion-timeout",
		defaultValue: 15 * time.Second,
		usage:        "Upper bound on one suggestion request",
	}
)

func bind[T any](v configVar[T]) {
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func loadAppConfig() *app.AppConfig {
	pflag.Int(port.flagKey, port.defaultValue, port.usage)
	pflag.String(host.flagKey, host.defaultValue, host.usage)
	pflag.String(logLevel.flagKey, logLevel.defaultValue, logLevel.usage)
	pflag.String(redisHost.flagKey, redisHost.defaultValue, redisHost.usage)
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, redisPort.usage)
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, redisPassword.usage)
	pflag.Duration(searchCacheTTL.flagKey, searchCacheTTL.defaultValue, searchCacheTTL.usage)
	pflag.String(youtubeAPIKey.flagKey, youtubeAPIKey.defaultValue, youtubeAPIKey.usage)
	pflag.String(youtubeAPIURL.flagKey, youtubeAPIURL.defaultValue, youtubeAPIURL.usage)
	pflag.String(dailymotionAPIURL.flagKey, dailymotionAPIURL.defaultValue, dailymotionAPIURL.usage)
	pflag.String(geminiAPIKey.flagKey, geminiAPIKey.defaultValue, geminiAPIKey.usage)
	pflag.String(geminiModel.flagKey, geminiModel.defaultValue, geminiModel.usage)
	pflag.String(geminiAPIURL.flagKey, geminiAPIURL.defaultValue, geminiAPIURL.usage)
	pflag.Duration(suggestionTimeout.flagKey, suggestionTimeout.defaultValue, suggestionTimeout.usage)
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	bind(port)
	bind(host)
	bind(logLevel)
	bind(redisHost)
	bind(redisPort)
	bind(redisPassword)
	bind(searchCacheTTL)
	bind(youtubeAPIKey)
	bind(youtubeAPIURL)
	bind(dailymotionAPIURL)
	bind(geminiAPIKey)
	bind(geminiModel)
	bind(geminiAPIURL)
	bind(suggestionTimeout)

	return &app.AppConfig{
		Host:              viper.GetString(host.flagKey),
		Port:              viper.GetInt(port.flagKey),
		LogLevel:          viper.GetString(logLevel.flagKey),
		RedisHost:         viper.GetString(redisHost.flagKey),
		RedisPort:         viper.GetInt(redisPort.flagKey),
		RedisPassword:     viper.GetString(redisPassword.flagKey),
		SearchCacheTTL:    viper.GetDuration(searchCacheTTL.flagKey),
		YouTubeAPIKey:     viper.GetString(youtubeAPIKey.flagKey),
		YouTubeAPIURL:     viper.GetString(youtubeAPIURL.flagKey),
		DailymotionAPIURL: viper.GetString(dailymotionAPIURL.flagKey),
		GeminiAPIKey:      viper.GetString(geminiAPIKey.flagKey),
		GeminiModel:       viper.GetString(geminiModel.flagKey),
		GeminiAPIURL:      viper.GetString(geminiAPIURL.flagKey),
		SuggestionTimeout: viper.GetDuration(suggestionTimeout.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()
	if err := appConfig.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
