package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sharetube/watchparty/internal/controller"
	connInmemory "github.com/sharetube/watchparty/internal/repository/connection/inmemory"
	roomInmemory "github.com/sharetube/watchparty/internal/repository/room/inmemory"
	searchRedis "github.com/sharetube/watchparty/internal/repository/search/redis"
	"github.com/sharetube/watchparty/internal/search"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/internal/suggestion"
	"github.com/sharetube/watchparty/pkg/ctxlogger"
	"github.com/sharetube/watchparty/pkg/redisclient"
)

type AppConfig struct {
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	LogLevel          string        `json:"log_level"`
	RedisHost         string        `json:"redis_host"`
	RedisPort         int           `json:"redis_port"`
	RedisPassword     string        `json:"-"`
	SearchCacheTTL    time.Duration `json:"search_cache_ttl"`
	YouTubeAPIKey     string        `json:"-"`
	YouTubeAPIURL     string        `json:"youtube_api_url"`
	DailymotionAPIURL string        `json:"dailymotion_api_url"`
	GeminiAPIKey      string        `json:"-"`
	GeminiModel       string        `json:"gemini_model"`
	GeminiAPIURL      string        `json:"gemini_api_url"`
	SuggestionTimeout time.Duration `json:"suggestion_timeout"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	if cfg.RedisHost != "" && (cfg.RedisPort < 1 || cfg.RedisPort > 65535) {
		return fmt.Errorf("redis port must be between 1 and 65535, got %d", cfg.RedisPort)
	}
	if cfg.SearchCacheTTL < 0 {
		return errors.New("search cache ttl must not be negative")
	}
	if cfg.SuggestionTimeout <= 0 {
		return errors.New("suggestion timeout must be greater than 0")
	}

	return nil
}

type searchCache interface {
	GetPage(ctx context.Context, source search.Source, query, pageToken string) (search.Page, error)
	SetPage(ctx context.Context, source search.Source, query, pageToken string, page search.Page, ttl time.Duration) error
}

type suggestionGenerator interface {
	Generate(ctx context.Context, roomContext, relationship string) (string, error)
}

func newLogger(level string) *slog.Logger {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		logLevel = slog.LevelInfo
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h)
}

// newSearchService registers every source. With a cache, each provider is
// wrapped so repeated queries skip the upstream API.
func newSearchService(cfg *AppConfig, cache searchCache, logger *slog.Logger) *search.Service {
	providers := map[search.Source]search.Provider{
		search.SourceYouTube:     search.NewYouTube(cfg.YouTubeAPIURL, cfg.YouTubeAPIKey),
		search.SourceDailymotion: search.NewDailymotion(cfg.DailymotionAPIURL),
	}

	s := search.NewService()
	for source, provider := range providers {
		if cache != nil && cfg.SearchCacheTTL > 0 {
			provider = search.NewCachedProvider(source, provider, cache, cfg.SearchCacheTTL, logger)
		}
		s.Register(source, provider)
	}

	return s
}

// newHandler builds the http handler with everything except external
// processes wired in.
func newHandler(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (http.Handler, func(), error) {
	cleanup := func() {}

	var cache searchCache
	if cfg.RedisHost != "" {
		rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to create redis client: %w", err)
		}
		cleanup = func() { rc.Close() }
		cache = searchRedis.NewRepo(rc)
	} else {
		logger.InfoContext(ctx, "redis host not set, search cache disabled")
	}

	// left as a nil interface when disabled
	var generator suggestionGenerator
	if cfg.GeminiAPIKey != "" {
		generator = suggestion.NewGemini(cfg.GeminiAPIURL, cfg.GeminiModel, cfg.GeminiAPIKey)
	} else {
		logger.InfoContext(ctx, "gemini api key not set, suggestions disabled")
	}

	roomService := room.NewService(roomInmemory.NewRepo(), connInmemory.NewRepo(), generator, logger, &room.Config{
		SuggestionTimeout: cfg.SuggestionTimeout,
		Clock:             clock.New(),
	})
	c := controller.NewController(roomService, newSearchService(cfg, cache, logger), logger, &controller.Config{})

	return c.GetMux(), cleanup, nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logger := newLogger(cfg.LogLevel)

	handler, cleanup, err := newHandler(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: handler}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-serverCtx.Done()

	return nil
}
