package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"

	"github.com/sharetube/watchparty/internal/reconciler"
	"github.com/sharetube/watchparty/internal/syncclient"
	"github.com/sharetube/watchparty/pkg/ctxlogger"
)

type options struct {
	url            string
	roomId         string
	logLevel       string
	startAt        float64
	play           bool
	reportInterval time.Duration
}

func newRootCmd() *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:   "syncbot",
		Short: "Headless room member that keeps a virtual player in sync",
		Long: `syncbot joins a room as a regular member. It drives a virtual player
through the same reconciler a browser client uses and logs its position,
which makes it handy for checking drift against a running server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, &opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.url, "url", "ws://localhost:8080/api/v1/ws", "Websocket url of the server")
	flags.StringVar(&opts.roomId, "room", "", "Room to join")
	flags.StringVar(&opts.logLevel, "log-level", "INFO", "Logging level")
	flags.Float64Var(&opts.startAt, "start-at", 0, "Position to seek to before playing, with --play")
	flags.BoolVar(&opts.play, "play", false, "Start playback once joined instead of following the room")
	flags.DurationVar(&opts.reportInterval, "report-interval", 5*time.Second, "How often to log the local position")
	cmd.MarkFlagRequired("room")

	return cmd
}

func newLogger(level string) (*slog.Logger, error) {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	return slog.New(&ctxlogger.ContextHandler{
		Handler: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}),
	}), nil
}

func run(ctx context.Context, opts *options) error {
	logger, err := newLogger(opts.logLevel)
	if err != nil {
		return err
	}

	client, err := syncclient.Dial(ctx, opts.url, opts.roomId, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	logger = logger.With("room_id", opts.roomId, "member_id", client.MemberId())
	if err := client.Join(); err != nil {
		return fmt.Errorf("failed to join: %w", err)
	}

	clk := clock.New()
	player := reconciler.NewVirtualPlayer(clk)
	rec := reconciler.New(player, client, logger, &reconciler.Config{Clock: clk})

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- client.Listen(ctx, rec)
	}()
	go rec.Run(ctx)

	player.Load()
	if opts.play {
		rec.HandleLocalSeek(opts.startAt)
		if err := player.SeekTo(opts.startAt); err != nil {
			return err
		}
		if err := player.Play(); err != nil {
			return err
		}
	}

	ticker := clk.Ticker(opts.reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			client.Leave()
			return nil
		case err := <-listenErr:
			if ctx.Err() != nil {
				return nil
			}
			return err
		case <-ticker.C:
			position, _ := player.CurrentTime()
			logger.Info("position", "seconds", position, "state", player.State().String())
		}
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
