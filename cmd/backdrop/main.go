// Command backdrop shows a borderless desktop overlay with a clock and the
// current weather, drawn straight onto a Wayland surface.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/phsym/console-slog"
	"github.com/spf13/cobra"

	"github.com/backdrop-wl/backdrop/internal/session"
)

const apiKeyEnv = "OPENWEATHERMAP_API_KEY"

func main() {
	// Missing .env is fine; the API key can also come from the flag.
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		location string
		apiKey   string
		interval int
		metric   bool
		iconDir  string
		debug    bool
	)

	cmd := &cobra.Command{
		Use:           "backdrop",
		Short:         "Desktop overlay showing a clock and the current weather",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(debug)

			if interval < 1 {
				err := fmt.Errorf("weather update interval must be at least 1 minute, got %d", interval)
				log.Error("invalid flags", "error", err)
				return err
			}
			if apiKey == "" {
				apiKey = os.Getenv(apiKeyEnv)
			}
			if metric {
				log.Info("reporting temperature in celsius")
			}

			sess, err := session.New(session.Config{
				Location: location,
				APIKey:   apiKey,
				Metric:   metric,
				IconDir:  iconDir,
				Interval: time.Duration(interval) * time.Minute,
			}, log)
			if err != nil {
				if isGracefulClose(err) {
					log.Info("window closed during startup")
					return nil
				}
				log.Error("session setup failed", "error", err)
				return err
			}
			if err := sess.Run(); err != nil {
				log.Error("session ended", "error", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&location, "location", "l", "", "location for weather reports")
	cmd.Flags().StringVarP(&apiKey, "apikey", "k", "", "OpenWeatherMap API key (falls back to "+apiKeyEnv+")")
	cmd.Flags().IntVarP(&interval, "interval", "i", 15, "minutes between weather updates")
	cmd.Flags().BoolVarP(&metric, "metric", "m", false, "report temperature in celsius")
	cmd.Flags().StringVar(&iconDir, "icon-dir", "weather-icons", "directory for cached weather icons")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")

	return cmd
}

// isGracefulClose reports whether err is a compositor close request, which
// ends the program successfully rather than with a failure exit.
func isGracefulClose(err error) bool {
	return errors.Is(err, session.ErrClosed)
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	log := slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	return log
}
