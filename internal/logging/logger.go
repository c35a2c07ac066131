package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

type Options struct {
	Level           string
	Format          string
	LogstashTCPAddr string
	Service         string
	Env             string
}

// Setup builds the process logger, installs it as the slog default and
// routes the standard log package through it. The returned closer flushes
// and closes the Logstash connection when one was configured.
func Setup(opts Options) (*slog.Logger, io.Closer) {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if opts.LogstashTCPAddr != "" {
		ls, err := NewLogstashWriter(opts.LogstashTCPAddr)
		if err != nil {
			log.Printf("logstash disabled: %v", err)
		} else {
			out = io.MultiWriter(os.Stdout, ls)
			closer = ls
		}
	}

	logger := New(out, opts)
	slog.SetDefault(logger)
	return logger, closer
}

// New returns a logger writing to out with the configured level and format.
func New(out io.Writer, opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		handler = slog.NewTextHandler(out, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}

	logger := slog.New(handler)
	if opts.Service != "" {
		logger = logger.With("service", opts.Service)
	}
	if opts.Env != "" {
		logger = logger.With("env", opts.Env)
	}
	return logger
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
