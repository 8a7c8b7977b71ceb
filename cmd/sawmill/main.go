// Command sawmill forwards lines read from stdin through the configured
// logging pipeline. Configuration comes from SAWMILL_-prefixed environment
// variables, optionally seeded from a .env file.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/crimson-sun/sawmill/internal/config"
	"github.com/crimson-sun/sawmill/pkg/sawmill"
)

const closeTimeout = 10 * time.Second

func main() {
	// A missing .env file is fine; the environment may carry everything.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if !cfg.Console && cfg.File == nil && cfg.Slack == nil {
		// No sinks configured at all would silently drop everything.
		cfg.Console = true
	}

	logger, err := sawmill.New(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "sawmill: forwarding stdin (service=%s env=%s)\n", cfg.Service, cfg.Env)
	forward(ctx, logger, os.Stdin)

	closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := logger.Close(closeCtx); err != nil {
		log.Fatalf("failed to close logger: %v", err)
	}
}

// forward reads r line by line until EOF or cancellation, routing each
// line to a severity by its leading tag.
func forward(ctx context.Context, logger *sawmill.Logger, r io.Reader) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "\nsawmill: shutting down...")
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			dispatch(ctx, logger, line)
		}
	}
}

func dispatch(ctx context.Context, logger *sawmill.Logger, line string) {
	switch tag, rest := splitTag(line); tag {
	case "DEBUG":
		logger.Debug(ctx, rest)
	case "WARN", "WARNING":
		logger.Warning(ctx, rest)
	case "ERROR", "FATAL":
		logger.Error(ctx, rest)
	default:
		logger.Info(ctx, line)
	}
}

// splitTag peels a leading severity tag like "ERROR:" or "[warn]" off a line.
func splitTag(line string) (string, string) {
	fields := strings.SplitN(strings.TrimSpace(line), " ", 2)
	if len(fields) == 0 {
		return "", line
	}
	tag := strings.ToUpper(strings.Trim(fields[0], "[]:"))
	rest := ""
	if len(fields) == 2 {
		rest = fields[1]
	}
	return tag, rest
}
