// orderwatch is a terminal view of the live order feed. It reads the
// order store directly, rings the bell on new orders and sends status
// changes through the dashboard relay.
//
// Commands on stdin:
//
//	set <row|id> <status>   e.g. "set 1 Ready" or "set -Nx3 In-Progress"
//	quit
//
// Closing stdin leaves the view running until SIGINT.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"cafedash/internal/config"
	"cafedash/internal/feed"
	"cafedash/internal/infrastructure/logger"
	"cafedash/internal/infrastructure/mysql"
	"cafedash/internal/order"
	"cafedash/internal/relayclient"
	"cafedash/internal/terminal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	relayURL string
	username string
	password string
	logLevel string
	noClear  bool
}

// parseFlags reads the command line. Credentials fall back to the
// environment only after parsing; usage output never prints them.
func parseFlags(args []string, getenv func(string) string, usage io.Writer) (options, error) {
	var opts options

	flagSet := pflag.NewFlagSet("orderwatch", pflag.ContinueOnError)
	flagSet.SetOutput(usage)
	flagSet.StringVar(&opts.relayURL, "relay", "http://localhost:8080", "dashboard base URL used for status changes")
	flagSet.StringVarP(&opts.username, "username", "u", "", "dashboard username (default $AUTH_USERNAME)")
	flagSet.StringVar(&opts.password, "password", "", "dashboard password (default $AUTH_PASSWORD)")
	flagSet.StringVar(&opts.logLevel, "log-level", "warn", "log level for messages written to stderr")
	flagSet.BoolVar(&opts.noClear, "no-clear", false, "append each render instead of redrawing the screen")
	if err := flagSet.Parse(args); err != nil {
		return opts, err
	}

	if opts.username == "" {
		opts.username = getenv("AUTH_USERNAME")
	}
	if opts.password == "" {
		opts.password = getenv("AUTH_PASSWORD")
	}
	return opts, nil
}

func run() error {
	opts, err := parseFlags(os.Args[1:], os.Getenv, os.Stderr)
	if err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	zapLogger, err := logger.New(opts.logLevel, "console")
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer zapLogger.Sync()

	var db *sql.DB
	if cfg.Store.Driver == config.StoreDriverMySQL {
		db, err = mysql.NewConnection(cfg.Database)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close()
	}

	store, err := order.NewStore(cfg, db)
	if err != nil {
		return fmt.Errorf("creating order store: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	relay, err := relayclient.New(opts.relayURL, cfg.Feed.UpdateTimeout)
	if err != nil {
		return err
	}
	if err := relay.Login(ctx, opts.username, opts.password); err != nil {
		return fmt.Errorf("logging in to %s: %w", opts.relayURL, err)
	}

	display := terminal.NewDisplay(os.Stdout, !opts.noClear)
	session := feed.NewSession(feed.SessionOptions{
		Source:        store,
		Relay:         relay,
		Alert:         feed.NewChime(terminal.NewBell(os.Stdout), cfg.Alert.SoundURL, zapLogger),
		Display:       display,
		View:          feed.NewView(cfg.Feed.Location()),
		Window:        cfg.Feed.Window,
		UpdateTimeout: cfg.Feed.UpdateTimeout,
		Logger:        zapLogger,
	})

	go readCommands(os.Stdin, session, display, stop, zapLogger)

	session.Run(ctx)
	return nil
}

func readCommands(in io.Reader, session *feed.Session, display *terminal.Display, stop func(), logger *zap.Logger) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit":
			stop()
			return
		case "set":
			if len(fields) != 3 {
				display.Notify("error", "usage: set <row|id> <status>")
				continue
			}
			if !session.RequestStatus(display.Resolve(fields[1]), fields[2]) {
				return
			}
		default:
			display.Notify("error", fmt.Sprintf("unknown command %q", fields[0]))
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("reading commands", zap.Error(err))
	}
}
