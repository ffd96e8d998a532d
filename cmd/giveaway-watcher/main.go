// ABOUTME: Entry point for giveaway-watcher
// ABOUTME: Loads config and credentials, then runs sessions alongside the liveness server

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/2389/giveaway-watcher/internal/config"
	"github.com/2389/giveaway-watcher/internal/credentials"
	"github.com/2389/giveaway-watcher/internal/gateway"
	"github.com/2389/giveaway-watcher/internal/health"
	"github.com/2389/giveaway-watcher/internal/interaction"
	"github.com/2389/giveaway-watcher/internal/orchestrator"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
       _                                                  _       _
  __ _(_)_   _____  __ ___      ____ _ _   _    __      _| |_ ___| |__
 / _' | \ \ / / _ \/ _' \ \ /\ / / _' | | | |___\ \ /\ / / __/ __| '_ \
| (_| | |\ V /  __/ (_| |\ V  V / (_| | |_| |____\ V  V /| || (__| | | |
 \__, |_| \_/ \___|\__,_| \_/\_/ \__,_|\__, |     \_/\_/  \__\___|_| |_|
 |___/                                 |___/
`

const usage = `Usage: giveaway-watcher [command] [flags]

Commands:
  run      Start all sessions and the liveness server (default)
  health   Check a running watcher's health endpoint
  status   Show how many sessions are logged in

Flags:
`

func main() {
	// Values already in the environment win over .env.
	_ = godotenv.Load()

	cmd := "run"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	flags := pflag.NewFlagSet("giveaway-watcher", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "config file (default $"+config.PathEnv+" or "+config.DefaultPath+")")
	port := flags.IntP("port", "p", 0, "liveness port (overrides config and $"+config.PortEnv+")")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	path := config.ResolvePath(*configPath)
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Health.Port = *port
	}

	switch cmd {
	case "run":
		err = runWatcher(ctx, cfg, path)
	case "health":
		err = probe(ctx, cfg, "/health")
	case "status":
		err = probe(ctx, cfg, "/health/ready")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		flags.Usage()
		os.Exit(1)
	}

	if errors.Is(err, credentials.ErrTokenFileCreated) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWatcher(ctx context.Context, cfg *config.Config, configPath string) error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	logger := setupLogger(cfg.Logging, os.Stdout)

	tokens, err := credentials.Source{
		EnvVar:    cfg.Credentials.Env,
		File:      cfg.Credentials.File,
		MinLength: cfg.Sessions.MinTokenLength,
	}.Load()
	if errors.Is(err, credentials.ErrTokenFileCreated) {
		yellow := color.New(color.FgYellow)
		yellow.Printf("    No %s variable and no %s file found.\n", cfg.Credentials.Env, cfg.Credentials.File)
		fmt.Printf("    Created an empty %s. Paste one token per line, or set %s, then start again.\n",
			cfg.Credentials.File, cfg.Credentials.Env)
		return err
	}
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Tokens:    %d from %s\n", len(tokens.Values), tokens.Origin)
	green.Print("    ▶ ")
	fmt.Printf("Liveness:  %s\n", cfg.Health.Address())
	green.Print("    ▶ ")
	fmt.Printf("Starting:  in %s, %s apart\n", cfg.Sessions.StartDelay, cfg.Sessions.Stagger)
	fmt.Println()

	client := interaction.NewClient(cfg.Gateway.APIBase, cfg.Gateway.UserAgent)
	dispatcher, err := interaction.NewDispatcher(interaction.DispatcherConfig{
		Submitter: client,
		MinDelay:  cfg.Sessions.DispatchMinDelay,
		MaxDelay:  cfg.Sessions.DispatchMaxDelay,
		NodeID:    int64(os.Getpid() % 1024),
	})
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}

	orch := orchestrator.New(orchestrator.Config{
		StartDelay: cfg.Sessions.StartDelay,
		Stagger:    cfg.Sessions.Stagger,
		Gateway: gateway.Config{
			URL: cfg.Gateway.URL,
			Properties: gateway.IdentifyProperties{
				OS:      cfg.Gateway.OS,
				Browser: cfg.Gateway.Browser,
				Device:  cfg.Gateway.Device,
			},
			Intents:             cfg.Gateway.Intents,
			HeartbeatAckTimeout: cfg.Sessions.HeartbeatAckTimeout,
			StopOnAuthFailure:   cfg.Sessions.StopOnAuthFailure,
			Dialer: &websocket.Dialer{
				Proxy:            http.ProxyFromEnvironment,
				HandshakeTimeout: 30 * time.Second,
			},
		},
		Dispatcher: dispatcher,
	}, tokens.Values, logger)

	srv := health.New(cfg.Health.Address(), orch, logger.With("component", "health"))

	logger.Info("starting giveaway-watcher", "version", version, "sessions", len(tokens.Values))

	// A liveness server that cannot listen takes the sessions down with it.
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	errCh := make(chan error, 1)
	go func() {
		err := srv.Run(ctx)
		if err != nil {
			stop()
		}
		errCh <- err
	}()

	orchErr := orch.Run(ctx)
	if err := <-errCh; err != nil {
		return err
	}
	return orchErr
}

// probe queries a running watcher's liveness server and prints the body.
func probe(ctx context.Context, cfg *config.Config, path string) error {
	host := cfg.Health.Addr
	if host == "" {
		host = "127.0.0.1"
	}
	url := "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Health.Port)) + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	fmt.Println(string(body))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
