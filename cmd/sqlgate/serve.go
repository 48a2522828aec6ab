package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/mbellgren/sqlgate"
	"github.com/mbellgren/sqlgate/internal/resolve"
)

var (
	httpPort        int
	healthCheckPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server (stdio by default, HTTP with --http-port)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().IntVar(&httpPort, "http-port", 0, "serve MCP over streamable HTTP on this port instead of stdio")
	serveCmd.Flags().StringVar(&healthCheckPath, "health-check-path", "/healthz", "HTTP health check path (HTTP mode only)")
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	ctx := context.Background()

	config, err := loadGatewayConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(
		viper.GetString("logging.level"),
		viper.GetString("logging.format"),
		viper.GetString("logging.output"),
	)

	maybePromptPassword(logger)

	gw, err := sqlgate.New(config, logger)
	if err != nil {
		return fmt.Errorf("failed to create gateway: %w", err)
	}

	// Connectivity probe on the default target. A failure is reported
	// but not fatal: one failing target must never take the server down.
	if out := gw.Ping(ctx, sqlgate.PingInput{}); !out.OK {
		logger.Warn().Str("error", out.Error).Msg("default target ping failed")
	} else {
		logger.Info().Str("database", out.Database).Int64("elapsed_ms", out.ElapsedMS).Msg("default target reachable")
	}

	hooks := &server.Hooks{}
	hooks.AddAfterInitialize(func(ctx context.Context, id any, req *mcp.InitializeRequest, result *mcp.InitializeResult) {
		logger.Info().
			Str("client_name", req.Params.ClientInfo.Name).
			Str("client_version", req.Params.ClientInfo.Version).
			Msg("AI agent connected (MCP initialize)")
	})

	mcpServer := server.NewMCPServer("sqlgate", "1.0.0",
		server.WithToolCapabilities(true),
		server.WithHooks(hooks),
	)
	sqlgate.RegisterMCPTools(mcpServer, gw)

	if httpPort <= 0 {
		logger.Info().Msg("starting sqlgate server on stdio")
		return server.ServeStdio(mcpServer)
	}

	addr := fmt.Sprintf(":%d", httpPort)
	mux := http.NewServeMux()
	mux.HandleFunc(healthCheckPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	httpSrv := &http.Server{Addr: addr, Handler: mux}
	streamableServer := server.NewStreamableHTTPServer(mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithStateLess(true),
		server.WithStreamableHTTPServer(httpSrv),
	)
	// Start() does not register the handler when a custom *http.Server
	// is provided, so register it on the mux explicitly.
	mux.Handle("/mcp", streamableServer)

	logger.Info().Int("port", httpPort).Msg("starting sqlgate server")
	return streamableServer.Start(addr)
}

// loadGatewayConfig builds the gateway config from the viper config file.
// Target entries may be DSN strings or structured objects.
func loadGatewayConfig() (sqlgate.Config, error) {
	config := sqlgate.Config{
		DefaultKey:         viper.GetString("default_key"),
		TargetDescriptions: viper.GetStringMapString("target_descriptions"),
		BoundTable:         viper.GetString("bound_table"),
		MaxRows:            viper.GetInt("query.max_rows"),
		MaxSQLLength:       viper.GetInt("query.max_sql_length"),
	}

	raw := viper.GetStringMap("targets")
	if len(raw) == 0 {
		return config, nil
	}

	config.Targets = make(map[string]sqlgate.TargetConfig, len(raw))
	for key, v := range raw {
		spec, err := resolve.SpecFromValue(v)
		if err != nil {
			return config, fmt.Errorf("target %q: %w", key, err)
		}
		config.Targets[key] = sqlgate.TargetConfig{
			DSN:            spec.DSN,
			Type:           spec.Type,
			Host:           spec.Host,
			Port:           spec.Port,
			User:           spec.User,
			Password:       spec.Password,
			Database:       spec.Database,
			ConnectTimeout: spec.ConnectTimeout,
			Description:    spec.Description,
		}
	}
	return config, nil
}

// maybePromptPassword prompts for a password on an interactive terminal
// when the environment configures a target without one, and exports it
// through the engine's own variable so the resolver picks it up.
func maybePromptPassword(logger zerolog.Logger) {
	if os.Getenv(sqlgate.EnvTargets) != "" || os.Getenv(sqlgate.EnvTargetsFile) != "" {
		return
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return
	}

	envName := "MYSQL_PASSWORD"
	if strings.HasPrefix(strings.ToLower(os.Getenv(sqlgate.EnvEngine)), "postgres") {
		envName = "PGPASSWORD"
	}
	if os.Getenv(envName) != "" {
		return
	}

	fmt.Fprint(os.Stderr, "Password (leave empty for none): ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil || len(password) == 0 {
		return
	}
	if err := os.Setenv(envName, string(password)); err != nil {
		logger.Warn().Err(err).Msg("failed to set password in environment")
	}
}

// setupLogger builds the zerolog logger from the logging config section.
func setupLogger(levelName, format, outputName string) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(levelName) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	var output io.Writer = os.Stderr
	if outputName == "stdout" {
		output = os.Stdout
	} else if outputName != "" && outputName != "stderr" {
		f, err := os.OpenFile(outputName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			output = f
		}
	}

	if format == "text" {
		output = zerolog.ConsoleWriter{Out: output}
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}
