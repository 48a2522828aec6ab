package sqlgate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mbellgren/sqlgate/internal/resolve"
)

// Gateway is the policy-bounded query gateway. All exported methods are
// safe for concurrent use: the gateway holds no mutable state, and every
// call resolves its target and opens its own connection.
type Gateway struct {
	config   Config
	resolver *resolve.Resolver
	logger   zerolog.Logger
}

// New creates a Gateway. Target configuration is read lazily per call, so
// a Gateway can outlive configuration changes in the environment.
func New(config Config, logger zerolog.Logger) (*Gateway, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("sqlgate: %w", err)
	}

	var opts []resolve.Option
	if fc := config.fileConfig(); fc != nil {
		opts = append(opts, resolve.WithFileConfig(fc))
	}

	return &Gateway{
		config:   config,
		resolver: resolve.New(opts...),
		logger:   logger,
	}, nil
}

// BoundTable returns the table this gateway is restricted to, or "" when
// unrestricted.
func (g *Gateway) BoundTable() string {
	return g.config.BoundTable
}

// ListDatabases reports every configured target (or just the requested
// one) with its effective default key. Pure configuration resolution; no
// connection is opened.
func (g *Gateway) ListDatabases(ctx context.Context, input ListDatabasesInput) *ListDatabasesOutput {
	targets, defaultKey, err := g.resolver.Targets()
	if err != nil {
		g.logger.Error().Err(err).Msg("list_databases failed")
		return &ListDatabasesOutput{Error: err.Error()}
	}

	infos := []TargetInfo{}
	for _, t := range targets {
		if input.TargetKey != "" && t.Key != input.TargetKey {
			continue
		}
		d := t.Descriptor
		infos = append(infos, TargetInfo{
			Key:         t.Key,
			Engine:      string(d.Engine),
			Host:        d.Host,
			Port:        d.Port,
			User:        d.User,
			Database:    d.Database,
			PasswordSet: d.Password != "",
			Description: d.Description,
		})
	}

	if input.TargetKey != "" && len(infos) == 0 {
		keys := make([]string, len(targets))
		for i, t := range targets {
			keys[i] = t.Key
		}
		err := fmt.Errorf("unknown target key %q (available: %s)", input.TargetKey, strings.Join(keys, ", "))
		g.logger.Error().Err(err).Msg("list_databases failed")
		return &ListDatabasesOutput{Error: err.Error()}
	}

	g.logger.Info().Int("target_count", len(infos)).Msg("list_databases executed")
	return &ListDatabasesOutput{OK: true, Targets: infos, DefaultKey: defaultKey}
}

// Ping resolves a target, opens a connection, and runs a minimal probe
// statement, reporting the elapsed time.
func (g *Gateway) Ping(ctx context.Context, input PingInput) *PingOutput {
	d, err := g.resolver.Resolve(input.TargetKey, input.Database)
	if err != nil {
		g.logger.Error().Err(err).Msg("ping failed")
		return &PingOutput{Error: err.Error()}
	}

	start := time.Now()
	db, err := openDB(d)
	if err != nil {
		g.logger.Error().Err(err).Msg("ping failed")
		return &PingOutput{Database: d.Database, Error: err.Error()}
	}
	defer db.Close()

	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		g.logger.Error().Err(err).Str("database", d.Database).Msg("ping failed")
		return &PingOutput{Database: d.Database, Error: err.Error()}
	}

	elapsed := time.Since(start)
	g.logger.Info().Str("database", d.Database).Dur("duration", elapsed).Msg("ping executed")
	return &PingOutput{OK: true, Database: d.Database, ElapsedMS: elapsed.Milliseconds()}
}
