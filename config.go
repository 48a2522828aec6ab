package sqlgate

import (
	"fmt"
	"regexp"

	"github.com/mbellgren/sqlgate/internal/resolve"
)

// Environment variables understood by the target resolver, re-exported
// for callers that set up the process environment.
const (
	EnvTargets     = resolve.EnvTargets
	EnvTargetsFile = resolve.EnvTargetsFile
	EnvDefaultKey  = resolve.EnvDefaultKey
	EnvEngine      = resolve.EnvEngine
)

// Config is the gateway configuration. All fields are optional: with a
// zero Config the gateway resolves its single target from environment
// variables.
type Config struct {
	// Targets is the config-file form of the target map. The
	// SQLGATE_TARGETS and SQLGATE_TARGETS_FILE environment variables
	// take precedence over it when set.
	Targets map[string]TargetConfig `json:"targets" mapstructure:"targets"`

	// DefaultKey designates the target used when a call supplies no key.
	DefaultKey string `json:"default_key" mapstructure:"default_key"`

	// TargetDescriptions supplies human-readable descriptions for
	// targets that do not carry their own.
	TargetDescriptions map[string]string `json:"target_descriptions" mapstructure:"target_descriptions"`

	// BoundTable restricts this gateway instance to a single table.
	// When set, every query is validated against the table-bound policy
	// and writes are never permitted.
	BoundTable string `json:"bound_table" mapstructure:"bound_table"`

	// MaxRows is the default row cap for calls that do not set one.
	// Defaults to 100.
	MaxRows int `json:"max_rows" mapstructure:"max_rows"`

	// MaxSQLLength rejects oversized statements before any processing.
	// Defaults to 100000 bytes.
	MaxSQLLength int `json:"max_sql_length" mapstructure:"max_sql_length"`
}

// TargetConfig is one config-file target entry: explicit fields,
// optionally wrapping a DSN plus a description override.
type TargetConfig struct {
	DSN            string `json:"dsn" mapstructure:"dsn"`
	Type           string `json:"type" mapstructure:"type"`
	Host           string `json:"host" mapstructure:"host"`
	Port           int    `json:"port" mapstructure:"port"`
	User           string `json:"user" mapstructure:"user"`
	Password       string `json:"password" mapstructure:"password"`
	Database       string `json:"database" mapstructure:"database"`
	ConnectTimeout int    `json:"connect_timeout" mapstructure:"connect_timeout"`
	Description    string `json:"description" mapstructure:"description"`
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// validate applies defaults and rejects configuration the gateway could
// never execute with.
func (c *Config) validate() error {
	if c.MaxRows == 0 {
		c.MaxRows = 100
	}
	if c.MaxRows < 0 {
		return fmt.Errorf("max_rows must be > 0")
	}
	if c.MaxSQLLength == 0 {
		c.MaxSQLLength = 100000
	}
	if c.MaxSQLLength < 0 {
		return fmt.Errorf("max_sql_length must be > 0")
	}
	if c.BoundTable != "" && !identRe.MatchString(c.BoundTable) {
		return fmt.Errorf("bound_table %q is not a plain table identifier", c.BoundTable)
	}
	return nil
}

// fileConfig converts the config-file target section into the resolver's
// form.
func (c *Config) fileConfig() *resolve.FileConfig {
	if len(c.Targets) == 0 {
		return nil
	}
	targets := make(map[string]*resolve.TargetSpec, len(c.Targets))
	for key, t := range c.Targets {
		targets[key] = &resolve.TargetSpec{
			DSN:            t.DSN,
			Type:           t.Type,
			Host:           t.Host,
			Port:           t.Port,
			User:           t.User,
			Password:       t.Password,
			Database:       t.Database,
			ConnectTimeout: t.ConnectTimeout,
			Description:    t.Description,
		}
	}
	return &resolve.FileConfig{
		Targets:      targets,
		DefaultKey:   c.DefaultKey,
		Descriptions: c.TargetDescriptions,
	}
}
