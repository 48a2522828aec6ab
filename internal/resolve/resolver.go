package resolve

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Environment variables understood by the resolver.
const (
	EnvTargets        = "SQLGATE_TARGETS"         // inline JSON target map
	EnvTargetsFile    = "SQLGATE_TARGETS_FILE"    // path to a JSON target map
	EnvDefaultKey     = "SQLGATE_DEFAULT_TARGET"  // default key override
	EnvEngine         = "SQLGATE_DB_TYPE"         // mysql|mariadb|postgres|postgresql
	EnvConnectTimeout = "SQLGATE_CONNECT_TIMEOUT" // seconds
)

// TargetSpec is one entry of a target map: either a bare DSN string or a
// structured object, optionally both (explicit fields win over the DSN).
type TargetSpec struct {
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

// SpecFromValue builds a TargetSpec from a dynamically typed config value:
// a DSN string or a map of fields. Any other shape is rejected early.
func SpecFromValue(v any) (*TargetSpec, error) {
	switch t := v.(type) {
	case string:
		return &TargetSpec{DSN: t}, nil
	case map[string]any:
		spec := &TargetSpec{}
		for k, raw := range t {
			switch strings.ToLower(k) {
			case "dsn":
				spec.DSN = cast.ToString(raw)
			case "type":
				spec.Type = cast.ToString(raw)
			case "host":
				spec.Host = cast.ToString(raw)
			case "port":
				spec.Port = cast.ToInt(raw)
			case "user":
				spec.User = cast.ToString(raw)
			case "password":
				spec.Password = cast.ToString(raw)
			case "database":
				spec.Database = cast.ToString(raw)
			case "connect_timeout":
				spec.ConnectTimeout = cast.ToInt(raw)
			case "description":
				spec.Description = cast.ToString(raw)
			default:
				return nil, fmt.Errorf("unknown target field %q", k)
			}
		}
		return spec, nil
	default:
		return nil, fmt.Errorf("target entry must be a DSN string or an object, got %T", v)
	}
}

// descriptor resolves the spec into a Descriptor. The database name is not
// validated here; Resolve checks it after applying the per-call override.
func (s *TargetSpec) descriptor() (*Descriptor, error) {
	d := &Descriptor{}
	if s.DSN != "" {
		parsed, err := ParseDSN(s.DSN)
		if err != nil {
			return nil, err
		}
		d = parsed
	}

	if s.Type != "" {
		engine, ok := normalizeEngine(strings.ToLower(s.Type))
		if !ok {
			return nil, fmt.Errorf("unsupported target type %q (want mysql, mariadb, postgres, or postgresql)", s.Type)
		}
		d.Engine = engine
	}
	if d.Engine == "" {
		d.Engine = EngineMySQL
	}

	if s.Host != "" {
		d.Host = s.Host
	}
	if s.Port != 0 {
		d.Port = s.Port
	}
	if s.User != "" {
		d.User = s.User
	}
	if s.Password != "" {
		d.Password = s.Password
	}
	if s.Database != "" {
		d.Database = s.Database
	}
	if s.ConnectTimeout > 0 {
		d.ConnectTimeout = time.Duration(s.ConnectTimeout) * time.Second
	}
	if s.Description != "" {
		d.Description = s.Description
	}

	d.applyEngineDefaults()
	return d, nil
}

// FileConfig is the config-file form of the target map, loaded by the CLI
// from the `targets` section.
type FileConfig struct {
	Targets      map[string]*TargetSpec
	DefaultKey   string
	Descriptions map[string]string
}

// Target pairs a key with its resolved descriptor, for listing.
type Target struct {
	Key        string
	Descriptor *Descriptor
}

// Resolver resolves target keys to connection descriptors. It holds no
// mutable state and is safe for concurrent use.
type Resolver struct {
	env  func(string) string
	file *FileConfig
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithEnv replaces the environment lookup, for tests.
func WithEnv(vars map[string]string) Option {
	return func(r *Resolver) {
		r.env = func(key string) string { return vars[key] }
	}
}

// WithFileConfig supplies the config-file target section. It has lower
// precedence than the SQLGATE_TARGETS / SQLGATE_TARGETS_FILE variables.
func WithFileConfig(fc *FileConfig) Option {
	return func(r *Resolver) { r.file = fc }
}

// New creates a Resolver reading the process environment by default.
func New(opts ...Option) *Resolver {
	r := &Resolver{env: os.Getenv}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ParseTargetsJSON parses the JSON target map shape:
//
//	{ "<key>": "<dsn>" | { dsn?, host?, port?, ... }, ... }
func ParseTargetsJSON(data []byte) (map[string]*TargetSpec, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed target map JSON: %w", err)
	}
	targets := make(map[string]*TargetSpec, len(raw))
	for key, msg := range raw {
		var dsn string
		if err := json.Unmarshal(msg, &dsn); err == nil {
			targets[key] = &TargetSpec{DSN: dsn}
			continue
		}
		spec := &TargetSpec{}
		if err := json.Unmarshal(msg, spec); err != nil {
			return nil, fmt.Errorf("malformed target entry %q: %w", key, err)
		}
		targets[key] = spec
	}
	return targets, nil
}

// targetMap loads the target map from the highest-precedence source that
// is present: inline JSON, JSON file path, then the config-file section.
// Returns a nil map when no multi-target configuration exists.
func (r *Resolver) targetMap() (map[string]*TargetSpec, string, map[string]string, error) {
	defaultKey := r.env(EnvDefaultKey)

	if inline := r.env(EnvTargets); inline != "" {
		targets, err := ParseTargetsJSON([]byte(inline))
		if err != nil {
			return nil, "", nil, fmt.Errorf("%s: %w", EnvTargets, err)
		}
		return targets, defaultKey, nil, nil
	}

	if path := r.env(EnvTargetsFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", nil, fmt.Errorf("%s: %w", EnvTargetsFile, err)
		}
		targets, err := ParseTargetsJSON(data)
		if err != nil {
			return nil, "", nil, fmt.Errorf("%s (%s): %w", EnvTargetsFile, path, err)
		}
		return targets, defaultKey, nil, nil
	}

	if r.file != nil && len(r.file.Targets) > 0 {
		if defaultKey == "" {
			defaultKey = r.file.DefaultKey
		}
		return r.file.Targets, defaultKey, r.file.Descriptions, nil
	}

	return nil, "", nil, nil
}

// Resolve produces the descriptor for one call. targetKey selects an entry
// of the target map ("" means the default); dbOverride, when non-empty,
// always wins over any configured database name.
func (r *Resolver) Resolve(targetKey, dbOverride string) (*Descriptor, error) {
	targets, defaultKey, descriptions, err := r.targetMap()
	if err != nil {
		return nil, err
	}

	var d *Descriptor
	if targets == nil {
		if targetKey != "" {
			return nil, fmt.Errorf("target key %q supplied but no multi-target configuration exists (set %s, %s, or a targets config section)", targetKey, EnvTargets, EnvTargetsFile)
		}
		d, err = r.implicitDescriptor()
		if err != nil {
			return nil, err
		}
	} else {
		key := targetKey
		if key == "" {
			key, err = pickDefaultKey(targets, defaultKey)
			if err != nil {
				return nil, err
			}
		}
		spec, ok := targets[key]
		if !ok {
			return nil, fmt.Errorf("unknown target key %q (available: %s)", key, strings.Join(sortedKeys(targets), ", "))
		}
		d, err = spec.descriptor()
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", key, err)
		}
		if d.Description == "" && descriptions != nil {
			d.Description = descriptions[key]
		}
	}

	if dbOverride != "" {
		d.Database = dbOverride
	}
	if d.Database == "" {
		return nil, fmt.Errorf("no database name could be determined: set one in the target configuration, the DSN path, the environment, or pass an explicit database")
	}
	return d, nil
}

// Targets lists every configured target with its resolved descriptor and
// the effective default key. With no target map configured, the implicit
// single target is returned under the key "default".
func (r *Resolver) Targets() ([]Target, string, error) {
	targets, defaultKey, descriptions, err := r.targetMap()
	if err != nil {
		return nil, "", err
	}

	if targets == nil {
		d, err := r.implicitDescriptor()
		if err != nil {
			return nil, "", err
		}
		return []Target{{Key: "default", Descriptor: d}}, "default", nil
	}

	key, err := pickDefaultKey(targets, defaultKey)
	if err != nil {
		key = ""
	}

	out := make([]Target, 0, len(targets))
	for _, k := range sortedKeys(targets) {
		d, err := targets[k].descriptor()
		if err != nil {
			return nil, "", fmt.Errorf("target %q: %w", k, err)
		}
		if d.Description == "" && descriptions != nil {
			d.Description = descriptions[k]
		}
		out = append(out, Target{Key: k, Descriptor: d})
	}
	return out, key, nil
}

// implicitDescriptor builds the single fallback target from discrete
// environment variables. The engine's own variable names are tried first,
// then the other engine's, then the engine default applies.
func (r *Resolver) implicitDescriptor() (*Descriptor, error) {
	engine := EngineMySQL
	if t := r.env(EnvEngine); t != "" {
		e, ok := normalizeEngine(strings.ToLower(t))
		if !ok {
			return nil, fmt.Errorf("%s: unsupported engine %q (want mysql, mariadb, postgres, or postgresql)", EnvEngine, t)
		}
		engine = e
	}

	d := &Descriptor{Engine: engine}
	d.Host = r.lookup(engine, "HOST")
	d.User = r.lookup(engine, "USER")
	d.Password = r.lookup(engine, "PASSWORD")
	d.Database = r.lookup(engine, "DATABASE")

	if p := r.lookup(engine, "PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q in environment", p)
		}
		d.Port = port
	}
	if ct := r.env(EnvConnectTimeout); ct != "" {
		secs, err := strconv.Atoi(ct)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("%s: invalid value %q", EnvConnectTimeout, ct)
		}
		d.ConnectTimeout = time.Duration(secs) * time.Second
	}

	d.applyEngineDefaults()
	return d, nil
}

// lookup reads a connection field from the environment, trying the
// configured engine's naming convention before the other engine's.
func (r *Resolver) lookup(engine Engine, field string) string {
	mysqlName := "MYSQL_" + field
	pgName := "PG" + field
	names := []string{mysqlName, pgName}
	if engine == EnginePostgres {
		names = []string{pgName, mysqlName}
	}
	for _, name := range names {
		if v := r.env(name); v != "" {
			return v
		}
	}
	return ""
}

// pickDefaultKey chooses the default entry of a target map: the designated
// key, a key literally named "default", or the sole entry.
func pickDefaultKey(targets map[string]*TargetSpec, defaultKey string) (string, error) {
	if defaultKey != "" {
		if _, ok := targets[defaultKey]; !ok {
			return "", fmt.Errorf("default target key %q not found (available: %s)", defaultKey, strings.Join(sortedKeys(targets), ", "))
		}
		return defaultKey, nil
	}
	if _, ok := targets["default"]; ok {
		return "default", nil
	}
	if len(targets) == 1 {
		for k := range targets {
			return k, nil
		}
	}
	return "", fmt.Errorf("no default target key configured (available: %s)", strings.Join(sortedKeys(targets), ", "))
}

func sortedKeys(targets map[string]*TargetSpec) []string {
	keys := make([]string, 0, len(targets))
	for k := range targets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
