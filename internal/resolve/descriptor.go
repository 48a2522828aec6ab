// Package resolve turns target configuration — inline JSON target maps,
// JSON files, a config-file section, or discrete environment variables —
// into a concrete connection descriptor for one database engine.
//
// Resolution is pure: no connection is ever opened here, and a descriptor
// is built fresh for every call.
package resolve

import "time"

// Engine identifies the database engine a descriptor points at.
type Engine string

const (
	EngineMySQL    Engine = "mysql"
	EnginePostgres Engine = "postgres"
)

// DefaultConnectTimeout is applied when no connect_timeout is configured.
const DefaultConnectTimeout = 10 * time.Second

// Descriptor is a fully resolved connection target. It is immutable once
// built and consumed by exactly one call.
type Descriptor struct {
	Engine         Engine
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	ConnectTimeout time.Duration
	Description    string
}

// normalizeEngine maps DSN schemes and config type strings to an Engine.
func normalizeEngine(s string) (Engine, bool) {
	switch s {
	case "mysql", "mariadb":
		return EngineMySQL, true
	case "postgres", "postgresql":
		return EnginePostgres, true
	}
	return "", false
}

// applyEngineDefaults fills in the per-engine default port and user.
func (d *Descriptor) applyEngineDefaults() {
	if d.Host == "" {
		d.Host = "127.0.0.1"
	}
	switch d.Engine {
	case EngineMySQL:
		if d.Port == 0 {
			d.Port = 3306
		}
		if d.User == "" {
			d.User = "root"
		}
	case EnginePostgres:
		if d.Port == 0 {
			d.Port = 5432
		}
		if d.User == "" {
			d.User = "postgres"
		}
	}
	if d.ConnectTimeout == 0 {
		d.ConnectTimeout = DefaultConnectTimeout
	}
}
