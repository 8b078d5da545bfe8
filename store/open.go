package store

import (
	"context"
	"fmt"
	"strings"
)

// Driver names returned by ParseDSN.
const (
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongodb"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// ParseDSN returns the driver for dsn and the address that driver should
// be opened with. sqlite DSNs lose their scheme; the others are returned
// unchanged.
func ParseDSN(dsn string) (driver, addr string, err error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", "", fmt.Errorf("store: empty connection string")
	}
	scheme := ""
	if i := strings.Index(dsn, "://"); i > 0 {
		scheme = strings.ToLower(dsn[:i])
	}
	switch scheme {
	case "sqlite", "sqlite3":
		addr = dsn[len(scheme)+len("://"):]
		if addr == "" {
			return "", "", fmt.Errorf("store: sqlite connection string %q has no path", dsn)
		}
		return DriverSQLite, addr, nil
	case "file":
		return DriverSQLite, dsn[len("file://"):], nil
	case "mongodb", "mongodb+srv":
		return DriverMongo, dsn, nil
	case "postgres", "postgresql":
		return DriverPostgres, dsn, nil
	case "redis", "rediss":
		return DriverRedis, dsn, nil
	case "":
		return DriverSQLite, strings.TrimPrefix(dsn, "file:"), nil
	}
	return "", "", fmt.Errorf("store: unsupported connection scheme %q", scheme)
}

// Open connects to the store described by dsn, creating the posts
// table or collection if needed.
func Open(ctx context.Context, dsn string) (Store, error) {
	driver, addr, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	switch driver {
	case DriverMongo:
		return OpenMongo(ctx, addr)
	case DriverPostgres:
		return OpenPostgres(ctx, addr)
	case DriverRedis:
		return OpenRedis(ctx, addr)
	default:
		return OpenSQLite(ctx, addr)
	}
}
