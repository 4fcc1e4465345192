package pg

import "errors"

var (
	ErrFailedToParseDBConfig    = errors.New("pg: failed to parse database config")
	ErrFailedToOpenDBConnection = errors.New("pg: failed to open database connection")
	ErrFailedToApplyMigrations  = errors.New("pg: failed to apply migrations")
)
