package database

import "time"

// Database Connection Pool Constants
const (
	// DefaultMaxConnections caps the pool when no bound is configured
	DefaultMaxConnections = 20

	// DefaultMinConnections is the minimum number of connections to maintain in the pool
	DefaultMinConnections = 2

	// DefaultMaxConnIdleTime is how long an idle connection is kept before closing
	DefaultMaxConnIdleTime = 5 * time.Minute

	// DefaultMaxConnLifetime is the maximum age of any pooled connection
	DefaultMaxConnLifetime = 30 * time.Minute
)

// Error Messages - Database Operations
const (
	ErrMsgFailedToParseConnString = "failed to parse connection string"
	ErrMsgFailedToCreatePool      = "failed to create connection pool"
	ErrMsgFailedToPingDatabase    = "failed to ping database"
	ErrMsgFailedToRunMigrations   = "failed to run migrations"
)

// Log Messages
const (
	LogMsgSuccessfullyConnectedToDatabase = "Successfully connected to the database"
	LogMsgMigrationsApplied               = "Database migrations applied"
)
