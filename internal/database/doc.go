// Package database provides the PostgreSQL/TimescaleDB connection pool for
// the optional movers history sink, and the schema it writes to.
package database
