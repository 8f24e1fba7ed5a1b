// Package repomanager opens the configured database and vends the
// repositories built on top of it.
package repomanager

import (
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/users"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DefaultSQLiteDSN is used when the sqlite driver is selected without a DSN.
const DefaultSQLiteDSN = "chat.db"

// RepositoryManager gives access to the repositories of one database.
type RepositoryManager interface {
	Users() users.Repository
	Close() error
}

// ValidDriver reports whether name is a supported database driver.
func ValidDriver(name string) bool {
	switch name {
	case DriverSQLite, DriverPostgres, DriverMemory:
		return true
	}
	return false
}
