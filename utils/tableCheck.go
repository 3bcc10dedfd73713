package utils

import (
	"errors"
	"sync"

	"github.com/go-sql-driver/mysql"
)

const mysqlErrNoSuchTable = 1146

// IsMissingTableError reports whether err is MySQL's "table doesn't
// exist" error. Older operator databases predate some reporting tables,
// and reads against them should degrade to empty results instead of 500s.
func IsMissingTableError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrNoSuchTable
	}
	return false
}

// TableCache remembers which tables were observed missing so repeated
// report reads skip the failing query. Entries are dropped when a
// migration or manual invalidation says the table now exists.
type TableCache struct {
	mu      sync.RWMutex
	missing map[string]bool
}

func NewTableCache() *TableCache {
	return &TableCache{missing: make(map[string]bool)}
}

func (c *TableCache) IsMissing(table string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.missing[table]
}

func (c *TableCache) MarkMissing(table string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.missing[table] = true
}

// Invalidate forgets the cached state for a table, forcing the next
// read to probe the database again.
func (c *TableCache) Invalidate(table string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.missing, table)
}

func (c *TableCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.missing = make(map[string]bool)
}
