package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestIsMissingTableError(t *testing.T) {
	missing := &mysql.MySQLError{Number: 1146, Message: "Table 'ops.machine_maintenance' doesn't exist"}
	if !IsMissingTableError(missing) {
		t.Error("error 1146 should be detected as missing table")
	}

	wrapped := fmt.Errorf("list maintenance: %w", missing)
	if !IsMissingTableError(wrapped) {
		t.Error("wrapped 1146 should be detected as missing table")
	}

	other := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	if IsMissingTableError(other) {
		t.Error("duplicate-key error should not be treated as missing table")
	}

	if IsMissingTableError(errors.New("plain error")) {
		t.Error("non-mysql error should not be treated as missing table")
	}
	if IsMissingTableError(nil) {
		t.Error("nil error should not be treated as missing table")
	}
}

func TestTableCacheMarkAndInvalidate(t *testing.T) {
	cache := NewTableCache()

	if cache.IsMissing("machine_maintenance") {
		t.Error("fresh cache should not report tables missing")
	}

	cache.MarkMissing("machine_maintenance")
	if !cache.IsMissing("machine_maintenance") {
		t.Error("marked table should be reported missing")
	}
	if cache.IsMissing("stock_movements") {
		t.Error("unrelated table should not be affected")
	}

	cache.Invalidate("machine_maintenance")
	if cache.IsMissing("machine_maintenance") {
		t.Error("invalidated table should be probed again")
	}
}

func TestTableCacheInvalidateAll(t *testing.T) {
	cache := NewTableCache()
	cache.MarkMissing("machine_maintenance")
	cache.MarkMissing("parts_usage")

	cache.InvalidateAll()

	if cache.IsMissing("machine_maintenance") || cache.IsMissing("parts_usage") {
		t.Error("InvalidateAll should clear every entry")
	}
}
