//go:build !cgo

package sqlstore

// go-sqlite3 is a stub without cgo, so no SQLite error can reach us.
func isSQLiteUnique(error) bool { return false }
