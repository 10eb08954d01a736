// Package repository defines error values shared by every repository.
// Higher layers translate them into domain errors: ErrNotFound becomes a
// 404, ErrDuplicate and ErrConflict become a 409.
package repository

import (
    "errors"
    "strings"

    "github.com/go-sql-driver/mysql"
    "modernc.org/sqlite"
    sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update violates a UNIQUE
// constraint, most importantly one session per hall per slot.
var ErrDuplicate = errors.New("duplicate")

// ErrConflict is returned when a delete or update cannot be performed
// because of dependent rows, such as deleting a hall that still has
// scheduled sessions.
var ErrConflict = errors.New("conflict")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isUniqueViolation reports whether err is a duplicate-key error from
// either supported driver.
func isUniqueViolation(err error) bool {
    var me *mysql.MySQLError
    if errors.As(err, &me) {
        return me.Number == mysqlDuplicateEntry
    }
    var se *sqlite.Error
    if errors.As(err, &se) {
        switch se.Code() {
        case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
            return true
        }
        return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
    }
    return false
}
