// Package repository holds the MySQL data access layer. The sentinel
// values below let the service layer distinguish failure scenarios
// without inspecting driver errors itself.
package repository

import "errors"

// ErrEmailExists is returned by Create when the UNIQUE index on
// users.email rejects the insert.
var ErrEmailExists = errors.New("email already exists")

// ErrTokenExists is returned by SessionRepo.Insert when the token hash is
// already taken.
var ErrTokenExists = errors.New("session token exists")

// ErrNotFound is returned when an update matched no row.
var ErrNotFound = errors.New("not found")

// mysqlDuplicateEntry is the server error number for a UNIQUE violation.
const mysqlDuplicateEntry = 1062
