package db

import "errors"

// Sentinel errors for backend operations.
var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")
	ErrBadResponse   = errors.New("db: bad response")
)

// Op constants name backend operations for error context.
const (
	OpSearch    = "_search"
	OpPing      = "PING"
	OpHGetAll   = "HGETALL"
	OpHSet      = "HSET"
	OpSelect    = "SELECT"
	OpCount     = "COUNT"
	OpInsert    = "INSERT"
	OpMigrate   = "MIGRATE"
	OpEncode    = "ENCODE"
	OpDecode    = "DECODE"
	OpTransport = "TRANSPORT"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
