package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"
)

// Store failure classes surfaced to services. Classified errors wrap both the
// class and the driver error, so errors.Is matches the class.
var (
	ErrDuplicate   = errors.New("unique constraint violation")
	ErrForeignKey  = errors.New("foreign key violation")
	ErrUnavailable = errors.New("store unavailable")
)

// classify maps driver specific failures onto the store failure classes.
// SQLite errors are recognised by message to keep this package free of cgo.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrForeignKey) || errors.Is(err, ErrUnavailable) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return fmt.Errorf("%w: %w", ErrDuplicate, err)
		case pqErr.Code == "23503":
			return fmt.Errorf("%w: %w", ErrForeignKey, err)
		case pqErr.Code.Class() == "08", pqErr.Code.Class() == "57":
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return err
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %w", ErrForeignKey, err)
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "unable to open database file"):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
