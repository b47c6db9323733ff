package implementation

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"token-pattern-be/internal/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// wrapDBError maps connectivity failures to IndexUnavailable so callers can
// retry; every other error passes through unchanged.
func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	var connErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.As(err, &connErr),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.DeadlineExceeded),
		pgconn.Timeout(err),
		errors.As(err, &netErr):
		return apperror.ErrIndexUnavailable.WithInternal(err)
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
