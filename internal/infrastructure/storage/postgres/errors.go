package postgres

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"policyhub/internal/core/apperror"
)

const storeName = "postgres"

// SQLSTATE codes the storage layer reacts to.
const (
	pgUniqueViolation    = "23505"
	pgAdminShutdown      = "57P01"
	pgCannotConnectNow   = "57P03"
	pgQueryCanceled      = "57014"
	pgConnectionExcClass = "08"
)

// Classify maps a pgx error onto the application error model.
//
//	connection / timeout / shutdown -> STORE_UNAVAILABLE
//	unique violation                -> DUPLICATE_ENTRY
//
// Anything else is returned unchanged.
func Classify(err error) error {
	return classify(err)
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	if isUnavailable(err) {
		return apperror.NewStoreUnavailable(storeName, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return apperror.NewDuplicate(pgErr.TableName, pgErr.ConstraintName, pgErr.Detail).WithCause(err)
	}
	return err
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, pgConnectionExcClass),
			pgErr.Code == pgAdminShutdown,
			pgErr.Code == pgCannotConnectNow,
			pgErr.Code == pgQueryCanceled:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
