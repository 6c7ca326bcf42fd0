package gormrepo

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/clearcart/api/internal/repositories"
)

const mysqlDuplicateEntry = 1062

// wrap categorises a GORM error for the service layer. A nil error passes through.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repositories.NewError(op, repositories.KindNotFound, err)
	case isDuplicate(err), errors.Is(err, gorm.ErrDuplicatedKey):
		return repositories.NewError(op, repositories.KindConflict, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return repositories.NewError(op, repositories.KindUnavailable, err)
	default:
		return repositories.NewError(op, repositories.KindUnknown, err)
	}
}

func isDuplicate(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

func notFound(op string) error {
	return repositories.NewError(op, repositories.KindNotFound, gorm.ErrRecordNotFound)
}

func conflict(op string, err error) error {
	return repositories.NewError(op, repositories.KindConflict, err)
}
