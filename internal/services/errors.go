package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation   = "23505"
	mysqlDuplicateEntry = 1062
)

// sqlite only reports constraint failures as text.
var uniqueViolationMarkers = []string{"unique constraint", "duplicate key", "duplicate entry"}

// storeError wraps a persistence failure for op, substituting conflict when
// the failure is a uniqueness violation and conflict is non-nil.
func storeError(op string, err error, conflict error) error {
	if err == nil {
		return nil
	}
	if conflict != nil && isUniqueConstraintError(err) {
		return conflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range uniqueViolationMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
