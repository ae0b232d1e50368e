package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound                  = errors.New("record not found")
	ErrDuplicate                 = errors.New("duplicate record")
	ErrDuplicateOrderNumber      = errors.New("duplicate order number")
	ErrDuplicatePaymentReference = errors.New("duplicate payment reference")
	ErrStatusConflict            = errors.New("order status changed concurrently")
)

const uniqueViolation = "23505"

// Index names double as the constraint names reported by postgres.
const (
	orderNumberIndex      = "idx_orders_order_number"
	paymentReferenceIndex = "idx_orders_payment_reference"
)

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case orderNumberIndex:
			return ErrDuplicateOrderNumber
		case paymentReferenceIndex:
			return ErrDuplicatePaymentReference
		}
		return ErrDuplicate
	}
	return err
}
