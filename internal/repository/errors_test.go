package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	wrap := func(err error) error { return fmt.Errorf("insert: %w", err) }

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"record not found", gorm.ErrRecordNotFound, ErrNotFound},
		{"order number collision", wrap(&pgconn.PgError{Code: "23505", ConstraintName: "idx_orders_order_number"}), ErrDuplicateOrderNumber},
		{"payment reference replay", wrap(&pgconn.PgError{Code: "23505", ConstraintName: "idx_orders_payment_reference"}), ErrDuplicatePaymentReference},
		{"other unique index", &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"}, ErrDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translateError(tt.in), tt.want)
		})
	}
}

func TestTranslateError_PassesThroughOthers(t *testing.T) {
	assert.NoError(t, translateError(nil))

	fkErr := &pgconn.PgError{Code: "23503"}
	assert.Same(t, error(fkErr), translateError(fkErr))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, translateError(plain))
}
