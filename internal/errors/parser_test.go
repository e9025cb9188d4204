package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		context    string
		wantCode   string
		wantStatus int
	}{
		{
			name:       "record not found with context",
			err:        fmt.Errorf("find offer: %w", gorm.ErrRecordNotFound),
			context:    "offer",
			wantCode:   ResourceNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "postgres duplicate email",
			err:        errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_email" (SQLSTATE 23505)`),
			wantCode:   AuthEmailAlreadyExists,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "sqlite duplicate review",
			err:        errors.New("UNIQUE constraint failed: used_reviews.transaction_id, used_reviews.reviewer_id"),
			wantCode:   UsedAlreadyReviewed,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "foreign key still referenced",
			err:        errors.New("update or delete violates foreign key constraint, key is still referenced"),
			wantCode:   ResourceConflict,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "unknown",
			err:        errors.New("boom"),
			context:    "payment verify",
			wantCode:   InternalServerError,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, tt.context)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.Equal(t, tt.wantStatus, info.Status)
			assert.NotEmpty(t, info.Message)
		})
	}
}

func TestParseError_NotFoundMessage(t *testing.T) {
	info := ParseError(gorm.ErrRecordNotFound, "transaction")
	assert.Equal(t, "거래 정보를 찾을 수 없습니다", info.Message)

	info = ParseError(gorm.ErrRecordNotFound, "")
	assert.Equal(t, "요청한 데이터를 찾을 수 없습니다", info.Message)
}
