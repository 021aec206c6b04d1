package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"chezben/internal/auth"
	"chezben/internal/domain"
	"chezben/internal/service"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: listing not found", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: not yours", domain.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: bad price", domain.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: own listing", domain.ErrInvalidOperation), http.StatusBadRequest},
		{fmt.Errorf("%w: email taken", domain.ErrConflict), http.StatusConflict},
		{service.ErrInvalidCreds, http.StatusUnauthorized},
		{auth.ErrInvalidToken, http.StatusUnauthorized},
		{service.ErrAccountDisabled, http.StatusForbidden},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestMessageStripsKind(t *testing.T) {
	assert.Equal(t, "listing not found", message(fmt.Errorf("%w: listing not found", domain.ErrNotFound)))
	assert.Equal(t, "Crédits insuffisants", message(fmt.Errorf("%w: Crédits insuffisants", domain.ErrInvalidInput)))
	assert.Equal(t, "invalid email or password", message(service.ErrInvalidCreds))
}
