package service

import (
	"errors"
	"fmt"

	"chezben/internal/domain"

	"gorm.io/gorm"
)

// notFoundAs maps a missing row to domain.ErrNotFound and passes other errors through.
func notFoundAs(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s not found", domain.ErrNotFound, what)
	}
	return err
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func forbidden(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrForbidden, msg)
}
