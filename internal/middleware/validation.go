package middleware

import (
	"chezben/internal/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the custom binding rules used by request structs.
// cmphone accepts an empty value so optional phone fields can use it.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("cmphone", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || domain.ValidPhone(s)
	})
}
