package middleware

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/medrec-api/internal/model"
)

// RegisterValidators installs domain validators on gin's binding
// engine and makes validation errors report json field names.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	if err := v.RegisterValidation("role", validRole); err != nil {
		panic(err)
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		return name
	})
}

func validRole(fl validator.FieldLevel) bool {
	switch model.Role(fl.Field().String()) {
	case model.RolePatient, model.RoleDoctor, model.RoleAdmin:
		return true
	}
	return false
}
