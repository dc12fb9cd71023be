package utils

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var categoryCodePattern = regexp.MustCompile(`^[0-9]{3}$`)

func init() {
	validate = validator.New()
	validate.RegisterValidation("musinsa_url", validateMusinsaURL)
	validate.RegisterValidation("category_code", validateCategoryCode)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// validateMusinsaURL accepts product page URLs on www.musinsa.com only.
// Tracking arbitrary URLs would poison the crawl queue.
func validateMusinsaURL(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host != "www.musinsa.com" && u.Host != "musinsa.com" {
		return false
	}
	return strings.Contains(u.Path, "/products/") || strings.Contains(u.Path, "/app/goods/")
}

func validateCategoryCode(fl validator.FieldLevel) bool {
	return categoryCodePattern.MatchString(fl.Field().String())
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "musinsa_url":
		return "URL must be a musinsa.com product page"
	case "category_code":
		return "Category code must be a 3-digit code"
	default:
		return e.Field() + " is invalid"
	}
}
