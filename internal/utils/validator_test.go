package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateMusinsaURL(t *testing.T) {
	type trackReq struct {
		URL string `validate:"required,musinsa_url"`
	}

	tests := []struct {
		name string
		url  string
		ok   bool
	}{
		{"product page", "https://www.musinsa.com/products/4216556", true},
		{"legacy goods path", "https://www.musinsa.com/app/goods/4216556", true},
		{"bare host", "https://musinsa.com/products/4216556", true},
		{"http scheme", "http://www.musinsa.com/products/1", true},
		{"other host", "https://www.coupang.com/products/1", false},
		{"non-product path", "https://www.musinsa.com/category/001", false},
		{"not a url", "::::", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(trackReq{URL: tt.url})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateCategoryCode(t *testing.T) {
	type crawlReq struct {
		Code string `validate:"category_code"`
	}

	assert.NoError(t, ValidateStruct(crawlReq{Code: "001"}))
	assert.NoError(t, ValidateStruct(crawlReq{Code: "022"}))
	assert.Error(t, ValidateStruct(crawlReq{Code: "1"}))
	assert.Error(t, ValidateStruct(crawlReq{Code: "abcd"}))
	assert.Error(t, ValidateStruct(crawlReq{Code: "0011"}))
}

func TestGetValidationErrors(t *testing.T) {
	type trackReq struct {
		URL string `validate:"required,musinsa_url"`
	}

	err := ValidateStruct(trackReq{})
	assert.Error(t, err)

	verrs := GetValidationErrors(err)
	assert.Len(t, verrs, 1)
	assert.Equal(t, "url", verrs[0].Field)
	assert.Equal(t, "required", verrs[0].Tag)
	assert.Contains(t, verrs[0].Message, "required")
}
