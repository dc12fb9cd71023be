package musinsa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePriceFields(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		normal   int
		sale     int
		discount float64
	}{
		{"empty", "", 0, 0, 0},
		{"literal zero", "0", 0, 0, 0},
		{"whitespace only", "   ", 0, 0, 0},
		{"no digits", "가격 문의", 0, 0, 0},
		{"single price", "10,000원", 10000, 10000, 0},
		{"discount pair", "20,000원 10,000원", 20000, 10000, 50},
		{"pair reversed in text", "10,000원 20,000원", 20000, 10000, 50},
		{"equal pair", "15,000원 15,000원", 15000, 15000, 0},
		{"noise around numbers", "회원가 29,900원 (정가 39,900원)", 39900, 29900, 25.1},
		{"three numbers", "39,000 29,000 19,000", 39000, 19000, 51.3},
		{"plain digits", "4900", 4900, 4900, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normal, sale, discount := ParsePriceFields(tt.text)
			assert.Equal(t, tt.normal, normal, "normal price")
			assert.Equal(t, tt.sale, sale, "sale price")
			assert.InDelta(t, tt.discount, discount, 0.001, "discount rate")
		})
	}
}

func TestParsePriceFieldsRoundsToOneDecimal(t *testing.T) {
	// 1,000 off 29,900 is 3.3444...%, which must come back as 3.3.
	normal, sale, discount := ParsePriceFields("29,900원 28,900원")
	assert.Equal(t, 29900, normal)
	assert.Equal(t, 28900, sale)
	assert.InDelta(t, 3.3, discount, 0.001)
}
