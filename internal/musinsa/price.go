package musinsa

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var digitGroups = regexp.MustCompile(`[\d,]+`)

// ParsePriceFields pulls (normal, sale, discount) out of free-form price
// text such as "20,000원 10,000원". With two or more numbers the largest
// is the normal price and the smallest the sale price; a single number
// means no discount. The discount rate is always derived from the pair,
// never read from the text, and is rounded to one decimal.
func ParsePriceFields(text string) (normal, sale int, discount float64) {
	text = strings.TrimSpace(text)
	if text == "" || text == "0" {
		return 0, 0, 0
	}

	var nums []int
	for _, m := range digitGroups.FindAllString(text, -1) {
		m = strings.ReplaceAll(m, ",", "")
		if m == "" {
			continue
		}
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}

	switch len(nums) {
	case 0:
		return 0, 0, 0
	case 1:
		return nums[0], nums[0], 0
	}

	normal, sale = nums[0], nums[0]
	for _, n := range nums[1:] {
		if n > normal {
			normal = n
		}
		if n < sale {
			sale = n
		}
	}
	if normal > sale {
		pct := float64(normal-sale) / float64(normal) * 100
		discount = math.Round(pct*10) / 10
	}
	return normal, sale, discount
}
