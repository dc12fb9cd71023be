package musinsa

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Markers identifying the inline script that carries the server-rendered
// product state.
const (
	stateMarker = "window.__MSS_FE__"
	stateScope  = "product.state"
)

var (
	// ErrNoStateScript means no inline script carried the product state.
	ErrNoStateScript = errors.New("musinsa: product state script not found")
	// ErrStateParse means a state assignment was found but its JSON
	// payload could not be decoded.
	ErrStateParse = errors.New("musinsa: product state JSON unparsable")
	// ErrMissingCoreFields means the state decoded but name, brand or
	// image is absent.
	ErrMissingCoreFields = errors.New("musinsa: product state missing name, brand or image")
)

// IsExtractionFailure reports whether err is a known page extraction
// failure, as opposed to a transport or browser error.
func IsExtractionFailure(err error) bool {
	return errors.Is(err, ErrNoStateScript) ||
		errors.Is(err, ErrStateParse) ||
		errors.Is(err, ErrMissingCoreFields)
}

// extractStateJSON isolates the JSON object assigned to the embedded
// product state. The closing brace is found by balanced scanning because
// the payload nests arbitrarily deep; a regex on "};" would cut it short.
// Braces inside string literals do not count toward the depth.
func extractStateJSON(script string) (string, bool) {
	if !strings.Contains(script, stateMarker) {
		return "", false
	}
	scope := strings.Index(script, stateScope)
	if scope < 0 {
		return "", false
	}
	eq := strings.IndexByte(script[scope:], '=')
	if eq < 0 {
		return "", false
	}
	rest := script[scope+eq+1:]
	open := strings.IndexByte(rest, '{')
	if open < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(rest); i++ {
		c := rest[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return rest[open : i+1], true
			}
		}
	}
	return "", false
}

func decodeState(raw string) (*productState, error) {
	var st productState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateParse, err)
	}
	return &st, nil
}

// productState mirrors the slice of the page state the tracker reads.
// Only the fields checked in snapshotFromState are required; everything
// else degrades to its zero value.
type productState struct {
	GoodsNm           string         `json:"goodsNm"`
	GoodsNo           looseInt       `json:"goodsNo"`
	StyleNo           string         `json:"styleNo"`
	ThumbnailImageURL string         `json:"thumbnailImageUrl"`
	BrandInfo         stateBrand     `json:"brandInfo"`
	GoodsPrice        statePrice     `json:"goodsPrice"`
	Category          stateCategory  `json:"category"`
	OutOfStock        looseBool      `json:"outOfStock"`
	IsSoldOut         *looseBool     `json:"isSoldOut"`
	GoodsReview       stateReview    `json:"goodsReview"`
	Logistics         stateLogistics `json:"goodsLogisticsInfo"`
	Genders           []string       `json:"genders"`
}

type stateBrand struct {
	BrandName        string `json:"brandName"`
	BrandEnglishName string `json:"brandEnglishName"`
}

type statePrice struct {
	NormalPrice  looseInt   `json:"normalPrice"`
	SalePrice    looseInt   `json:"salePrice"`
	DiscountRate looseFloat `json:"discountRate"`
	IsSale       looseBool  `json:"isSale"`
}

type stateCategory struct {
	Depth1Name string `json:"categoryDepth1Name"`
	Depth1Code string `json:"categoryDepth1Code"`
	Depth2Name string `json:"categoryDepth2Name"`
	Depth2Code string `json:"categoryDepth2Code"`
	Depth3Name string `json:"categoryDepth3Name"`
	Depth3Code string `json:"categoryDepth3Code"`
}

type stateReview struct {
	TotalCount        looseInt   `json:"totalCount"`
	SatisfactionScore looseFloat `json:"satisfactionScore"`
}

type stateLogistics struct {
	DeliveryInfoName string `json:"deliveryInfoName"`
	CourierName      string `json:"courierName"`
}

// looseInt decodes numeric fields that arrive as a number, a quoted
// number (commas tolerated) or null. Garbage degrades to zero instead of
// failing the enclosing object.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	f, ok := looseNumber(b)
	if !ok {
		*n = 0
		return nil
	}
	*n = looseInt(f)
	return nil
}

// looseFloat is looseInt for fractional fields.
type looseFloat float64

func (n *looseFloat) UnmarshalJSON(b []byte) error {
	f, ok := looseNumber(b)
	if !ok {
		*n = 0
		return nil
	}
	*n = looseFloat(f)
	return nil
}

// looseBool accepts true/false, "true"/"false" and 0/1.
type looseBool bool

func (v *looseBool) UnmarshalJSON(b []byte) error {
	switch strings.Trim(string(b), `"`) {
	case "true", "1":
		*v = true
	default:
		*v = false
	}
	return nil
}

func looseNumber(b []byte) (float64, bool) {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "null" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
