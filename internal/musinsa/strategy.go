package musinsa

import (
	"context"

	"github.com/minsu-lab/mstrack/internal/models"
)

type RequestType int

const (
	ProductDetailRequest RequestType = iota
	CategoryListingRequest
)

type Request struct {
	Type         RequestType
	URL          string
	CategoryCode string
	CategoryName string
	Target       int
}

type Result struct {
	Products []models.ProductSnapshot
	Outcome  ScrollOutcome // listing crawls only
	Strategy string
}

type Strategy interface {
	Name() string
	Execute(ctx context.Context, req Request) (*Result, error)
}
