package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/minsu-lab/mstrack/internal/store"
	"github.com/minsu-lab/mstrack/internal/tracker"
	"github.com/minsu-lab/mstrack/internal/utils"
	"github.com/minsu-lab/mstrack/metrics"
)

type ProductHandler struct {
	store      *store.Store
	reconciler *tracker.Reconciler
	refresher  *tracker.Refresher
}

func NewProductHandler(st *store.Store, rec *tracker.Reconciler, ref *tracker.Refresher) *ProductHandler {
	return &ProductHandler{store: st, reconciler: rec, refresher: ref}
}

// productID parses the :id route parameter. A zero return means the
// response was already written.
func productID(c *gin.Context) uint {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return 0
	}
	return uint(id)
}

// GET /v1/products
func (h *ProductHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	products, total, err := h.store.List(params)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to list products")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params))
}

type trackRequest struct {
	URL string `json:"url" validate:"required,musinsa_url"`
}

// POST /v1/products
func (h *ProductHandler) Track(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	product, err := h.reconciler.Register(c.Request.Context(), req.URL)
	if err != nil {
		if errors.Is(err, tracker.ErrAlreadyTracked) {
			utils.ConflictResponse(c, "Product is already tracked")
			return
		}
		utils.BadRequestResponse(c, "Crawling the product page failed", err.Error())
		return
	}

	metrics.RecordPricePoints(1)
	utils.CreatedResponse(c, product)
}

// GET /v1/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id := productID(c)
	if id == 0 {
		return
	}

	product, err := h.store.ByID(id)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to load product")
		return
	}
	if product == nil {
		utils.NotFoundResponse(c, "Product")
		return
	}

	utils.SuccessResponse(c, product)
}

// DELETE /v1/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	id := productID(c)
	if id == 0 {
		return
	}

	product, err := h.store.ByID(id)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to load product")
		return
	}
	if product == nil {
		utils.NotFoundResponse(c, "Product")
		return
	}

	// Hard delete; the price history goes with it via the FK cascade.
	if err := h.store.Delete(id); err != nil {
		utils.InternalErrorResponse(c, "Failed to delete product")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": fmt.Sprintf("Product %q deleted", product.Name),
	})
}

// POST /v1/products/:id/crawl
func (h *ProductHandler) Crawl(c *gin.Context) {
	id := productID(c)
	if id == 0 {
		return
	}

	result, err := h.refresher.RefreshOne(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, tracker.ErrProductNotFound) {
			utils.NotFoundResponse(c, "Product")
			return
		}
		utils.BadRequestResponse(c, "Crawling the product page failed", err.Error())
		return
	}

	metrics.RecordPricePoints(1)
	utils.SuccessResponse(c, result)
}

// GET /v1/products/:id/price-history
func (h *ProductHandler) PriceHistory(c *gin.Context) {
	id := productID(c)
	if id == 0 {
		return
	}

	product, err := h.store.ByID(id)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to load product")
		return
	}
	if product == nil {
		utils.NotFoundResponse(c, "Product")
		return
	}

	days := 0
	if v := c.Query("days"); v != "" {
		days, err = strconv.Atoi(v)
		if err != nil || days < 0 {
			utils.BadRequestResponse(c, "Invalid days parameter", nil)
			return
		}
	}

	points, err := h.store.History(id, days)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to load price history")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product_id":    id,
		"product_name":  product.Name,
		"count":         len(points),
		"price_history": points,
	})
}
