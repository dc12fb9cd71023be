package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/minsu-lab/mstrack/internal/musinsa"
	"github.com/minsu-lab/mstrack/internal/scheduler"
	"github.com/minsu-lab/mstrack/internal/tracker"
	"github.com/minsu-lab/mstrack/internal/utils"
	"github.com/minsu-lab/mstrack/metrics"
)

type CrawlHandler struct {
	reconciler    *tracker.Reconciler
	refresher     *tracker.Refresher
	scheduler     *scheduler.Scheduler
	registry      *musinsa.Registry
	defaultTarget int
}

func NewCrawlHandler(rec *tracker.Reconciler, ref *tracker.Refresher, sched *scheduler.Scheduler, reg *musinsa.Registry, defaultTarget int) *CrawlHandler {
	return &CrawlHandler{
		reconciler:    rec,
		refresher:     ref,
		scheduler:     sched,
		registry:      reg,
		defaultTarget: defaultTarget,
	}
}

type crawlCategoriesRequest struct {
	CategoryCodes []string `json:"category_codes" validate:"required,min=1,dive,category_code"`
	TargetCount   int      `json:"target_count" validate:"omitempty,min=1,max=500"`
	SaveToDB      *bool    `json:"save_to_db"`
}

// POST /v1/crawl/categories
//
// The crawl runs synchronously on the request; partial failures come
// back inside the summary rather than as an error status.
func (h *CrawlHandler) CrawlCategories(c *gin.Context) {
	var req crawlCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	target := req.TargetCount
	if target <= 0 {
		target = h.defaultTarget
	}
	save := true
	if req.SaveToDB != nil {
		save = *req.SaveToDB
	}

	operator, _ := utils.GetUserFromContext(c)
	logrus.WithFields(logrus.Fields{
		"categories": req.CategoryCodes,
		"target":     target,
		"user":       operator,
	}).Info("Category crawl requested")

	start := time.Now()
	result, err := h.reconciler.CrawlCategories(c.Request.Context(), req.CategoryCodes, target, save)
	if err != nil {
		var invalid *tracker.InvalidCategoryError
		if errors.As(err, &invalid) {
			utils.BadRequestResponse(c, "Unknown category codes", gin.H{
				"invalid_codes": invalid.Codes,
			})
			return
		}
		metrics.RecordCrawl("discovery", time.Since(start), 0, err)
		utils.InternalErrorResponse(c, "Category crawl failed")
		return
	}

	metrics.RecordCrawl("discovery", time.Since(start), result.TotalSaved, nil)
	metrics.RecordPricePoints(result.TotalSaved)
	utils.SuccessResponse(c, result)
}

// POST /v1/crawl/refresh
func (h *CrawlHandler) RefreshAll(c *gin.Context) {
	operator, _ := utils.GetUserFromContext(c)
	logrus.WithField("user", operator).Info("Price refresh requested")

	start := time.Now()
	result, err := h.refresher.RefreshAll(c.Request.Context())
	if err != nil {
		metrics.RecordCrawl("refresh", time.Since(start), 0, err)
		utils.InternalErrorResponse(c, "Price refresh failed")
		return
	}

	metrics.RecordCrawl("refresh", time.Since(start), result.Success, nil)
	metrics.RecordPricePoints(result.Success)
	utils.SuccessResponse(c, result)
}

// GET /v1/scheduler/status
func (h *CrawlHandler) SchedulerStatus(c *gin.Context) {
	if h.scheduler == nil {
		utils.SuccessResponse(c, scheduler.Status{Jobs: []scheduler.JobStatus{}})
		return
	}
	utils.SuccessResponse(c, h.scheduler.Status())
}

// GET /v1/categories
func (h *CrawlHandler) Categories(c *gin.Context) {
	categories := h.registry.Categories(c.Request.Context())
	utils.SuccessResponse(c, gin.H{
		"categories": categories,
		"count":      len(categories),
	})
}
