package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/minsu-lab/mstrack/internal/models"
)

func registerTools(s *server.MCPServer, deps Deps) {
	// track_product
	trackTool := mcp.NewTool("track_product",
		mcp.WithDescription("Register a Musinsa product URL for price tracking and record its first price point"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Musinsa product page URL"),
		),
	)
	s.AddTool(trackTool, deps.handleTrackProduct)

	// product_detail
	detailTool := mcp.NewTool("product_detail",
		mcp.WithDescription("Extract live product details from a Musinsa product page without saving anything"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Musinsa product page URL"),
		),
	)
	s.AddTool(detailTool, deps.handleProductDetail)

	// crawl_category
	crawlTool := mcp.NewTool("crawl_category",
		mcp.WithDescription("Crawl a Musinsa category listing and optionally save the discovered products for tracking"),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Category code (e.g. 001) or display name (e.g. 상의)"),
		),
		mcp.WithNumber("count",
			mcp.Description("Products to collect (default: 20)"),
		),
		mcp.WithBoolean("save",
			mcp.Description("Save discovered products and first price points (default: false)"),
		),
	)
	s.AddTool(crawlTool, deps.handleCrawlCategory)

	// price_history
	historyTool := mcp.NewTool("price_history",
		mcp.WithDescription("Get the recorded price history of a tracked product"),
		mcp.WithNumber("product_id",
			mcp.Required(),
			mcp.Description("Tracked product ID"),
		),
		mcp.WithNumber("days",
			mcp.Description("History window in days (default: 30)"),
		),
	)
	s.AddTool(historyTool, deps.handlePriceHistory)

	// list_categories
	categoriesTool := mcp.NewTool("list_categories",
		mcp.WithDescription("List the known Musinsa categories with their listing codes"),
	)
	s.AddTool(categoriesTool, deps.handleListCategories)
}

func (d Deps) handleTrackProduct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url := request.GetString("url", "")
	if url == "" {
		return mcp.NewToolResultError("url is required"), nil
	}

	product, err := d.Reconciler.Register(ctx, url)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("track error: %v", err)), nil
	}

	data, _ := json.MarshalIndent(product, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func (d Deps) handleProductDetail(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url := request.GetString("url", "")
	if url == "" {
		return mcp.NewToolResultError("url is required"), nil
	}

	snapshot, err := d.Scraper.ProductDetail(ctx, url)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("detail error: %v", err)), nil
	}

	data, _ := json.MarshalIndent(snapshot, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func (d Deps) handleCrawlCategory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := request.GetString("category", "")
	if category == "" {
		return mcp.NewToolResultError("category is required"), nil
	}
	count := request.GetInt("count", 20)
	save := request.GetBool("save", false)

	code := category
	if !d.Registry.ValidCode(ctx, code) {
		resolved, ok := d.Registry.CodeFor(ctx, category)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown category %q", category)), nil
		}
		code = resolved
	}

	result, err := d.Reconciler.CrawlCategories(ctx, []string{code}, count, save)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("crawl error: %v", err)), nil
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func (d Deps) handlePriceHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	productID := request.GetInt("product_id", 0)
	if productID <= 0 {
		return mcp.NewToolResultError("product_id is required"), nil
	}
	days := request.GetInt("days", 30)

	product, err := d.Store.ByID(uint(productID))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup error: %v", err)), nil
	}
	if product == nil {
		return mcp.NewToolResultError(fmt.Sprintf("product %d is not tracked", productID)), nil
	}

	points, err := d.Store.History(product.ID, days)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("history error: %v", err)), nil
	}

	payload := struct {
		ProductID    uint                `json:"product_id"`
		ProductName  string              `json:"product_name"`
		Count        int                 `json:"count"`
		PriceHistory []models.PricePoint `json:"price_history"`
	}{product.ID, product.Name, len(points), points}

	data, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func (d Deps) handleListCategories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	table := d.Registry.Categories(ctx)

	type category struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	categories := make([]category, 0, len(table))
	for _, name := range d.Registry.Names(ctx) {
		categories = append(categories, category{Code: table[name], Name: name})
	}

	data, _ := json.MarshalIndent(categories, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}
