package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/minsu-lab/mstrack/config"
	"github.com/minsu-lab/mstrack/internal/httputil"
	"github.com/minsu-lab/mstrack/internal/musinsa"
	"github.com/minsu-lab/mstrack/internal/stealth"
	"github.com/minsu-lab/mstrack/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "mstrack",
	Short: "Musinsa price tracker - crawler, API server and MCP tools",
	Long:  "A Go-based price tracker for Musinsa: category discovery crawls, scheduled price refreshes, a REST API with analytics, and an MCP server.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("delay-profile", "normal", "Delay profile: cautious, normal, aggressive")
	rootCmd.PersistentFlags().Bool("respect-robots", true, "Respect robots.txt rules")
	rootCmd.PersistentFlags().String("proxies", "", "Comma-separated proxy URLs")
}

func initConfig() {
	cfg = config.DefaultConfig()
	cfg.LoadFromEnv()

	// Override from flags
	if v, _ := rootCmd.PersistentFlags().GetString("delay-profile"); v != "" {
		cfg.DelayProfile = v
	}
	if v, _ := rootCmd.PersistentFlags().GetBool("respect-robots"); !v {
		cfg.RespectRobots = false
	}
	if v, _ := rootCmd.PersistentFlags().GetString("proxies"); v != "" {
		cfg.ProxyURLs = v
	}
}

// buildHTTPClient creates the stealth-wrapped HTTP client from config.
func buildHTTPClient() *http.Client {
	fpPool := stealth.NewFingerprintPool()
	delay := stealth.NewHumanDelay(stealth.DelayProfile(cfg.DelayProfile))
	limiter := rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst)

	proxyRotator := stealth.NewProxyRotator(cfg.ProxyURLs)
	if n := proxyRotator.Size(); n > 0 {
		logrus.WithField("proxies", n).Info("Proxy rotation enabled")
	}

	robotsClient := &http.Client{}
	robots := stealth.NewRobotsChecker(robotsClient, cfg.RespectRobots)

	transport := &stealth.StealthTransport{
		Base: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
		},
		Robots:      robots,
		Fingerprint: fpPool,
		Proxy:       proxyRotator,
		Delay:       delay,
		RateLimiter: limiter,
	}

	return httputil.NewHTTPClient(transport)
}

// newScraper assembles the Musinsa scraper with its category registry.
func newScraper() *musinsa.Scraper {
	client := buildHTTPClient()
	limiter := rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst)
	registry := musinsa.NewRegistry(nil, time.Hour)
	return musinsa.NewScraper(client, registry, limiter, cfg.UserAgent, musinsa.ListingOptions{
		Target:      cfg.ListingTarget,
		MaxRounds:   cfg.MaxScrollRounds,
		InitialWait: cfg.InitialWait,
		SettleWait:  cfg.ScrollSettleWait,
	})
}

// openDB connects to PostgreSQL and migrates the schema.
func openDB() (*gorm.DB, error) {
	db, err := store.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(db); err != nil {
		store.Close(db)
		return nil, err
	}
	return db, nil
}
