package container

import (
	"context"
	"log/slog"

	"github.com/dipiu-foods/dipiu-api/internal/config"
	"github.com/dipiu-foods/dipiu-api/internal/models"
	"github.com/dipiu-foods/dipiu-api/internal/services"
	"github.com/dipiu-foods/dipiu-api/internal/stream"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container holds all application dependencies
type Container struct {
	Logger *slog.Logger
	Config *config.Config
	// Database clients
	SupabaseClient *supabase.Client
	MongoDBClient  *mongo.Client

	UserService    *services.UserService
	MarketService  *services.MarketService
	EnquiryService *services.EnquiryService

	// Live market views
	UpcomingWatcher *stream.Watcher
	AllWatcher      *stream.Watcher
}

// NewContainer creates a new dependency injection container
func NewContainer(
	logger *slog.Logger,
	cfg *config.Config,
	supabaseClient *supabase.Client,
	mongoDBClient *mongo.Client,
	supaUrl, supaKey string,
) *Container {
	// Initialize repositories
	supa := models.SupabaseNewRepo(supabaseClient, supaUrl, supaKey)
	mongoRepo := models.MongodbNewRepo(mongoDBClient)

	userService := services.NewUserService(supa)
	marketService := services.NewMarketService(mongoRepo, cfg.MarketUTCOffsetHours)
	enquiryService := services.NewEnquiryService(services.NewSMTPMailer(cfg), cfg)

	// One watcher per query shape. The upcoming watcher recomputes the
	// today boundary on every snapshot so a long-lived stream rolls over
	// at midnight.
	upcomingWatcher := stream.NewWatcher("upcoming", mongoRepo,
		func(ctx context.Context) ([]*models.Market, error) {
			return marketService.ListUpcomingMarkets(ctx)
		}, logger)
	allWatcher := stream.NewWatcher("all", mongoRepo,
		func(ctx context.Context) ([]*models.Market, error) {
			return marketService.ListAllMarkets(ctx)
		}, logger)

	return &Container{
		Logger:          logger,
		Config:          cfg,
		SupabaseClient:  supabaseClient,
		MongoDBClient:   mongoDBClient,
		UserService:     userService,
		MarketService:   marketService,
		EnquiryService:  enquiryService,
		UpcomingWatcher: upcomingWatcher,
		AllWatcher:      allWatcher,
	}
}
