package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sarbojanin/clubsite/internal/config"
	"github.com/sarbojanin/clubsite/internal/db"
	"github.com/sarbojanin/clubsite/internal/repository"
	"github.com/sarbojanin/clubsite/internal/service"
	"github.com/sarbojanin/clubsite/internal/storage"
)

type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB
	AuthService     *service.AuthService
	MediaService    *service.MediaService
	ExpenseService  *service.ExpenseService
	DonationService *service.DonationService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	roleRepository := repository.NewRoleRepository(database)
	mediaRepository := repository.NewMediaRepository(database)
	expenseRepository := repository.NewExpenseRepository(database)

	// Storage: two public-read buckets, one for gallery media and one for
	// the donation QR image
	store, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	ctx := context.Background()
	mediaBucket, err := store.Bucket(ctx, cfg.S3MediaBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to open media bucket: %v", err)
	}
	donationsBucket, err := store.Bucket(ctx, cfg.S3DonationsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to open donations bucket: %v", err)
	}

	// Services
	authService := service.NewAuthService(
		userRepository,
		roleRepository,
		cfg.AdminEmails,
		cfg.JWTSecret,
		cfg.IsProduction(),
		cfg.JWTExpiry,
	)
	mediaService := service.NewMediaService(mediaRepository, mediaBucket)
	expenseService := service.NewExpenseService(expenseRepository)
	donationService := service.NewDonationService(donationsBucket)

	return &App{
		Cfg:             cfg,
		DB:              database,
		AuthService:     authService,
		MediaService:    mediaService,
		ExpenseService:  expenseService,
		DonationService: donationService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
