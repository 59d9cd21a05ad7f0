package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/MDA04systack/devlog/internal/adminservice"
	"github.com/MDA04systack/devlog/internal/bookmarkservice"
	"github.com/MDA04systack/devlog/internal/commentservice"
	"github.com/MDA04systack/devlog/internal/common"
	"github.com/MDA04systack/devlog/internal/imageservice"
	"github.com/MDA04systack/devlog/internal/mailservice"
	"github.com/MDA04systack/devlog/internal/postservice"
	"github.com/MDA04systack/devlog/internal/userservice"
)

type application struct {
	config          *Config
	logger          *slog.Logger
	userService     *userservice.UserService
	postService     *postservice.PostService
	commentService  *commentservice.CommentService
	bookmarkService *bookmarkservice.BookmarkService
	adminService    *adminservice.AdminService
	mailService     *mailservice.MailService
	imageService    *imageservice.ImageService
	broker          *common.MessageBroker
}

func main() {
	// Initialize the logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load the configuration
	cfg, err := loadConfig(".env")
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize the database
	db, err := common.NewDB(cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, 10, 5, 15*time.Minute)
	if err != nil {
		logger.Error("failed to connect to the database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer common.CloseDB(db)

	if cfg.DB.AutoMigrate {
		err = common.MigrateDB("file://migrations", cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name)
		if err != nil {
			logger.Error("failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Initialize the message broker
	URI := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)
	broker, err := common.NewMessageBroker(URI)
	if err != nil {
		logger.Error("failed to connect to the message broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer broker.Close()

	// Setup the exchange, queues, and binding keys
	err = common.SetupMailExchange(broker)
	if err != nil {
		logger.Error("failed to setup the mail exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize the object store
	imageService, err := imageservice.NewImageService(context.Background(), cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.Bucket, cfg.MinIO.PublicURL, cfg.MinIO.UseSSL)
	if err != nil {
		logger.Error("failed to connect to the object store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize the services. The user service doubles as the moderation
	// gate consulted by the post and comment services.
	cache := common.NewCache(5*time.Minute, 10*time.Minute)
	userService := userservice.NewUserService(db, broker, cache, logger)

	// Bootstrap the administrator account so the back office is reachable on
	// a fresh deployment.
	if cfg.Admin.Username != "" {
		err = userService.EnsureAdmin(context.Background(), &userservice.CreateUserRequest{
			Username: cfg.Admin.Username,
			Email:    cfg.Admin.Email,
			Nickname: cfg.Admin.Nickname,
			Password: cfg.Admin.Password,
		})
		if err != nil {
			logger.Error("failed to bootstrap the admin account", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	app := &application{
		config:          cfg,
		logger:          logger,
		userService:     userService,
		postService:     postservice.NewPostService(db, userService, cache),
		commentService:  commentservice.NewCommentService(db, userService),
		bookmarkService: bookmarkservice.NewBookmarkService(db),
		adminService:    adminservice.NewAdminService(db, broker, cache, logger),
		mailService:     mailservice.NewMailService(broker, cfg.Mail.Host, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.Sender, cfg.Mail.Port, logger),
		imageService:    imageService,
		broker:          broker,
	}

	// Initialize the consumers
	app.mailService.SendActivationEmails()
	app.mailService.SendPasswordResetEmails()
	app.mailService.SendEmailChangeEmails()
	app.mailService.SendSuspensionNotices()
	app.mailService.SendUnsuspensionNotices()

	// Start the HTTP server
	err = app.serve(cfg.Port)
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
