package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"emprende/internal/adapter/api"
	"emprende/internal/adapter/api/handler"
	apimiddleware "emprende/internal/adapter/api/middleware"
	"emprende/internal/adapter/api/router"
	"emprende/internal/adapter/repository"
	"emprende/internal/domain/service"
	"emprende/internal/infrastructure/eventbus"
	"emprende/internal/infrastructure/firebase"
	"emprende/internal/infrastructure/ratelimit"
	"emprende/internal/infrastructure/storage"
	"emprende/internal/infrastructure/websocket"
	"emprende/internal/usecase"
	"emprende/pkg/config"
	"emprende/pkg/logger"
	"emprende/pkg/response"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("Server stopped with error: %v", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := credentialOptions(cfg)

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		return fmt.Errorf("initialize Firebase: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return fmt.Errorf("initialize Firebase Auth: %w", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		return fmt.Errorf("create Firestore client: %w", err)
	}
	defer firestoreClient.Close()

	uploader, err := newImageUploader(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer uploader.Close()

	bus, err := newEventBus(cfg)
	if err != nil {
		return err
	}
	defer bus.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	productRepo := repository.NewFirestoreProductRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)
	fileMetadataRepo := repository.NewFirestoreFileMetadataRepository(firestoreClient)

	firebaseAuthClient, err := firebase.NewFirebaseAuthClient(ctx, authClient, cfg.FirebaseApiKey)
	if err != nil {
		return err
	}

	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine(ctx)

	authUseCase := usecase.NewAuthUseCase(userRepo, firebaseAuthClient)
	fileUseCase := usecase.NewFileUseCase(uploader, fileMetadataRepo, rateLimiter, cfg.MaxUploadMB<<20)
	userUseCase := usecase.NewUserUseCase(userRepo, fileUseCase)
	productUseCase := usecase.NewProductUseCase(productRepo, userRepo, fileUseCase, rateLimiter)
	chatUseCase := usecase.NewChatUseCase(chatRepo, userRepo, productRepo, bus, rateLimiter)

	wsManager := websocket.NewManager(chatUseCase)
	wsManager.Start(ctx)

	handler.Setup(authUseCase, userUseCase, productUseCase, fileUseCase, chatUseCase)
	handler.SetupWebSocketHandler(ctx, wsManager, authUseCase, bus)
	handler.SetupHealthHandler()

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.MaxUploadMB+1)))

	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		response.Error(c, err)
	}

	authMiddleware := apimiddleware.NewAuthMiddleware(authUseCase)
	router.Setup(e, authMiddleware, rateLimiter)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server on port %s (media: %s)", cfg.ServerPort, cfg.MediaProvider)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
	case <-ctx.Done():
	}
	stop()

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown: %v", err)
	}

	// Sockets are hijacked and not closed by Shutdown; the manager closes them once ctx is done.
	select {
	case <-wsManager.Done():
	case <-shutdownCtx.Done():
		logger.Warn("Timed out waiting for WebSocket clients to close")
	}

	return nil
}

// credentialOptions prefers inline service-account JSON, then a file, then application default credentials.
func credentialOptions(cfg *config.Config) []option.ClientOption {
	if cfg.ServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))}
	}
	if cfg.ServiceAccountPath != "" {
		logger.Info("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
		return []option.ClientOption{option.WithCredentialsFile(cfg.ServiceAccountPath)}
	}
	logger.Info("Using application default credentials")
	return nil
}

func newImageUploader(ctx context.Context, cfg *config.Config, opts []option.ClientOption) (service.ImageUploadService, error) {
	switch cfg.MediaProvider {
	case config.MediaProviderGCS:
		client, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opts...)
		if err != nil {
			return nil, fmt.Errorf("initialize Cloud Storage: %w", err)
		}
		return client, nil
	default:
		return storage.NewCloudinaryClient(cfg.CloudinaryCloudName, cfg.CloudinaryUploadPreset), nil
	}
}

// newEventBus uses NATS when NATS_URL is set so notifications reach sockets on every instance.
func newEventBus(cfg *config.Config) (eventbus.Bus, error) {
	if cfg.NatsURL == "" {
		logger.Info("Using in-process event bus")
		return eventbus.NewLocalBus(), nil
	}

	bus, err := eventbus.NewNatsBus(cfg.NatsURL)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	logger.Info("Using NATS event bus at %s", cfg.NatsURL)
	return bus, nil
}
