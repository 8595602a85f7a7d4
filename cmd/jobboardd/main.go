// Command jobboardd serves the job-board notification API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/SherClockHolmes/webpush-go"
	"google.golang.org/api/option"

	"jobboard-notify-backend/config"
	"jobboard-notify-backend/internal/api"
	"jobboard-notify-backend/internal/db"
	"jobboard-notify-backend/internal/identity"
	"jobboard-notify-backend/internal/mw"
	"jobboard-notify-backend/internal/notification"
	"jobboard-notify-backend/internal/push"
	"jobboard-notify-backend/internal/store"
)

const shutdownGrace = 10 * time.Second

func main() {
	logger := log.New(os.Stdout, "jobboard-notify ", log.LstdFlags)

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, path, logger); err != nil {
		logger.Fatal(err)
	}
}

func run(ctx context.Context, path string, logger *log.Logger) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config %s: %w", path, err)
	}
	logger.Printf("config loaded from %s", path)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	st := store.NewGormStore(gormDB)

	native, verifier, err := setupFirebase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if cfg.Auth.Provider == config.AuthProviderJWT {
		verifier = identity.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	}

	vapid := &webpush.Options{
		Subscriber:      cfg.Push.Subject,
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		TTL:             cfg.Push.TTL,
		Urgency:         webpush.UrgencyHigh,
	}
	dispatcher := notification.NewDispatcher(st, native, push.NewWebPushSender(vapid), cfg.Dispatch.Concurrency, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(&cfg.Server, api.NewHandler(dispatcher, st, vapid), mw.NewGate(verifier, st)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s under %s", srv.Addr, cfg.Server.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Println("stopped")
	return nil
}

// setupFirebase builds the FCM sender and, for the firebase auth provider,
// the ID-token verifier. Both are nil without a project id.
func setupFirebase(ctx context.Context, cfg *config.Config, logger *log.Logger) (push.NativeSender, identity.Verifier, error) {
	if cfg.Firebase.ProjectID == "" {
		logger.Println("firebase.project_id is empty; native push is disabled")
		return nil, nil, nil
	}

	var opts []option.ClientOption
	if cfg.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.Firebase.ProjectID}, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("firebase app: %w", err)
	}

	messaging, err := app.Messaging(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("firebase messaging: %w", err)
	}

	var verifier identity.Verifier
	if cfg.Auth.Provider == config.AuthProviderFirebase {
		authClient, err := app.Auth(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("firebase auth: %w", err)
		}
		verifier = identity.NewFirebaseVerifier(authClient)
	}

	logger.Printf("firebase ready for project %s", cfg.Firebase.ProjectID)
	return push.NewFCMSender(messaging), verifier, nil
}
