package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/perchcam/perch/internal/accounts"
	"github.com/perchcam/perch/internal/auth"
	"github.com/perchcam/perch/internal/cameras"
	"github.com/perchcam/perch/internal/config"
	"github.com/perchcam/perch/internal/database"
	"github.com/perchcam/perch/internal/images"
	"github.com/perchcam/perch/internal/logging"
	"github.com/perchcam/perch/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "perch-api",
		Short: "Perch camera server backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	// A .env file is honored when present, matching how device installs
	// ship their configuration.
	_ = godotenv.Load()

	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-dsn", defaults.GetString("database.dsn"), "Database DSN (postgres URL or SQLite path)")
	cmd.PersistentFlags().String("images-directory", defaults.GetString("images.directory"), "Root directory of the image store")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().Int("bcrypt-cost", defaults.GetInt("password.bcrypt_cost"), "Bcrypt cost for password hashing")
	cmd.PersistentFlags().Int("default-interval", defaults.GetInt("camera.default_interval_s"), "Default camera polling interval in seconds")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.dsn", "database-dsn")
	bindFlag(cmd, "images.directory", "images-directory")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "password.bcrypt_cost", "bcrypt-cost")
	bindFlag(cmd, "camera.default_interval_s", "default-interval")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.Open(appConfig.DatabaseDSN, logger)
	if err != nil {
		return err
	}

	accountsService, err := accounts.NewService(accounts.ServiceConfig{
		Database:   db,
		BcryptCost: appConfig.BcryptCost,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	camerasService, err := cameras.NewService(cameras.ServiceConfig{
		Database:        db,
		DefaultInterval: appConfig.CameraInterval,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	authenticator, err := auth.NewAuthenticator(auth.AuthenticatorConfig{Database: db})
	if err != nil {
		return err
	}

	imageStore, err := images.NewStore(images.StoreConfig{
		Root:   appConfig.ImagesDirectory,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Accounts:      accountsService,
		Cameras:       camerasService,
		Authenticator: authenticator,
		Images:        imageStore,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
