package commands

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/omnifs/omnifs/internal/config"
	"github.com/omnifs/omnifs/internal/logger"
	"github.com/omnifs/omnifs/pkg/container"
	"github.com/omnifs/omnifs/pkg/metrics"
	"github.com/omnifs/omnifs/pkg/server"
	"github.com/omnifs/omnifs/pkg/service"
	"github.com/omnifs/omnifs/pkg/usermanager"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load (or format) the container and start the TCP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}

	state, bootstrapped, err := loadOrFormatContainer(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	svc := service.New(state, m)

	if bootstrapped {
		if err := bootstrapAdmin(svc, cfg); err != nil {
			return fmt.Errorf("bootstrap admin user: %w", err)
		}
	}

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Port, reg)
	}

	srv := server.New(svc, m, int(cfg.Server.MaxConnections)*4)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(fmt.Sprintf(":%d", cfg.Server.Port))
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("omnifs server is running", "port", cfg.Server.Port)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, draining and saving")
		srv.Shutdown()
	case err := <-serverDone:
		if err != nil {
			logger.Error("server exited with error", logger.KeyError, err.Error())
		}
	}

	if err := container.Save(containerFile, state.Header, svc.SnapshotUsers(), svc.Root, svc.Allocator); err != nil {
		return fmt.Errorf("save container on shutdown: %w", err)
	}
	logger.Info("container saved, shutdown complete")
	return nil
}

func loadOrFormatContainer(cfg *config.Config) (*container.State, bool, error) {
	if _, err := os.Stat(containerFile); err == nil {
		state, err := container.Load(containerFile)
		return state, false, err
	}

	state, err := container.Format(containerFile, container.FormatOptions{
		TotalSize:       cfg.Filesystem.TotalSize.Uint64(),
		BlockSize:       cfg.Filesystem.BlockSize.Uint64(),
		MaxUsers:        cfg.Security.MaxUsers,
		ConfigHash:      cfg.ConfigHash,
		ConfigTimestamp: cfg.ConfigTimestamp,
	})
	return state, true, err
}

func bootstrapAdmin(svc *service.Service, cfg *config.Config) error {
	username := cfg.Security.AdminUsername
	if username == "" {
		username = "admin"
	}
	password := cfg.Security.AdminPassword
	if password == "" {
		password = "admin"
	}

	if _, err := svc.Users.CreateUser(username, password, usermanager.RoleAdmin, 0); err != nil {
		return fmt.Errorf("%s", err.Message)
	}

	bold := promptui.Styler(promptui.FGBold, promptui.FGGreen)
	fmt.Println(bold("Bootstrap admin user created"))
	fmt.Printf("  username: %s\n", username)
	fmt.Printf("  password: %s\n", password)
	fmt.Println("This message is only printed once, on first run.")
	return nil
}

func serveMetrics(port uint16, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	addr := fmt.Sprintf(":%d", port)
	logger.Info("metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server exited", logger.KeyError, err.Error())
	}
}
