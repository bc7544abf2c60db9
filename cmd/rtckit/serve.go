package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"rtckit/internal/core/services"
	httphandlers "rtckit/internal/handlers/http"
	"rtckit/internal/infrastructure/distributed"
	"rtckit/internal/infrastructure/monitoring"
	"rtckit/internal/infrastructure/repositories"
	chat "rtckit/internal/infrastructure/signal"
	webrtcinfra "rtckit/internal/infrastructure/webrtc"
	"rtckit/pkg/config"
	"rtckit/pkg/logger"
	"rtckit/pkg/sanitize"
	"rtckit/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func commandServe() *cobra.Command {
	var configPath, listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and chat relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Address = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "configs/config.yaml", "path to the YAML config file")
	cmd.Flags().StringVar(&listen, "listen", "", "override server.address")
	return cmd
}

func iceServers(cfg *config.Config) []webrtc.ICEServer {
	servers := make([]webrtc.ICEServer, 0, len(cfg.WebRTC.ICEServers))
	for _, s := range cfg.WebRTC.ICEServers {
		servers = append(servers, webrtc.ICEServer{
			URLs:       s.URLs,
			Username:   s.Username,
			Credential: s.Credential,
		})
	}
	return servers
}

// buildServer wires every component from cfg. The returned cleanup releases
// the relay and storage.
func buildServer(cfg *config.Config, reg *prometheus.Registry, log *zap.SugaredLogger) (*http.Server, func(), error) {
	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create repository factory: %w", err)
	}
	fileRepo := repoFactory.CreateSharedFileRepository()

	metrics := monitoring.NewPrometheusCollector(reg)

	sanitizer, err := sanitize.New(cfg.Sanitizer.Policy)
	if err != nil {
		repoFactory.Close()
		return nil, nil, err
	}

	webrtcConfig := webrtcinfra.WebRTCConfig{ICEServers: iceServers(cfg)}
	webrtcConfig.PortRange.Min = cfg.WebRTC.PortRange.Min
	webrtcConfig.PortRange.Max = cfg.WebRTC.PortRange.Max
	peerFactory, err := webrtcinfra.NewPeerFactory(webrtcConfig, log)
	if err != nil {
		repoFactory.Close()
		return nil, nil, fmt.Errorf("failed to create peer factory: %w", err)
	}

	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	sdpService := services.NewSDPService(peerFactory, services.SDPServiceConfig{
		PreferredCodec:     cfg.SDP.PreferredCodec,
		NegotiationTimeout: cfg.WebRTC.NegotiationTimeout,
	}, metrics, log)

	relayConfig := chat.Config{
		PingInterval:   cfg.Signal.PingInterval,
		PongTimeout:    cfg.Signal.PongTimeout,
		WriteTimeout:   cfg.Signal.WriteTimeout,
		SendBufferSize: cfg.Signal.SendBufferSize,
		MaxMessageSize: cfg.RateLimiting.WebSocket.MaxMessageSizeBytes,
		AllowedOrigins: cfg.Auth.AllowedOrigins,
	}
	if cfg.RateLimiting.Enabled {
		relayConfig.MessagesPerSecond = cfg.RateLimiting.WebSocket.MessagesPerSecond
		relayConfig.Burst = cfg.RateLimiting.WebSocket.Burst
		relayConfig.MaxConnections = cfg.RateLimiting.WebSocket.MaxConcurrent
	}
	relay := chat.NewChatRelay(authService, sanitizer, metrics, relayConfig, log)
	stopFanout := startFanout(repoFactory, relay, log)

	fileService := services.NewSharedFileService(fileRepo, services.SharedFileConfig{
		MaxFilesize:       cfg.Files.MaxFilesize,
		MaxFilenameLength: cfg.Files.MaxFilenameLength,
	}, relay, metrics, log)

	checker := monitoring.NewHealthChecker()
	checker.AddRepositoryCheck(fileRepo, cfg.Monitoring.HealthTimeout)
	if client := repoFactory.RedisClient(); client != nil {
		checker.AddRedisCheck(client, cfg.Monitoring.HealthTimeout)
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httphandlers.NewRouter(cfg, authService, httphandlers.Handlers{
		Auth:      httphandlers.NewAuthHandler(authService, cfg.Auth.AccessTokenTTL),
		SDP:       httphandlers.NewSDPHandler(sdpService),
		Files:     httphandlers.NewFileHandler(fileService),
		HTML:      httphandlers.NewHTMLHandler(sanitizer, metrics),
		Health:    httphandlers.NewHealthHandler(checker),
		ChatRelay: relay.HandleWebSocket,
		Metrics:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}, log)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	cleanup := func() {
		stopFanout()
		relay.Close()
		if err := repoFactory.Close(); err != nil {
			log.Errorw("error closing repository factory", "error", err)
		}
	}
	return srv, cleanup, nil
}

// startFanout links the relay to relays on other instances through the Redis
// event bus. It is a no-op without Redis.
func startFanout(repoFactory *repositories.RepositoryFactory, relay *chat.ChatRelay, log *zap.SugaredLogger) func() {
	client := repoFactory.RedisClient()
	if client == nil {
		return func() {}
	}

	instanceID := uuid.NewString()
	bus := distributed.NewEventBus(client, instanceID, log)
	relay.SetFanout(bus)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		err := bus.Subscribe(ctx, func(e *distributed.Event) error {
			if e.Type != distributed.EventChatFrame {
				return fmt.Errorf("unexpected event type %q", e.Type)
			}
			relay.DeliverFrame(e.SessionID, e.Payload)
			return nil
		})
		if err != nil && ctx.Err() == nil {
			log.Errorw("chat fan-out subscription ended", "error", err)
		}
	}()
	log.Infow("chat fan-out enabled", "instance_id", instanceID)

	return func() {
		relay.SetFanout(nil)
		cancel()
		bus.Close()
		<-done
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv, cleanup, err := buildServer(cfg, reg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("starting rtckit server", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		log.Info("shutting down rtckit server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("error force closing server", "error", closeErr)
		}
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Warnw("error flushing traces", "error", err)
	}

	log.Info("rtckit server stopped")
	return nil
}
