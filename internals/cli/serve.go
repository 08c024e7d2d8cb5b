package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"crowdfund_backend/internals/configs"
	database "crowdfund_backend/internals/databases"
	"crowdfund_backend/internals/features/donations/donations/scheduler"
	donationService "crowdfund_backend/internals/features/donations/donations/service"
	"crowdfund_backend/internals/features/payment/gateway"
	eventService "crowdfund_backend/internals/features/payment/gateway_events/service"
	helper "crowdfund_backend/internals/helpers"
	middlewares "crowdfund_backend/internals/middlewares"
	routes "crowdfund_backend/internals/route"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the webhook workers and the repair scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

// NewApp builds the fiber app with the shared middleware stack.
func NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return helper.FromError(c, err)
		},
	})

	middlewares.SetupMiddlewares(app)
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())
	return app
}

// newDonationService wires gateway and reconciler from env. Without a queue
// webhook events are applied inline.
func newDonationService(db *gorm.DB, withQueue bool) (*donationService.DonationService, error) {
	gw, err := gateway.NewFromConfig()
	if err != nil {
		return nil, err
	}
	svc := donationService.NewDonationService(db, gw, configs.DonationSettings())
	if withQueue {
		svc.UseDispatcher(eventService.NewDispatcherFromConfig(svc.Events))
		log.Printf("[INFO] payment gateway %s, webhook queue %s", gw.Name(), configs.WebhookQueue)
	}
	return svc, nil
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := database.ConnectDB()
	database.TunePool()
	database.WarmUpQueries()
	defer database.Close()

	svc, err := newDonationService(db, true)
	if err != nil {
		return fmt.Errorf("payment gateway: %w", err)
	}
	svc.Dispatch.Start(ctx)
	defer svc.Dispatch.Stop()

	scheduler.StartRepairScheduler(ctx, svc, configs.RepairInterval)

	app := NewApp()
	routes.SetupRoutes(app, db, svc)

	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] listening on :%s", port)
		errCh <- app.Listen("0.0.0.0:" + port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("[INFO] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
