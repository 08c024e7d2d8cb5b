// file: internals/route/index.go
package routes

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"crowdfund_backend/internals/constants"
	campaignRoute "crowdfund_backend/internals/features/campaigns/campaigns/routes"
	donationRoute "crowdfund_backend/internals/features/donations/donations/routes"
	donationService "crowdfund_backend/internals/features/donations/donations/service"
	eventRoute "crowdfund_backend/internals/features/payment/gateway_events/routes"
	userRoute "crowdfund_backend/internals/features/users/users/routes"
	authMiddleware "crowdfund_backend/internals/middlewares/auth"
)

var startTime time.Time

// SetupRoutes mounts three groups:
//
//	/api    public, no token
//	/api/u  any signed-in user
//	/api/a  admins only
func SetupRoutes(app *fiber.App, db *gorm.DB, donations *donationService.DonationService) {
	startTime = time.Now()

	HealthRoutes(app, db)

	log.Println("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api")

	log.Println("[INFO] Setting up USER group...")
	user := app.Group("/api/u", authMiddleware.AuthJWT(db))

	log.Println("[INFO] Setting up ADMIN group...")
	admin := app.Group("/api/a",
		authMiddleware.AuthJWT(db),
		authMiddleware.OnlyRoles(constants.RoleErrorAdmin("this resource"), constants.AdminOnly...),
	)

	log.Println("[INFO] Mounting user routes...")
	userRoute.UserUserRoutes(user, db)
	userRoute.UserAdminRoutes(admin, db)

	log.Println("[INFO] Mounting campaign routes...")
	campaignRoute.CampaignPublicRoutes(public, db)
	campaignRoute.CampaignUserRoutes(user, db)
	campaignRoute.CampaignAdminRoutes(admin, db)

	log.Println("[INFO] Mounting donation routes...")
	donationRoute.DonationPublicRoutes(public, donations)
	donationRoute.DonationUserRoutes(user, donations)
	donationRoute.DonationAdminRoutes(admin, donations)

	log.Println("[INFO] Mounting payment gateway event routes...")
	eventRoute.PaymentGatewayEventAdminRoutes(admin, donations.Events)
}

func HealthRoutes(app *fiber.App, db *gorm.DB) {
	app.Get("/health", func(c *fiber.Ctx) error {
		dbStatus := "Connected"
		serverStatus := "OK"
		httpStatus := fiber.StatusOK

		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			dbStatus = "Database connection error"
			serverStatus = "DOWN"
			httpStatus = fiber.StatusServiceUnavailable
		}

		return c.Status(httpStatus).JSON(fiber.Map{
			"status":         serverStatus,
			"database":       dbStatus,
			"server_time":    time.Now().Format(time.RFC3339),
			"uptime_seconds": int(time.Since(startTime).Seconds()),
			"environment":    os.Getenv("RAILWAY_ENVIRONMENT"),
		})
	})
}
