package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/example/findmypet/internal/config"
	"github.com/example/findmypet/internal/handlers"
	"github.com/example/findmypet/internal/middleware"
	"github.com/example/findmypet/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {
	mailer := services.NewEmailService(cfg)
	messenger := services.NewWhatsAppService(cfg.WhatsAppAPIURL, cfg.WhatsAppToken)
	imageHost := services.NewImageHostService(cfg.ImageUploadURL, cfg.ImageUploadPreset)
	gateway := services.NewRazorpayClient(cfg.RazorpayBaseURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	orderService := services.NewOrderService(db, gateway, mailer, messenger, cfg.RazorpayKeySecret, cfg.ClientURL)

	authHandler := handlers.NewAuthHandler(db, cfg, mailer)
	petHandler := handlers.NewPetHandler(db, imageHost)
	orderHandler := handlers.NewOrderHandler(orderService)
	publicHandler := handlers.NewPublicHandler(db)
	adminHandler := handlers.NewAdminHandler(db, cfg, orderService)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/check-email", authHandler.CheckEmail)
	auth.Post("/login", middleware.OTPRateLimit(rdb, cfg.OTPRateLimit, cfg.OTPRateWindow), authHandler.Login)
	auth.Post("/verify-otp", authHandler.VerifyOTP)

	// Public scan page behind the QR codes
	public := api.Group("/public")
	public.Get("/scan/:petId", publicHandler.ScanPet)

	// Admin panel
	admin := api.Group("/admin")
	admin.Post("/login", adminHandler.Login)
	adminProtected := admin.Group("", middleware.AdminAuthMiddleware(cfg))
	adminProtected.Get("/dashboard", adminHandler.Dashboard)
	adminProtected.Get("/users", adminHandler.ListUsers)
	adminProtected.Get("/users/:userId/details", adminHandler.UserDetails)
	adminProtected.Post("/orders/backfill-qr", adminHandler.BackfillQR)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Put("/auth/profile", authHandler.UpdateProfile)

	protected.Post("/pet/create", petHandler.CreatePet)
	protected.Get("/pet/my-pets", petHandler.MyPets)

	protected.Post("/order/create", orderHandler.CreateOrder)
	protected.Get("/order/my-orders", orderHandler.MyOrders)
	protected.Post("/order/verify-payment", orderHandler.VerifyPayment)
}
