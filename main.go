package main

import (
	"fmt"
	"log"

	"github.com/SaeedKolahi/language-learners-manager/config"
	"github.com/SaeedKolahi/language-learners-manager/controllers"
	"github.com/SaeedKolahi/language-learners-manager/database"
	"github.com/SaeedKolahi/language-learners-manager/middleware"
	"github.com/SaeedKolahi/language-learners-manager/services"
	"github.com/gin-gonic/gin"
)

func initReminderScheduler(db *database.Database, emailService *services.EmailService, cfg *config.Config) {
	telegramService := services.NewTelegramService(cfg.Telegram.APIBaseURL)
	scheduler := services.NewReminderSchedulerService(db.GetDB(), telegramService, emailService, cfg)
	scheduler.Start()
	log.Println("Reminder scheduler started")
}

func setupRouter(db *database.Database, cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RateLimit())

	authController := controllers.NewAuthController(db, cfg)
	learnerController := controllers.NewLearnerController(db)
	installmentController := controllers.NewInstallmentController(db)
	reminderController := controllers.NewReminderController(db)
	exportController := controllers.NewExportController(db)

	router.GET("/api/health", controllers.Health)
	router.POST("/api/auth/signIn", authController.SignIn)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware([]byte(cfg.JWT.SecretKey)))
	{
		protected.GET("/auth/me", authController.Me)
		protected.POST("/auth/changePassword", authController.ChangePassword)
		protected.POST("/users", authController.CreateUser)

		protected.GET("/learners", learnerController.List)
		protected.POST("/learners", learnerController.Create)
		protected.GET("/learners/:id", learnerController.Get)
		protected.PUT("/learners/:id", learnerController.Update)
		protected.DELETE("/learners/:id", learnerController.Delete)
		protected.GET("/learners/:id/history", learnerController.History)
		protected.PUT("/learners/:id/amounts", learnerController.SaveAmounts)

		protected.GET("/installments/upcoming", installmentController.ListUpcoming)
		protected.GET("/installments/paid", installmentController.ListPaid)
		protected.PUT("/installments/:id/payment", installmentController.RecordPayment)
		protected.DELETE("/installments/:id/payment", installmentController.RemovePayment)
		protected.PUT("/installments/:id/note", installmentController.SaveNote)

		protected.GET("/reminders", reminderController.List)
		protected.POST("/reminders", reminderController.Create)
		protected.PUT("/reminders/:id/complete", reminderController.Complete)

		protected.GET("/export/learners.xml", exportController.LearnersXML)
	}

	return router
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	emailService := services.NewEmailService(cfg)
	initReminderScheduler(db, emailService, cfg)

	router := setupRouter(db, cfg)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
