package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"school-admin-system/handlers"
	"school-admin-system/middleware"
	"school-admin-system/models"
	"school-admin-system/services"
	"school-admin-system/utils"
	"school-admin-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB, badge icons are the largest upload
	})

	// Only Gateway requests allowed, no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Class{},
		&models.AttendanceRecord{},
		&models.GradeRecord{},
		&models.XPLedger{},
		&models.Level{},
		&models.Achievement{},
		&models.GamificationSettings{},
		&models.Badge{},
		&models.StudentBadge{},
		&models.Challenge{},
		&models.ChallengeParticipation{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	gamificationService := services.NewGamificationService(db)
	challengeService := services.NewChallengeService(db, gamificationService)
	badgeService := services.NewBadgeService(db, gamificationService)

	syncServiceURL := os.Getenv("SYNC_SERVICE_URL")
	if syncServiceURL == "" {
		log.Fatal("SYNC_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("SCHOOL_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("SCHOOL_SERVICE_TOKEN environment variable not set")
	}

	rosterWorker := workers.NewRosterSyncWorker(db, syncServiceURL, "/api/v1/public/students", serviceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("Starting Roster Sync Worker...")
		rosterWorker.Start(ctx)
	}()

	challengeService.StartDeadlineScheduler()

	handlers.SetupGamificationRoutes(app, gamificationService, badgeService)
	handlers.SetupChallengeRoutes(app, challengeService)
	handlers.SetupBadgeRoutes(app, badgeService)
	handlers.SetupAttendanceRoutes(app, db, gamificationService)
	handlers.SetupGradeRoutes(app, db, gamificationService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Roster Sync Worker running")
	log.Println("✅ Challenge deadline scheduler running (every 1m)")
	log.Println("✅ GatewayAuthMiddleware enforced globally, all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
