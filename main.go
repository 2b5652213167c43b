package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"drop-mission-service/handlers"
	"drop-mission-service/middleware"
	"drop-mission-service/models"
	"drop-mission-service/services"
	"drop-mission-service/utils"
	"drop-mission-service/workers"

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
		BodyLimit: 32 * 1024 * 1024, // evidence photos are compressed client-side
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
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
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	// Geofence radius is a product decision with no safe default; refuse to
	// boot without it rather than inventing one.
	radiusStr := os.Getenv("GEOFENCE_RADIUS_M")
	if radiusStr == "" {
		log.Fatal("GEOFENCE_RADIUS_M environment variable not set — proximity checks require an explicit radius")
	}
	geofenceRadiusM, err := strconv.ParseFloat(radiusStr, 64)
	if err != nil || geofenceRadiusM <= 0 {
		log.Fatalf("GEOFENCE_RADIUS_M must be a positive number, got %q", radiusStr)
	}

	// Day-bucketing timezone for stamp cards and quiet windows
	stampLoc := time.Local
	if tz := os.Getenv("STAMP_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			log.Fatalf("invalid STAMP_TIMEZONE %q: %v", tz, err)
		}
		stampLoc = loc
	}

	if os.Getenv("R2_ACCESS_KEY_ID") != "" {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
	} else {
		log.Println("⚠️  R2 not configured, evidence photos will be stored locally")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Board{},
		&models.Mission{},
		&models.BoardPost{},
		&models.PostComment{},
		&models.ParticipatedActivity{},
		&models.RepeatVisitProgress{},
		&models.CoinGrant{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.EnsureUploadDir(); err != nil {
		log.Fatal("failed to ensure upload dir:", err)
	}

	catalogService := services.NewCatalogService(db)
	activityService := services.NewActivityService(db, stampLoc)
	postService := services.NewPostService(db)
	peerRelay := services.NewPeerRelay()

	if err := catalogService.SeedCatalog(services.DefaultBoardSeeds); err != nil {
		log.Fatal("failed to seed mission catalog:", err)
	}

	walletClient := workers.NewWalletClient(db)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go workers.PollPendingGrants(ctx, walletClient, 10*time.Second)

	activityService.StartGrantAuditScheduler()

	handlers.SetupBoardRoutes(app, catalogService, postService)
	handlers.SetupActivityRoutes(app, activityService, catalogService, geofenceRadiusM)
	handlers.SetupPeerRoutes(app, peerRelay)

	app.Static("/uploads", "./uploads")

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Coin grant dispatch worker running (every 10s)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ Geofence radius: %.0fm, stamp timezone: %s", geofenceRadiusM, stampLoc)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
