package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fieldscope/surveyops-backend/internal/db"
	"github.com/fieldscope/surveyops-backend/internal/handlers"
	"github.com/fieldscope/surveyops-backend/internal/logger"
	"github.com/fieldscope/surveyops-backend/internal/middleware"
	"github.com/fieldscope/surveyops-backend/internal/repos"
	"github.com/fieldscope/surveyops-backend/internal/server"
	"github.com/fieldscope/surveyops-backend/internal/services"
	"github.com/fieldscope/surveyops-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Redis (optional; location ancestry cache)
	var rdb *redis.Client
	if addr := utils.GetEnv("REDIS_ADDR", "", log); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr, DialTimeout: 5 * time.Second})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis ping failed, continuing without cache", "error", err)
			rdb = nil
		}
		cancel()
	}

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	surveyRepo := repos.NewSurveyRepo(thePG, log)
	formRepo := repos.NewFormRepo(thePG, log)
	geoLevelRepo := repos.NewGeoLevelRepo(thePG, log)
	locationRepo := repos.NewLocationRepo(thePG, log)
	roleRepo := repos.NewRoleRepo(thePG, log)
	userHierarchyRepo := repos.NewUserHierarchyRepo(thePG, log)
	enumeratorRepo := repos.NewEnumeratorRepo(thePG, log)
	targetRepo := repos.NewTargetRepo(thePG, log)
	targetStatusRepo := repos.NewTargetStatusRepo(thePG, log)
	mappingRepo := repos.NewUserTargetMappingRepo(thePG, log)
	configRepo := repos.NewUserMappingConfigRepo(thePG, log)
	assignmentRepo := repos.NewSurveyorAssignmentRepo(thePG, log)
	scheduleRepo := repos.NewAssignmentEmailScheduleRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(thePG, log, userRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	surveyService := services.NewSurveyService(thePG, log, surveyRepo)
	formService := services.NewFormService(thePG, log, formRepo, surveyService)
	geoLevelService := services.NewGeoLevelService(thePG, log, geoLevelRepo, surveyService)
	locationService := services.NewLocationService(thePG, log, locationRepo, geoLevelService, surveyService, rdb)
	roleService := services.NewRoleService(thePG, log, roleRepo, surveyService)
	userHierarchyService := services.NewUserHierarchyService(thePG, log, userHierarchyRepo, roleService, surveyService)
	enumeratorService := services.NewEnumeratorService(thePG, log, enumeratorRepo, formService, surveyService)
	targetService := services.NewTargetService(thePG, log, targetRepo, targetStatusRepo, formService, surveyService)
	mappingService := services.NewMappingService(thePG, log, formRepo, surveyRepo, targetRepo, enumeratorRepo, userHierarchyRepo, mappingRepo, configRepo, roleService, locationService, userHierarchyService)
	assignmentService := services.NewAssignmentService(thePG, log, assignmentRepo, targetRepo, targetStatusRepo, enumeratorRepo, scheduleRepo, formRepo, mappingService, userHierarchyService)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	healthcheckHandler := handlers.NewHealthcheckHandler()
	surveyHandler := handlers.NewSurveyHandler(surveyService)
	formHandler := handlers.NewFormHandler(formService)
	geoHandler := handlers.NewGeoHandler(geoLevelService, locationService)
	roleHandler := handlers.NewRoleHandler(roleService, userHierarchyService)
	enumeratorHandler := handlers.NewEnumeratorHandler(enumeratorService)
	targetHandler := handlers.NewTargetHandler(targetService)
	mappingHandler := handlers.NewMappingHandler(mappingService)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:        authHandler,
		AuthMiddleware:     authMiddleware,
		HealthcheckHandler: healthcheckHandler,
		SurveyHandler:      surveyHandler,
		FormHandler:        formHandler,
		GeoHandler:         geoHandler,
		RoleHandler:        roleHandler,
		EnumeratorHandler:  enumeratorHandler,
		TargetHandler:      targetHandler,
		MappingHandler:     mappingHandler,
		AssignmentHandler:  assignmentHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
