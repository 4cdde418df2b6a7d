package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/fieldscope/surveyops-backend/internal/handlers"
	"github.com/fieldscope/surveyops-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler        *handlers.AuthHandler
	AuthMiddleware     *middleware.AuthMiddleware
	HealthcheckHandler *handlers.HealthcheckHandler
	SurveyHandler      *handlers.SurveyHandler
	FormHandler        *handlers.FormHandler
	GeoHandler         *handlers.GeoHandler
	RoleHandler        *handlers.RoleHandler
	EnumeratorHandler  *handlers.EnumeratorHandler
	TargetHandler      *handlers.TargetHandler
	MappingHandler     *handlers.MappingHandler
	AssignmentHandler  *handlers.AssignmentHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", cfg.HealthcheckHandler.Healthcheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)
	router.POST("/refresh", cfg.AuthHandler.Refresh)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	api.POST("/logout", cfg.AuthHandler.Logout)
	// Surveys
	api.POST("/surveys", cfg.SurveyHandler.Create)
	api.GET("/surveys", cfg.SurveyHandler.List)
	api.GET("/surveys/:survey_id", cfg.SurveyHandler.Get)
	api.PUT("/surveys/:survey_id/prime-geo-level", cfg.SurveyHandler.SetPrimeGeoLevel)
	// Forms
	api.POST("/forms", cfg.FormHandler.Create)
	api.GET("/forms/:form_uid", cfg.FormHandler.Get)
	api.GET("/surveys/:survey_id/forms", cfg.FormHandler.ListBySurvey)
	api.PUT("/forms/:form_uid/mapping-criteria", cfg.FormHandler.UpdateMappingCriteria)
	// Geo levels + locations
	api.PUT("/surveys/:survey_id/geo-levels", cfg.GeoHandler.ReplaceGeoLevels)
	api.GET("/surveys/:survey_id/geo-levels", cfg.GeoHandler.ListGeoLevels)
	api.PUT("/surveys/:survey_id/locations", cfg.GeoHandler.UploadLocations)
	api.GET("/surveys/:survey_id/locations", cfg.GeoHandler.ListLocations)
	// Roles + user hierarchy
	api.PUT("/surveys/:survey_id/roles", cfg.RoleHandler.ReplaceRoles)
	api.GET("/surveys/:survey_id/roles", cfg.RoleHandler.ListRoles)
	api.PUT("/surveys/:survey_id/user-hierarchy", cfg.RoleHandler.PutUserHierarchy)
	api.GET("/surveys/:survey_id/user-hierarchy", cfg.RoleHandler.GetUserHierarchy)
	api.DELETE("/surveys/:survey_id/user-hierarchy/:user_id", cfg.RoleHandler.DeleteUserHierarchy)
	// Enumerators
	api.POST("/enumerators", cfg.EnumeratorHandler.Create)
	api.GET("/enumerators", cfg.EnumeratorHandler.List)
	api.PATCH("/enumerators/:enumerator_uid/status", cfg.EnumeratorHandler.UpdateStatus)
	// Targets
	api.POST("/targets", cfg.TargetHandler.Create)
	api.GET("/targets", cfg.TargetHandler.List)
	api.PUT("/targets/:target_uid/status", cfg.TargetHandler.UpsertStatus)
	// Mapping engine
	api.GET("/mappings/targets", cfg.MappingHandler.GetTargetsMapping)
	api.POST("/mappings/generate", cfg.MappingHandler.Generate)
	api.PUT("/mappings", cfg.MappingHandler.SaveManual)
	api.GET("/mappings/config", cfg.MappingHandler.GetConfig)
	api.PUT("/mappings/config", cfg.MappingHandler.PutConfig)
	api.DELETE("/mappings/config", cfg.MappingHandler.DeleteConfig)
	// Assignments
	api.GET("/assignments", cfg.AssignmentHandler.Get)
	api.PUT("/assignments", cfg.AssignmentHandler.Put)
	api.POST("/assignments/upload", cfg.AssignmentHandler.Upload)

	return router
}
