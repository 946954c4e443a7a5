package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/survey_insights/backend/internal/config"
	"github.com/survey_insights/backend/internal/http/handlers"
	"github.com/survey_insights/backend/internal/http/middleware"
	"github.com/survey_insights/backend/internal/service"

	_ "github.com/survey_insights/backend/docs"
)

func Router(cfg config.Config, store handlers.SurveyStore, insights *service.InsightsService, loc *time.Location, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.AdminKeyHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:     store,
		Insights:  insights,
		Validator: validator.New(),
		Logger:    logger,
		Location:  loc,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/analytics", h.Analytics)
		api.GET("/analytics/nps", h.AnalyticsNPS)
		api.GET("/locations", h.LocationsList)
		api.POST("/submissions", h.SubmitSurvey)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/analytics/invalidate", h.InvalidateAnalytics)
		admin.PUT("/locations", h.UpsertLocations)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
