package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/vtc-gradebook-api/internal/handler"
	"github.com/noah-isme/vtc-gradebook-api/internal/middleware"
	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	"github.com/noah-isme/vtc-gradebook-api/pkg/config"
)

type routeHandlers struct {
	gradebooks *handler.GradebookHandler
	components *handler.ComponentHandler
	marks      *handler.MarkHandler
	roster     *handler.RosterHandler
	queries    *handler.MarkQueryHandler
	exports    *handler.ExportHandler
	ops        *handler.MetricsHandler
}

var (
	allRoles     = append([]models.UserRole{models.RoleTrainee}, models.StaffRoles...)
	trainerOnly  = []models.UserRole{models.RoleTrainer}
	rosterAdmins = []models.UserRole{models.RoleTrainer, models.RoleAdmin}
)

func registerRoutes(r *gin.Engine, cfg *config.Config, logr *zap.Logger, auth middleware.TokenValidator, h routeHandlers) {
	r.GET("/health", h.ops.Health)
	r.GET("/ready", h.ops.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", h.ops.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(auth))

	staff := middleware.RequireRoles(models.StaffRoles...)
	anyone := middleware.RequireRoles(allRoles...)
	trainer := middleware.RequireRoles(trainerOnly...)
	audit := func(action string) gin.HandlerFunc { return middleware.Audit(logr, action) }

	api.GET("/gradebooks", staff, h.gradebooks.List)
	api.POST("/gradebooks", trainer, audit("gradebook.create"), h.gradebooks.Create)

	gb := api.Group("/gradebooks/:id")
	gb.GET("", anyone, h.gradebooks.Get)
	gb.PATCH("/weights", trainer, audit("gradebook.weights"), h.gradebooks.UpdateWeights)
	gb.GET("/sheet", staff, h.gradebooks.Sheet)
	gb.GET("/trainees/:traineeId/ca", anyone, h.gradebooks.TraineeCA)
	gb.POST("/transitions/:transition", staff, audit("gradebook.transition"), h.gradebooks.Transition)

	gb.GET("/components", staff, h.components.List)
	gb.POST("/components", trainer, audit("component.create"), h.components.Create)
	gb.DELETE("/components/:componentId", trainer, audit("component.delete"), h.components.Delete)
	gb.GET("/groups", staff, h.components.ListGroups)
	gb.POST("/groups", trainer, audit("group.create"), h.components.CreateGroup)

	gb.GET("/trainees", staff, h.roster.List)
	gb.POST("/trainees", middleware.RequireRoles(rosterAdmins...), audit("roster.enroll"), h.roster.Enroll)
	gb.POST("/trainees/reconcile", middleware.RequireRoles(rosterAdmins...), audit("roster.reconcile"), h.roster.Reconcile)

	gb.GET("/marks", staff, h.marks.ListMarks)
	gb.POST("/marks", trainer, audit("mark.save"), h.marks.SaveEntry)
	gb.PUT("/marks", trainer, audit("mark.bulk_save"), h.marks.BulkSave)
	gb.GET("/feedback", staff, h.marks.ListFeedback)
	gb.POST("/feedback", trainer, audit("feedback.save"), h.marks.SaveFeedback)

	gb.GET("/assessor-sheet", middleware.RequireRoles(models.RoleAssessmentCoordinator), h.exports.AssessorSheet)

	gb.GET("/queries", anyone, h.queries.List)
	gb.POST("/queries", middleware.RequireRoles(models.RoleTrainee), audit("query.raise"), h.queries.Raise)
	api.POST("/queries/:queryId/resolve", staff, audit("query.resolve"), h.queries.Resolve)
}
