package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/vishalbarai007/videoresizer/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all v1 routes under /v1 prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")

	group.POST("/uploads", r.handlers.Upload.UploadFiles)
	group.POST("/uploads/url", r.handlers.Upload.UploadFromURL)
	group.GET("/uploads/progress/:id", r.handlers.Upload.Progress)

	group.GET("/profile", r.handlers.Profile.Get)
	group.POST("/profile/select", r.handlers.Profile.Select)
	group.POST("/profile/quality", r.handlers.Profile.SetQuality)
	group.POST("/profile/caption", r.handlers.Profile.SetCaption)

	group.POST("/jobs", r.handlers.Conversion.Start)
	group.GET("/jobs/:id", r.handlers.Conversion.Get)
	group.GET("/jobs/:id/events", r.handlers.Conversion.Events)
	group.GET("/jobs/:id/download", r.handlers.Delivery.Download)
	group.GET("/jobs/:id/share", r.handlers.Delivery.Share)
	group.POST("/jobs/:id/archive", r.handlers.Delivery.Archive)

	group.GET("/history", r.handlers.History.List)
	group.DELETE("/history/:id", r.handlers.History.Delete)
	group.POST("/history/delete", r.handlers.History.BulkDelete)
	group.GET("/history/:id/download", r.handlers.History.Download)
}
