package controllers

import (
	"github.com/gin-gonic/gin"
)

// Handlers bundles every controller the API serves
type Handlers struct {
	Users     *UserController
	Uploads   *UploadController
	Orders    *OrderController
	Messages  *MessageController
	Reviews   *ReviewController
	Printers  *PrinterController
	Providers *ProviderController
	Streams   *StreamController
}

// RegisterRoutes mounts the authenticated API on api. adminOnly guards the /admin group
// in addition to the role check the handlers do themselves.
func RegisterRoutes(api *gin.RouterGroup, h *Handlers, adminOnly gin.HandlerFunc) {
	api.POST("/users", h.Users.CreateUser)
	api.GET("/users/me", h.Users.GetMyProfile)

	api.POST("/uploads", h.Uploads.UploadPrintFile)

	orders := api.Group("/orders")
	{
		orders.POST("", h.Orders.CreateOrder)
		orders.GET("", h.Orders.ListOrders)
		orders.GET("/events", h.Streams.MyOrderEvents)
		orders.GET("/:id", h.Orders.GetOrder)
		orders.GET("/:id/file", h.Orders.DownloadFile)
		orders.GET("/:id/events", h.Streams.OrderEvents)
		orders.POST("/:id/transitions", h.Orders.ApplyTransition)
		orders.POST("/:id/tracking", h.Orders.AddTracking)
		orders.POST("/:id/price-change", h.Orders.ProposePriceChange)
		orders.POST("/:id/price-change/response", h.Orders.RespondToPriceChange)

		orders.POST("/:id/messages", h.Messages.SendMessage)
		orders.GET("/:id/messages", h.Messages.ListMessages)
		orders.POST("/:id/messages/read", h.Messages.MarkRead)
		orders.GET("/:id/messages/events", h.Streams.ThreadEvents)

		orders.POST("/:id/review", h.Reviews.CreateReview)
		orders.GET("/:id/review", h.Reviews.GetReviewStatus)
	}

	providers := api.Group("/providers")
	{
		providers.GET("", h.Providers.ListProviders)
		providers.GET("/:id", h.Providers.GetProvider)
		providers.GET("/:id/reviews", h.Reviews.ListProviderReviews)
		providers.GET("/:id/printers", h.Printers.ListProviderPrinters)
	}

	printers := api.Group("/printers")
	{
		printers.POST("", h.Printers.CreatePrinter)
		printers.GET("/mine", h.Printers.ListMyPrinters)
		printers.PATCH("/:id/status", h.Printers.SetStatus)
		printers.DELETE("/:id", h.Printers.DeletePrinter)
	}

	api.POST("/provider-applications", h.Providers.Apply)
	api.GET("/provider-applications/me", h.Providers.MyApplication)

	admin := api.Group("/admin", adminOnly)
	{
		admin.GET("/provider-applications", h.Providers.ListApplications)
		admin.POST("/provider-applications/:id/approve", h.Providers.ApproveApplication)
		admin.POST("/provider-applications/:id/reject", h.Providers.RejectApplication)
	}
}
