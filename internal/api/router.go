package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/thibovi/rebilt-backend/internal/authz"
	"github.com/thibovi/rebilt-backend/internal/logging"
	"github.com/thibovi/rebilt-backend/internal/metrics"
	"github.com/thibovi/rebilt-backend/internal/services"
)

// RouterOptions carries the cross-cutting pieces the router wires in. Metrics may be nil.
type RouterOptions struct {
	Tokens      *services.TokenService
	Enforcer    *authz.Enforcer
	Metrics     *metrics.Metrics
	CORSOrigins []string
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "Stripe-Signature"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

// NewRouter builds the gin engine with every route of the service
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	router := gin.New()

	router.Use(logging.JSONLogger())
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(opts.CORSOrigins)))
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware())
		router.GET("/metrics", opts.Metrics.Handler())
	}

	router.GET("/live", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/ready", h.Health)
	router.GET("/health", h.Health)

	v1 := router.Group("/api/v1")
	v1.Use(OptionalAuthMiddleware(opts.Tokens))
	{
		auth := v1.Group("/auth")
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/verify-reset-code", h.VerifyResetCode)
		auth.POST("/reset-password", h.ResetPassword)
		auth.GET("/me", AuthMiddleware(opts.Tokens), h.Me)

		// Catalog reads
		v1.GET("/partners", h.GetPartners)
		v1.GET("/partners/by-name/:name", h.GetPartnerByName)
		v1.GET("/partners/by-domain/:domain", h.GetPartnerByDomain)
		v1.GET("/partners/:id", h.GetPartner)
		v1.GET("/categories", h.GetCategories)
		v1.GET("/categories/:id", h.GetCategory)
		v1.GET("/options", h.GetOptions)
		v1.GET("/options/:id", h.GetOption)
		v1.GET("/configurations", h.GetConfigurations)
		v1.GET("/configurations/:id", h.GetConfiguration)
		v1.GET("/partner-configurations", h.GetPartnerConfigurations)
		v1.GET("/partner-configurations/partner/:partnerId/category/:categoryId", h.GetPartnerConfigurationsForCategory)
		v1.GET("/partner-configurations/:id", h.GetPartnerConfiguration)
		v1.GET("/filters", h.GetFilters)
		v1.GET("/filters/:id", h.GetFilter)
		v1.GET("/products", h.GetProducts)
		v1.GET("/products/:id", h.GetProduct)
		v1.GET("/house-styles", h.GetHouseStyles)
		v1.GET("/house-styles/:id", h.GetHouseStyle)
		v1.GET("/cloudinary", h.GetAssets)
		v1.GET("/cloudinary/search", h.SearchAssets)
		v1.GET("/cloudinary/:id", h.GetAsset)

		// Purchases and payment callbacks
		v1.POST("/orders/:productId", h.CreateOrder)
		// the POST tree already names this segment productId; PayOrder reads it as the order id
		v1.POST("/orders/:productId/pay", h.PayOrder)
		v1.POST("/checkouts", h.CreateCheckout)
		v1.POST("/webhooks/stripe", h.StripeWebhook)

		protected := v1.Group("")
		protected.Use(AuthMiddleware(opts.Tokens), RequirePolicy(opts.Enforcer))
		{
			protected.POST("/partners", h.CreatePartner)
			protected.PUT("/partners/:id", h.UpdatePartner)
			protected.DELETE("/partners/:id", h.DeletePartner)

			protected.GET("/users", h.GetUsers)
			protected.GET("/users/:id", h.GetUser)
			protected.PUT("/users/:id", h.UpdateUser)
			protected.DELETE("/users/:id", h.DeleteUser)

			protected.POST("/categories", h.CreateCategory)
			protected.PUT("/categories/:id", h.UpdateCategory)
			protected.DELETE("/categories/:id", h.DeleteCategory)
			protected.POST("/categories/:id/subtypes", h.AddSubType)
			protected.DELETE("/categories/:id/subtypes/:name", h.RemoveSubType)

			protected.POST("/options", h.CreateOption)
			protected.PUT("/options/:id", h.UpdateOption)
			protected.DELETE("/options/:id", h.DeleteOption)

			protected.POST("/configurations", h.CreateConfiguration)
			protected.PUT("/configurations/:id", h.UpdateConfiguration)
			protected.DELETE("/configurations/:id", h.DeleteConfiguration)

			protected.POST("/partner-configurations", h.CreatePartnerConfiguration)
			protected.PUT("/partner-configurations/:id", h.UpdatePartnerConfiguration)
			protected.DELETE("/partner-configurations/:id", h.DeletePartnerConfiguration)

			protected.POST("/filters", h.CreateFilter)
			protected.PUT("/filters/:id", h.UpdateFilter)
			protected.DELETE("/filters/:id", h.DeleteFilter)

			protected.POST("/products", h.CreateProduct)
			protected.PUT("/products/:id", h.UpdateProduct)
			protected.DELETE("/products/:id", h.DeleteProduct)

			protected.POST("/house-styles", h.CreateHouseStyle)
			protected.PUT("/house-styles/:id", h.UpdateHouseStyle)
			protected.DELETE("/house-styles/:id", h.DeleteHouseStyle)

			protected.POST("/cloudinary", h.CreateAsset)
			protected.POST("/cloudinary/upload-mesh", h.UploadMesh)
			protected.POST("/cloudinary/upload-font", h.UploadFont)
			protected.PUT("/cloudinary/:id", h.UpdateAsset)
			protected.DELETE("/cloudinary/:id", h.DeleteAsset)

			protected.GET("/orders", h.GetOrders)
			protected.GET("/orders/:orderId", h.GetOrder)
			protected.PUT("/orders/:orderId", h.UpdateOrder)
			protected.DELETE("/orders/:orderId", h.DeleteOrder)

			protected.GET("/checkouts", h.GetCheckouts)
			protected.GET("/checkouts/:id", h.GetCheckout)
			protected.PUT("/checkouts/:id", h.UpdateCheckout)
			protected.DELETE("/checkouts/:id", h.DeleteCheckout)

			protected.GET("/webhooks", h.GetWebhooks)

			protected.POST("/model-jobs", h.CreateModelJob)
			protected.GET("/model-jobs", h.GetModelJobs)
			protected.GET("/model-jobs/:id", h.GetModelJob)

			protected.POST("/images/classify", h.ClassifyImage)
		}
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "rebilt-backend",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	return router
}
