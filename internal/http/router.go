package api

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"tourbook/internal/config"
	"tourbook/internal/domain/models"
	h "tourbook/internal/http/handlers"
	"tourbook/internal/http/middleware"
	"tourbook/internal/imaging"
	"tourbook/internal/mail"
	"tourbook/internal/payment"
	"tourbook/internal/repositories"
	"tourbook/internal/services"
)

// Deps are the external collaborators the router wires into handlers.
type Deps struct {
	Env      config.Env
	DB       *sql.DB
	Mailer   mail.Mailer
	Resizer  imaging.Resizer
	Provider payment.Provider

	// TemplateGlob overrides the page template location; empty means the
	// default web/templates directory.
	TemplateGlob string
}

// NewRouter builds the full route table.
func NewRouter(d Deps) *gin.Engine {
	tours := repositories.TourRepo{DB: d.DB}
	users := repositories.UserRepo{DB: d.DB}
	reviews := repositories.ReviewRepo{DB: d.DB}
	bookings := repositories.BookingRepo{DB: d.DB}

	auth := services.AuthService{
		Users:  users,
		Mailer: d.Mailer,
		Secret: []byte(d.Env.JWTSecret),
		TTL:    d.Env.JWTTTL,
	}
	bookingSvc := services.BookingService{
		Bookings: bookings,
		Tours:    tours,
		Users:    users,
		Provider: d.Provider,
	}
	docs := services.DocsService{Bookings: bookings, Users: users}

	responder := h.ErrorResponder{Production: d.Env.IsProduction()}
	authH := h.AuthHandler{Auth: auth, CookieSecure: d.Env.CookieSecure, CookieTTL: d.Env.JWTTTL}
	userH := h.UserHandler{Users: users, Resizer: d.Resizer, UploadDir: d.Env.UploadDir}
	tourH := h.TourHandler{Tours: tours, Resizer: d.Resizer, UploadDir: d.Env.UploadDir}
	reviewH := h.ReviewHandler{Reviews: reviews}
	bookingH := h.BookingHandler{Bookings: bookingSvc, Docs: docs, WebhookSecret: d.Env.PaymentWebhookSecret}
	viewH := h.ViewHandler{Tours: tours, Auth: auth}

	protect := middleware.Protect(auth)
	limiter := middleware.NewRateLimiter(d.Env.RateLimitMax, d.Env.RateLimitWindow)

	r := gin.New()
	r.Use(
		responder.Middleware(),
		middleware.RequestID(),
		middleware.Logger(),
		responder.Recovery(),
		middleware.CORS(d.Env.CORSAllowedOrigins),
	)
	_ = r.SetTrustedProxies(nil)
	r.NoRoute(responder.NoRoute())

	glob := d.TemplateGlob
	if glob == "" {
		glob = "web/templates/*.html"
	}
	r.LoadHTMLGlob(glob)
	r.Static("/public", "./web/public")

	// The webhook takes a raw body and bypasses auth and rate limiting;
	// its own signature check is the admission control.
	r.POST("/webhook-checkout", bookingH.Webhook())

	// Rendered pages.
	r.GET("/", viewH.Overview())
	r.GET("/tour/:slug", viewH.Tour())
	r.GET("/login", viewH.Login())
	r.GET("/me", protect, viewH.Account())

	v1 := r.Group("/api/v1", limiter.Handler())

	tr := v1.Group("/tours")
	{
		staffOnly := middleware.RequireRoles(models.RoleAdmin, models.RoleLeadGuide)

		tr.GET("", h.GetAll[models.Tour](tours, nil))
		tr.GET("/top-5-cheap", h.AliasTopTours(), h.GetAll[models.Tour](tours, nil))
		tr.GET("/tour-stats", tourH.Stats())
		tr.GET("/monthly-plan/:year", protect,
			middleware.RequireRoles(models.RoleAdmin, models.RoleLeadGuide, models.RoleGuide),
			tourH.MonthlyPlan())
		tr.GET("/:id", h.GetOne[models.Tour](tours))
		tr.POST("", protect, staffOnly, h.CreateOne[models.Tour](tours))
		tr.PATCH("/:id", protect, staffOnly, h.UpdateOne[models.Tour](tours))
		tr.PATCH("/:id/images", protect, staffOnly, tourH.UploadImages())
		tr.DELETE("/:id", protect, staffOnly, h.DeleteOne[models.Tour](tours))

		// Nested reviews under one tour.
		tr.GET("/:id/reviews", h.GetAll[models.Review](reviews, h.TourScope))
		tr.POST("/:id/reviews", protect, middleware.RequireRoles(models.RoleUser), reviewH.Create())
	}

	ur := v1.Group("/users")
	{
		ur.POST("/signup", authH.Signup())
		ur.POST("/login", authH.Login())
		ur.GET("/logout", authH.Logout())
		ur.POST("/forgotPassword", authH.ForgotPassword())
		ur.PATCH("/resetPassword/:token", authH.ResetPassword())

		me := ur.Group("", protect)
		me.GET("/me", userH.Me())
		me.PATCH("/updateMyPassword", authH.UpdateMyPassword())
		me.PATCH("/updateMe", userH.UpdateMe())
		me.DELETE("/deleteMe", userH.DeleteMe())

		admin := ur.Group("", protect, middleware.RequireRoles(models.RoleAdmin))
		admin.GET("", h.GetAll[models.User](users, nil))
		admin.GET("/:id", h.GetOne[models.User](users))
		admin.POST("", func(c *gin.Context) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": "This route is not defined! Please use /signup instead.",
			})
		})
		admin.PATCH("/:id", h.UpdateOne[models.User](users))
		admin.DELETE("/:id", h.DeleteOne[models.User](users))
	}

	rr := v1.Group("/reviews", protect)
	{
		rr.GET("", h.GetAll[models.Review](reviews, h.TourScope))
		rr.POST("", middleware.RequireRoles(models.RoleUser), reviewH.Create())
		rr.GET("/:id", h.GetOne[models.Review](reviews))
		rr.PATCH("/:id", middleware.RequireRoles(models.RoleUser, models.RoleAdmin), h.UpdateOne[models.Review](reviews))
		rr.DELETE("/:id", middleware.RequireRoles(models.RoleUser, models.RoleAdmin), h.DeleteOne[models.Review](reviews))
	}

	br := v1.Group("/bookings", protect)
	{
		staff := middleware.RequireRoles(models.RoleAdmin, models.RoleLeadGuide)

		br.GET("/checkout-session/:tourId", bookingH.CheckoutSession())
		br.GET("/:id/invoice", bookingH.Invoice())
		br.GET("", staff, h.GetAll[models.Booking](bookings, nil))
		br.GET("/:id", staff, h.GetOne[models.Booking](bookings))
		br.POST("", staff, h.CreateOne[models.Booking](bookings))
		br.PATCH("/:id", staff, h.UpdateOne[models.Booking](bookings))
		br.DELETE("/:id", staff, h.DeleteOne[models.Booking](bookings))
	}

	return r
}
