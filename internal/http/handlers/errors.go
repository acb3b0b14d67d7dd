package handlers

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"tourbook/internal/domain"
	"tourbook/internal/http/middleware"
	"tourbook/internal/obs"
)

// ErrorResponder is the single place errors become client responses.
// Development returns full diagnostics; production returns only a safe
// message for operational errors and a fixed generic payload otherwise.
type ErrorResponder struct {
	Production bool
}

// Middleware picks up errors recorded on the gin context by AbortWith and
// writes the response after the chain unwinds.
func (r ErrorResponder) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}
		r.Respond(c, last.Err)
	}
}

// Recovery maps panics to non-operational internals.
func (r ErrorResponder) Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		r.Respond(c, domain.NewInternal(fmt.Errorf("panic: %v", recovered)))
	})
}

// NoRoute handles undefined routes through the same pipeline.
func (r ErrorResponder) NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		r.Respond(c, &domain.AppError{
			Kind: domain.KindNotFound, Status: http.StatusNotFound,
			Message:     fmt.Sprintf("Can't find %s on this server!", c.Request.URL.Path),
			Operational: true,
		})
	}
}

// Respond writes one error. The shape branches on API vs rendered-page
// surface and on the environment profile.
func (r ErrorResponder) Respond(c *gin.Context, err error) {
	app := domain.From(err)
	if !app.Operational {
		obs.LogEvent(middleware.GetRequestID(c), "error", "non_operational", app.Error())
	}

	if strings.HasPrefix(c.Request.URL.Path, "/api") || c.Request.URL.Path == "/webhook-checkout" {
		r.respondAPI(c, app)
		return
	}
	r.respondPage(c, app)
}

func (r ErrorResponder) respondAPI(c *gin.Context, app *domain.AppError) {
	if !r.Production {
		c.AbortWithStatusJSON(app.Status, gin.H{
			"status":  statusWord(app.Status),
			"message": app.Message,
			"error":   app.Error(),
			"stack":   string(debug.Stack()),
		})
		return
	}
	if app.Operational {
		c.AbortWithStatusJSON(app.Status, gin.H{
			"status":  statusWord(app.Status),
			"message": app.Message,
		})
		return
	}
	// Defects never leak details to clients.
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"status":  "error",
		"message": "Something went very wrong!",
	})
}

func (r ErrorResponder) respondPage(c *gin.Context, app *domain.AppError) {
	msg := app.Message
	status := app.Status
	if r.Production && !app.Operational {
		msg = "Please try again later."
		status = http.StatusInternalServerError
	}
	c.Abort()
	c.HTML(status, "error.html", gin.H{
		"title": "Something went wrong!",
		"msg":   msg,
	})
}

func statusWord(status int) string {
	if status >= http.StatusInternalServerError {
		return "error"
	}
	return "fail"
}
