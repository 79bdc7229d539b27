package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/catalog"
	"storefront/internal/shopstate"
)

// Boundary renders the errors handlers attach with c.Error, and recovers
// panics. API routes get JSON; pages get the error page.
func Boundary(siteName string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					zap.String("route", route(c)),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
				renderError(c, siteName, http.StatusInternalServerError, "internal server error")
			}
		}()

		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		status, message := classify(last)
		if status >= http.StatusInternalServerError {
			log.Error("request failed", zap.String("route", route(c)), zap.Error(last.Err))
		}
		renderError(c, siteName, status, message)
	}
}

func classify(e *gin.Error) (int, string) {
	err := e.Err
	switch {
	case e.IsType(gin.ErrorTypeBind):
		return http.StatusBadRequest, validationMessage(err)
	case errors.Is(err, catalog.ErrInvalidProductID):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, shopstate.ErrOutOfStock):
		return http.StatusConflict, shopstate.ErrOutOfStock.Error()
	case errors.Is(err, catalog.ErrUnavailable):
		return http.StatusBadGateway, catalog.ErrUnavailable.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func renderError(c *gin.Context, siteName string, status int, message string) {
	if wantsJSON(c) {
		c.AbortWithStatusJSON(status, gin.H{"error": message})
		return
	}

	c.HTML(status, "error.html", gin.H{
		"Title":   siteName + " | Error",
		"Site":    siteName,
		"Status":  status,
		"Message": message,
	})
	c.Abort()
}

func wantsJSON(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}
