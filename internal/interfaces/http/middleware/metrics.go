package middleware

import "github.com/gin-gonic/gin"

// RequestObserver records one HTTP request. The returned func is called
// with the response status once the handler chain finished.
type RequestObserver interface {
	RequestStarted(method, route string) func(status int)
}

// HTTPMetrics reports every request to observer labelled by its route
// template, so /projects/:id stays one series.
func HTTPMetrics(observer RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		done := observer.RequestStarted(c.Request.Method, c.FullPath())
		c.Next()
		done(c.Writer.Status())
	}
}
