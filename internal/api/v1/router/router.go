package router

import (
	"net/http"
	"siteauditor/internal/api/v1/handler"
	"siteauditor/internal/api/v1/middleware"
	"siteauditor/internal/log"
)

func New(audit *handler.AuditHandler) http.Handler {
	appName := "siteauditor"
	apiVersion := "v1"
	basePath := "/" + appName + "/api/" + apiVersion

	mux := http.NewServeMux()

	register := func(path string, h http.HandlerFunc) {
		mux.HandleFunc(basePath+path, h)
	}

	register("/health", handler.HealthCheckHandler)
	register("/audit", audit.Audit)

	return middleware.RecoverPanic(
		log.Logger,
		func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
		middleware.Logging(
			middleware.MetricsMiddleware(
				middleware.RateLimit(mux),
			),
		),
	)
}

func NewMetricsRouter() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler.MetricsHandler())
	return mux
}
