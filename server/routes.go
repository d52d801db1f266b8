package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jrsteele09/coursehub-session/token"
)

// exact anchors a trailing-slash pattern so it does not match the subtree.
const exact = "{$}"

func (s *Server) initRoutes() {
	// Token issuance
	s.RegisterRouteHandler("POST "+RouteToken+exact, ChainMiddleware(s.TokenHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteTokenRefresh+exact, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteRegister+exact, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))

	// Protected API routes (require a valid access token)
	s.RegisterRouteHandler("GET "+RouteMe+exact, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteCourses+exact, ChainMiddleware(s.ListCoursesHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RouteCourses+exact, ChainMiddleware(s.CreateCourseHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireRole(token.RoleTeacher))...))
	s.RegisterRouteHandler("GET "+RouteTeachers+exact, ChainMiddleware(s.ListTeachersHandler(), s.APIMiddleware(s.RequireAuth())...))

	s.RegisterRouteHandler("OPTIONS "+APIPrefix+"/", ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}
