package server

// Route path constants. The API lives under APIPrefix so that a client base URL of
// http://host/api/v1/ resolves every endpoint.
const (
	APIPrefix = "/api/v1"

	// Token routes
	RouteToken        = APIPrefix + "/user/token/"
	RouteTokenRefresh = APIPrefix + "/user/token/refresh/"

	// Account routes
	RouteRegister = APIPrefix + "/user/register/"
	RouteMe       = APIPrefix + "/user/me/"

	// Platform routes
	RouteCourses  = APIPrefix + "/courses/"
	RouteTeachers = APIPrefix + "/teachers/"

	RouteMetrics = "/metrics"
)
