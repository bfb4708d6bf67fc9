package router // package router binds the API's route table onto an echo instance

import (
	"net/http" // net/http supplies the method names used in the route table

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/greeter-api/internal/handler" // import the handlers that build each response
)

// BasePath prefixes every greeting route.
const BasePath = "/api"

// Route maps an HTTP method and a path template to one handler.  Path
// variables use echo's ":name" syntax.
type Route struct {
	Method  string
	Path    string
	Name    string
	Handler echo.HandlerFunc
}

// Routes returns the greeting API's route table.  The order carries no
// meaning; echo's router prefers static segments over parameters.
func Routes() []Route {
	return []Route{
		{http.MethodGet, BasePath + "/greeting", "greeting", handler.GetGreeting},
		{http.MethodGet, BasePath + "/greeting/:name", "personalizedGreeting", handler.GetPersonalizedGreeting},
		{http.MethodPost, BasePath + "/postMethodGreeting", "postGreeting", handler.PostGreeting},
		{http.MethodGet, BasePath + "/search", "search", handler.Search},
		{http.MethodGet, BasePath + "/welcome", "welcome", handler.GetWelcome},
		{http.MethodGet, BasePath + "/optional", "optional", handler.OptionalSearch},
	}
}

// RegisterRoutes binds the route table to e.  Extra middleware, such as the
// response cache and the rate limiter, wraps only these routes.
func RegisterRoutes(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	for _, rt := range Routes() {
		e.Add(rt.Method, rt.Path, rt.Handler, mw...).Name = rt.Name
	}
}

// RegisterOps registers the operational endpoints: liveness, readiness and
// the prometheus scrape target.  They sit outside the cache and the rate
// limiter.
func RegisterOps(e *echo.Echo, ready *handler.ReadinessHandler, metrics echo.HandlerFunc) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", ready.Ready)
	if metrics != nil {
		e.GET("/metrics", metrics)
	}
}
