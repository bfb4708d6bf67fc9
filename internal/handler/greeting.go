package handler // handler holds the HTTP handlers of the greeting API

import (
    "errors"   // errors builds the null-body sentinel
    "net/http" // net/http provides status codes

    "github.com/labstack/echo/v4" // echo supplies the request context and JSON serializer

    "github.com/iliyamo/greeter-api/internal/model" // model defines the request payload
)

// Response texts.  They are part of the public contract of the API.
const (
    WelcomeMessage   = "Hello, Welcome to the Spring Boot Rest API!"
    NoKeywordMessage = "No keyword provided"
    DefaultGuestName = "Guest"

    // absentName is what a body without a "name" field greets.
    absentName = "null"
)

var errNullBody = errors.New("request body is null")

// PersonalGreeting renders the greeting shared by the path and body variants.
func PersonalGreeting(name string) string { return "Hello " + name + " ! Welcome to the Rest API!" }

// SearchResult renders the reply of the search endpoints.
func SearchResult(keyword string) string { return "You searched for: " + keyword }

// Welcome renders the reply of GET /api/welcome.
func Welcome(name string) string { return "welcome, " + name + "!" }

// DecodeGreetingRequest decodes the JSON request body.  It yields either a
// populated GreetingRequest or a RequestError of kind
// ErrRequiredParameterMissing: empty bodies, syntax errors, a non-string name
// and a literal null are all decode failures.
func DecodeGreetingRequest(c echo.Context) (model.GreetingRequest, error) {
    var req *model.GreetingRequest
    if err := c.Echo().JSONSerializer.Deserialize(c, &req); err != nil {
        return model.GreetingRequest{}, missing(bodyParam, err)
    }
    if req == nil {
        return model.GreetingRequest{}, missing(bodyParam, errNullBody)
    }
    return *req, nil
}

// GetGreeting handles GET /api/greeting.
func GetGreeting(c echo.Context) error {
    return c.String(http.StatusOK, WelcomeMessage)
}

// GetPersonalizedGreeting handles GET /api/greeting/:name.
func GetPersonalizedGreeting(c echo.Context) error {
    name, err := PathParam(c, "name")
    if err != nil {
        return err
    }
    return c.String(http.StatusOK, PersonalGreeting(name))
}

// PostGreeting handles POST /api/postMethodGreeting.
func PostGreeting(c echo.Context) error {
    req, err := DecodeGreetingRequest(c)
    if err != nil {
        return err
    }
    return c.String(http.StatusOK, PersonalGreeting(req.NameOr(absentName)))
}

// Search handles GET /api/search; keyword is mandatory.
func Search(c echo.Context) error {
    keyword, err := RequiredQuery(c, "keyword")
    if err != nil {
        return err
    }
    return c.String(http.StatusOK, SearchResult(keyword))
}

// GetWelcome handles GET /api/welcome; name falls back to "Guest".
func GetWelcome(c echo.Context) error {
    return c.String(http.StatusOK, Welcome(QueryOrDefault(c, "name", DefaultGuestName)))
}

// OptionalSearch handles GET /api/optional, where keyword may be omitted.
func OptionalSearch(c echo.Context) error {
    if keyword, ok := OptionalQuery(c, "keyword"); ok {
        return c.String(http.StatusOK, SearchResult(keyword))
    }
    return c.String(http.StatusOK, NoKeywordMessage)
}
