package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestGetGreeting(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/api/greeting", "")

	require.NoError(t, GetGreeting(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, Welcome to the Spring Boot Rest API!", rec.Body.String())
	assert.Equal(t, echo.MIMETextPlainCharsetUTF8, rec.Header().Get(echo.HeaderContentType))
}

func TestGetPersonalizedGreeting(t *testing.T) {
	for _, name := range []string{"Alice", "a", "José", "x y"} {
		t.Run(name, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/api/greeting/x", "")
			c.SetParamNames("name")
			c.SetParamValues(name)

			require.NoError(t, GetPersonalizedGreeting(c))
			assert.Equal(t, "Hello "+name+" ! Welcome to the Rest API!", rec.Body.String())
		})
	}
}

func TestGetPersonalizedGreetingEmptySegment(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/api/greeting/", "")
	c.SetParamNames("name")
	c.SetParamValues("")

	err := GetPersonalizedGreeting(c)
	assert.ErrorIs(t, err, ErrRoutingFailure)
}

func TestPostGreeting(t *testing.T) {
	c, rec := newContext(http.MethodPost, "/api/postMethodGreeting", `{"name":"Alice"}`)

	require.NoError(t, PostGreeting(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello Alice ! Welcome to the Rest API!", rec.Body.String())
}

func TestPostGreetingAbsentName(t *testing.T) {
	c, rec := newContext(http.MethodPost, "/api/postMethodGreeting", `{"other":"x"}`)

	require.NoError(t, PostGreeting(c))
	assert.Equal(t, "Hello null ! Welcome to the Rest API!", rec.Body.String())
}

func TestPostGreetingBadBodies(t *testing.T) {
	cases := map[string]string{
		"empty":      "",
		"null":       "null",
		"syntax":     `{"name":`,
		"not object": `"Alice"`,
		"wrong type": `{"name": 5}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newContext(http.MethodPost, "/api/postMethodGreeting", body)

			err := PostGreeting(c)
			assert.ErrorIs(t, err, ErrRequiredParameterMissing)
		})
	}
}

func TestSearch(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/api/search?keyword=SpringBoot", "")
	require.NoError(t, Search(c))
	assert.Equal(t, "You searched for: SpringBoot", rec.Body.String())

	c, rec = newContext(http.MethodGet, "/api/search?keyword=", "")
	require.NoError(t, Search(c))
	assert.Equal(t, "You searched for: ", rec.Body.String())

	c, rec = newContext(http.MethodGet, "/api/search?keyword=a&keyword=b", "")
	require.NoError(t, Search(c))
	assert.Equal(t, "You searched for: a,b", rec.Body.String())

	c, _ = newContext(http.MethodGet, "/api/search", "")
	err := Search(c)
	assert.ErrorIs(t, err, ErrRequiredParameterMissing)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "keyword", reqErr.Param)
}

func TestGetWelcome(t *testing.T) {
	cases := map[string]string{
		"/api/welcome":          "welcome, Guest!",
		"/api/welcome?name=":    "welcome, Guest!",
		"/api/welcome?name=Bob": "welcome, Bob!",
	}
	for target, want := range cases {
		c, rec := newContext(http.MethodGet, target, "")
		require.NoError(t, GetWelcome(c))
		assert.Equal(t, want, rec.Body.String(), target)
	}
}

func TestOptionalSearch(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/api/optional", "")
	require.NoError(t, OptionalSearch(c))
	assert.Equal(t, "No keyword provided", rec.Body.String())

	c, rec = newContext(http.MethodGet, "/api/optional?keyword=x", "")
	require.NoError(t, OptionalSearch(c))
	assert.Equal(t, "You searched for: x", rec.Body.String())
}

func TestHandlersAreIdempotent(t *testing.T) {
	targets := []string{"/api/greeting", "/api/search?keyword=go", "/api/welcome?name=Eve", "/api/optional"}
	handlers := []echo.HandlerFunc{GetGreeting, Search, GetWelcome, OptionalSearch}

	for i, target := range targets {
		c1, rec1 := newContext(http.MethodGet, target, "")
		c2, rec2 := newContext(http.MethodGet, target, "")
		require.NoError(t, handlers[i](c1))
		require.NoError(t, handlers[i](c2))
		assert.Equal(t, rec1.Body.String(), rec2.Body.String(), target)
	}
}
