package model

// GreetingRequest is the JSON body accepted by POST /api/postMethodGreeting.
// Name is a pointer so an absent or null "name" can be told apart from an
// empty string.  The value lives only for the duration of one request.
type GreetingRequest struct {
    Name *string `json:"name"`
}

// NameOr returns the requested name, or fallback when it is absent.
func (r GreetingRequest) NameOr(fallback string) string {
    if r.Name == nil {
        return fallback
    }
    return *r.Name
}
