package hub

// page is one page of a paginated Docker Hub listing. Next is nil on the
// last page.
type page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// Repository is a repository record from the namespace listing endpoint.
type Repository struct {
	Name        string `json:"name"`
	Namespace   string `json:"namespace"`
	Description string `json:"description"`
	StarCount   int    `json:"star_count"`
	PullCount   int64  `json:"pull_count"`
}

// Tag is a tag record from the tag listing endpoint. LastUpdated is kept as
// the raw string because the API emits it in more than one layout.
type Tag struct {
	Name        string `json:"name"`
	LastUpdated string `json:"last_updated"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}
