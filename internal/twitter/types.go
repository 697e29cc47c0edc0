package twitter

// Profile is a public user profile as returned by the users endpoints.
type Profile struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	ProfileImageURL string `json:"profile_image_url"`
}

// usersResponse is the envelope for GET /2/users/by.
type usersResponse struct {
	Data   []Profile  `json:"data"`
	Errors []apiError `json:"errors"`
}

// searchResponse is the envelope for GET /2/tweets/search/recent with
// author expansion.
type searchResponse struct {
	Data []struct {
		ID       string `json:"id"`
		AuthorID string `json:"author_id"`
		Text     string `json:"text"`
	} `json:"data"`
	Includes struct {
		Users []Profile `json:"users"`
	} `json:"includes"`
	Errors []apiError `json:"errors"`
}

// apiError is a partial-failure entry the API returns alongside data,
// e.g. for a suspended account in a batch lookup.
type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Value  string `json:"value"`
}
