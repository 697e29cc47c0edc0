// Package twitter implements a minimal client for the Twitter API v2
// user lookup and recent search endpoints.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the production API endpoint. Tests point the client
// at an httptest server instead.
const DefaultBaseURL = "https://api.twitter.com"

// Client talks to the Twitter API v2 with app-only bearer authentication.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a Twitter client. An empty baseURL selects the
// production API.
func NewClient(baseURL, bearerToken string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   bearerToken,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// LookupUsers resolves up to 100 usernames into profiles in a single
// request. Unknown or suspended handles are silently absent from the
// result; the API reports them as partial errors, not failures.
func (c *Client) LookupUsers(ctx context.Context, usernames []string) ([]Profile, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	if len(usernames) > 100 {
		return nil, fmt.Errorf("too many usernames: %d (limit 100)", len(usernames))
	}

	params := url.Values{}
	params.Set("usernames", strings.Join(usernames, ","))
	params.Set("user.fields", "profile_image_url")

	var result usersResponse
	if err := c.getJSON(ctx, "/2/users/by", params, &result); err != nil {
		return nil, fmt.Errorf("lookup users: %w", err)
	}
	return result.Data, nil
}

// SearchRecentAuthors returns the distinct authors of recent tweets
// matching the query, at most maxResults tweets deep. An author who
// tweeted several times appears once.
func (c *Client) SearchRecentAuthors(ctx context.Context, query string, maxResults int) ([]Profile, error) {
	if maxResults < 10 {
		maxResults = 10 // API minimum
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("expansions", "author_id")
	params.Set("tweet.fields", "author_id")
	params.Set("user.fields", "profile_image_url")

	var result searchResponse
	if err := c.getJSON(ctx, "/2/tweets/search/recent", params, &result); err != nil {
		return nil, fmt.Errorf("search recent tweets: %w", err)
	}

	usersByID := make(map[string]Profile, len(result.Includes.Users))
	for _, u := range result.Includes.Users {
		usersByID[u.ID] = u
	}

	// keep first-tweet order while deduplicating authors
	seen := make(map[string]bool)
	var authors []Profile
	for _, tweet := range result.Data {
		if seen[tweet.AuthorID] {
			continue
		}
		seen[tweet.AuthorID] = true
		if u, ok := usersByID[tweet.AuthorID]; ok {
			authors = append(authors, u)
		}
	}
	return authors, nil
}

// getJSON performs an authenticated GET and unmarshals the response.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, result any) error {
	reqURL := c.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response body: %w", err)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("could not unmarshal response: %w", err)
	}
	return nil
}

// readErrorBody reads the response body for error messages.
// Returns a placeholder if reading fails (we're already in an error path).
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(r)
	if err != nil {
		return "(could not read error body)"
	}
	return string(body)
}
