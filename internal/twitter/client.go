package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"delib-reply-bot/internal/domain"
	"delib-reply-bot/internal/observability"

	"golang.org/x/time/rate"
)

// tweet mirrors the platform's v2 tweet object, optional fields absent-safe
type tweet struct {
	ID               string            `json:"id"`
	Text             string            `json:"text"`
	AuthorID         string            `json:"author_id"`
	CreatedAt        time.Time         `json:"created_at"`
	ConversationID   string            `json:"conversation_id,omitempty"`
	ReferencedTweets []referencedTweet `json:"referenced_tweets,omitempty"`
}

type referencedTweet struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type user struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type includes struct {
	Users  []user  `json:"users,omitempty"`
	Tweets []tweet `json:"tweets,omitempty"`
}

type searchResponse struct {
	Data     []tweet  `json:"data"`
	Includes includes `json:"includes"`
}

type lookupResponse struct {
	Data     *tweet   `json:"data"`
	Includes includes `json:"includes"`
}

// Client calls the platform's v2 REST API with bearer auth. All calls go
// through a shared limiter because the recent-search and lookup endpoints
// are strictly quota'd upstream.
type Client struct {
	tweetURL     string
	searchURL    string
	searchWindow time.Duration
	httpClient   *http.Client
	limiter      *rate.Limiter
}

// NewClient creates a platform API client
func NewClient(tweetURL, searchURL string, searchWindow time.Duration) *Client {
	return &Client{
		tweetURL:     tweetURL,
		searchURL:    searchURL,
		searchWindow: searchWindow,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(1), 3),
	}
}

// BuildSearchQuery builds the recent-search query for mentions of username
// plus replies to each tracked tweet ID. Empty when there is nothing to watch.
//
// Example: "to:YourAccount OR in_reply_to_tweet_id:1234567890"
func BuildSearchQuery(username string, tweetIDs []string) string {
	var parts []string
	if username != "" {
		parts = append(parts, "to:"+username)
	}
	for _, id := range tweetIDs {
		parts = append(parts, "in_reply_to_tweet_id:"+id)
	}
	return strings.Join(parts, " OR ")
}

// SearchRecent fetches tweets matching query created within the configured
// search window, in the order the API returns them
func (c *Client) SearchRecent(ctx context.Context, token, query string) ([]domain.Message, error) {
	if query == "" {
		return nil, nil
	}

	start := time.Now().UTC().Add(-c.searchWindow).Truncate(time.Second)

	params := url.Values{}
	params.Set("query", query)
	params.Set("start_time", start.Format(time.RFC3339))
	params.Set("max_results", "10")
	params.Set("expansions", "author_id")
	params.Set("tweet.fields", "conversation_id,in_reply_to_user_id,created_at")
	params.Set("user.fields", "username")

	var parsed searchResponse
	if err := c.get(ctx, token, c.searchURL+"?"+params.Encode(), "search", &parsed); err != nil {
		return nil, err
	}

	usernames := usernamesByID(parsed.Includes.Users)
	messages := make([]domain.Message, 0, len(parsed.Data))
	for _, tw := range parsed.Data {
		messages = append(messages, toMessage(tw, usernames))
	}
	return messages, nil
}

// lookupTweet fetches a single tweet with its reply references and authors
func (c *Client) lookupTweet(ctx context.Context, token, id string) (*lookupResponse, error) {
	params := url.Values{}
	params.Set("tweet.fields", "created_at,referenced_tweets")
	params.Set("expansions", "author_id,referenced_tweets.id,referenced_tweets.id.author_id")
	params.Set("user.fields", "username")

	var parsed lookupResponse
	if err := c.get(ctx, token, c.tweetURL+"/"+id+"?"+params.Encode(), "lookup", &parsed); err != nil {
		return nil, err
	}
	if parsed.Data == nil {
		return nil, fmt.Errorf("%w: id=%s", domain.ErrTweetNotFound, id)
	}
	return &parsed, nil
}

// PostReply posts a reply to the given tweet. Only a 201 from the tweet
// endpoint counts as a confirmed post.
func (c *Client) PostReply(ctx context.Context, token, inReplyToID, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	payload := map[string]any{
		"text": text,
		"reply": map[string]string{
			"in_reply_to_tweet_id": inReplyToID,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal reply payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tweetURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create reply request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	observability.CollaboratorRequestDuration.WithLabelValues("twitter", "post").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.CollaboratorErrorsTotal.WithLabelValues("twitter").Inc()
		return fmt.Errorf("post reply: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		observability.CollaboratorErrorsTotal.WithLabelValues("twitter").Inc()
		return fmt.Errorf("%w: status=%d body=%s",
			domain.ErrPostFailed, resp.StatusCode, observability.Preview(string(respBody), 200))
	}
	return nil
}

// get performs a rate-limited authorized GET and decodes the JSON response
func (c *Client) get(ctx context.Context, token, rawURL, operation string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	observability.CollaboratorRequestDuration.WithLabelValues("twitter", operation).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.CollaboratorErrorsTotal.WithLabelValues("twitter").Inc()
		return fmt.Errorf("%s request: %w", operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", operation, err)
	}
	if resp.StatusCode != http.StatusOK {
		observability.CollaboratorErrorsTotal.WithLabelValues("twitter").Inc()
		return fmt.Errorf("%s returned status=%d body=%s",
			operation, resp.StatusCode, observability.Preview(string(body), 200))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse %s response: %w", operation, err)
	}
	return nil
}

func usernamesByID(users []user) map[string]string {
	m := make(map[string]string, len(users))
	for _, u := range users {
		m[u.ID] = u.Username
	}
	return m
}

func toMessage(tw tweet, usernames map[string]string) domain.Message {
	username, ok := usernames[tw.AuthorID]
	if !ok {
		username = "Unknown"
	}
	return domain.Message{
		ID:        tw.ID,
		Username:  username,
		Text:      tw.Text,
		CreatedAt: tw.CreatedAt,
	}
}
