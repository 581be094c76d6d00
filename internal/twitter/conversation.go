package twitter

import (
	"context"
	"sort"

	"delib-reply-bot/internal/domain"
	"delib-reply-bot/internal/observability"
)

// ConversationHistory reconstructs the thread lineage of a tweet: its direct
// parent, grandparent, and so on back toward the conversation root, up to
// maxTweets ancestors. Siblings and other replies in the conversation are
// never included, nor is the triggering tweet itself.
//
// The walk is best-effort: a failed fetch ends it and whatever ancestors were
// collected so far are returned, oldest first. No history is not an error.
func (c *Client) ConversationHistory(ctx context.Context, token, tweetID string, maxTweets int) ([]domain.Message, error) {
	usernames := make(map[string]string)
	var lineage []tweet

	currentID := tweetID
	for count := 0; currentID != "" && count < maxTweets; count++ {
		resp, err := c.lookupTweet(ctx, token, currentID)
		if err != nil {
			observability.Warn("lineage walk stopped",
				"tweet_id", currentID,
				"collected", len(lineage),
				"error", err.Error())
			break
		}

		for id, name := range usernamesByID(resp.Includes.Users) {
			usernames[id] = name
		}

		if resp.Data.ID != tweetID {
			lineage = append(lineage, *resp.Data)
		}

		currentID = parentID(resp.Data.ReferencedTweets)
	}

	history := make([]domain.Message, 0, len(lineage))
	for _, tw := range lineage {
		history = append(history, toMessage(tw, usernames))
	}
	sort.Slice(history, func(i, j int) bool {
		return history[i].CreatedAt.Before(history[j].CreatedAt)
	})
	return history, nil
}

// parentID returns the replied-to reference, empty at the conversation root
func parentID(refs []referencedTweet) string {
	for _, ref := range refs {
		if ref.Type == "replied_to" {
			return ref.ID
		}
	}
	return ""
}
