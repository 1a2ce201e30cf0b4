// Package monday wraps Monday.com's GraphQL API for the four
// operations spec.md §6's Monday-like client contract names:
// post-update, poll-replies, update-column-value, get-item-info.
// Grounded on cli/shurcooL-graphql (a real dependency of the
// GitHub-Actions-workflow generators in the retrieved pack) — the
// thinnest GraphQL client in the corpus, matching the teacher's own
// preference for small, purpose-built wrappers over generated SDKs.
package monday

import (
	"context"
	"fmt"
	"net/http"

	graphql "github.com/cli/shurcooL-graphql"
)

const apiURL = "https://api.monday.com/v2"

// Reply is a single reply on a Monday update thread.
type Reply struct {
	ID       string
	Body     string
	Creator  string
	CreatedAt string
}

// ItemInfo is the subset of a Monday item's fields the graph consults
// (board id for webhooks, current column values for resuming state).
type ItemInfo struct {
	ID            string
	Name          string
	ColumnValues  map[string]string
}

// Client talks to the Monday.com GraphQL API using an API token
// supplied as an Authorization header.
type Client struct {
	gql *graphql.Client
}

// NewClient builds a Client authenticated with a Monday API token.
// Monday authenticates via a bare token Authorization header rather
// than OAuth2, so the token is attached through a RoundTripper instead
// of the oauth2.NewClient path the GitHub collaborator uses.
func NewClient(token string) *Client {
	httpClient := &http.Client{Transport: &authRoundTripper{token: token}}
	return &Client{gql: graphql.NewClient(apiURL, httpClient)}
}

// NewClientWithHTTP builds a Client against a caller-supplied
// *http.Client, used by tests to point at a local test server.
func NewClientWithHTTP(url string, httpClient *http.Client) *Client {
	return &Client{gql: graphql.NewClient(url, httpClient)}
}

type authRoundTripper struct {
	token string
}

func (a *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", a.token)
	req.Header.Set("Content-Type", "application/json")
	return http.DefaultTransport.RoundTrip(req)
}

// PostUpdate posts a comment/update on an item and returns the new
// update's id, used later for poll-replies.
func (c *Client) PostUpdate(ctx context.Context, itemID int, body string) (string, error) {
	var m struct {
		CreateUpdate struct {
			ID graphql.String
		} `graphql:"create_update(item_id: $itemID, body: $body)"`
	}
	vars := map[string]interface{}{
		"itemID": graphql.ID(fmt.Sprintf("%d", itemID)),
		"body":   graphql.String(body),
	}
	if err := c.gql.Mutate(ctx, &m, vars); err != nil {
		return "", fmt.Errorf("create_update item=%d: %w", itemID, err)
	}
	return string(m.CreateUpdate.ID), nil
}

// PollReplies returns every reply currently recorded on updateID's
// thread. Monday models replies as child updates under the same
// parent id.
func (c *Client) PollReplies(ctx context.Context, updateID string) ([]Reply, error) {
	var q struct {
		Updates []struct {
			Replies []struct {
				ID        graphql.String
				Body      graphql.String
				CreatedAt graphql.String
				Creator   struct {
					Name graphql.String
				}
			}
		} `graphql:"updates(ids: [$updateID])"`
	}
	vars := map[string]interface{}{"updateID": graphql.ID(updateID)}
	if err := c.gql.Query(ctx, &q, vars); err != nil {
		return nil, fmt.Errorf("poll replies update=%s: %w", updateID, err)
	}
	if len(q.Updates) == 0 {
		return nil, nil
	}
	replies := make([]Reply, 0, len(q.Updates[0].Replies))
	for _, r := range q.Updates[0].Replies {
		replies = append(replies, Reply{
			ID:        string(r.ID),
			Body:      string(r.Body),
			Creator:   string(r.Creator.Name),
			CreatedAt: string(r.CreatedAt),
		})
	}
	return replies, nil
}

// UpdateColumnValue sets a single column's value on an item. value is
// the JSON-encoded column value Monday's API expects.
func (c *Client) UpdateColumnValue(ctx context.Context, boardID, itemID int, columnID, value string) error {
	var m struct {
		ChangeColumnValue struct {
			ID graphql.String
		} `graphql:"change_column_value(board_id: $boardID, item_id: $itemID, column_id: $columnID, value: $value)"`
	}
	vars := map[string]interface{}{
		"boardID":  graphql.ID(fmt.Sprintf("%d", boardID)),
		"itemID":   graphql.ID(fmt.Sprintf("%d", itemID)),
		"columnID": graphql.String(columnID),
		"value":    graphql.String(value),
	}
	if err := c.gql.Mutate(ctx, &m, vars); err != nil {
		return fmt.Errorf("change_column_value item=%d column=%s: %w", itemID, columnID, err)
	}
	return nil
}

// GetItemInfo fetches an item's name and current column values.
func (c *Client) GetItemInfo(ctx context.Context, itemID int) (ItemInfo, error) {
	var q struct {
		Items []struct {
			ID           graphql.String
			Name         graphql.String
			ColumnValues []struct {
				ID   graphql.String
				Text graphql.String
			}
		} `graphql:"items(ids: [$itemID])"`
	}
	vars := map[string]interface{}{"itemID": graphql.ID(fmt.Sprintf("%d", itemID))}
	if err := c.gql.Query(ctx, &q, vars); err != nil {
		return ItemInfo{}, fmt.Errorf("get item info item=%d: %w", itemID, err)
	}
	if len(q.Items) == 0 {
		return ItemInfo{}, fmt.Errorf("item %d not found", itemID)
	}
	item := q.Items[0]
	info := ItemInfo{ID: string(item.ID), Name: string(item.Name), ColumnValues: map[string]string{}}
	for _, cv := range item.ColumnValues {
		info.ColumnValues[string(cv.ID)] = string(cv.Text)
	}
	return info, nil
}
