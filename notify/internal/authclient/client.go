package authclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/amesa-systems/amesa-notify/notify/internal/svcclient"
)

// UserInfo is the subset of the auth service user record handlers need.
type UserInfo struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Username  string `json:"username,omitempty"`
}

// DisplayName returns the first name, then username, then "User".
func (u *UserInfo) DisplayName() string {
	switch {
	case u == nil:
		return "User"
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return u.Username
	default:
		return "User"
	}
}

type userIDDTO struct {
	UserID string `json:"userId"`
}

type Client struct {
	http *svcclient.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{http: svcclient.New("auth", baseURL, apiKey, timeout)}
}

// GetUserInfo returns nil without error when the user does not exist.
func (c *Client) GetUserInfo(ctx context.Context, userID string) (*UserInfo, error) {
	if c == nil {
		return nil, fmt.Errorf("auth client not configured")
	}
	var user UserInfo
	err := svcclient.GetData(ctx, c.http, "/api/v1/auth/users/"+url.PathEscape(userID), &user)
	if errors.Is(err, svcclient.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetActiveUserIDs(ctx context.Context) ([]string, error) {
	return c.userIDs(ctx, "/api/v1/auth/users/active")
}

func (c *Client) GetUserIDsBySegment(ctx context.Context, segment string) ([]string, error) {
	return c.userIDs(ctx, "/api/v1/auth/users/segment/"+url.PathEscape(segment))
}

func (c *Client) userIDs(ctx context.Context, path string) ([]string, error) {
	if c == nil {
		return nil, fmt.Errorf("auth client not configured")
	}
	var dtos []userIDDTO
	if err := svcclient.GetData(ctx, c.http, path, &dtos); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(dtos))
	for _, d := range dtos {
		ids = append(ids, d.UserID)
	}
	return ids, nil
}
