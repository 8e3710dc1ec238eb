package lotteryclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/amesa-systems/amesa-notify/notify/internal/svcclient"
)

type Participant struct {
	UserID      string `json:"userId"`
	TicketCount int    `json:"ticketCount"`
}

type HouseInfo struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	CreatedByUserID string  `json:"createdByUserId"`
	Price           float64 `json:"price"`
}

type Favorite struct {
	UserID  string `json:"userId"`
	HouseID string `json:"houseId"`
}

type Client struct {
	http *svcclient.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{http: svcclient.New("lottery", baseURL, apiKey, timeout)}
}

// GetDrawParticipants returns the distinct user ids holding tickets in drawID.
func (c *Client) GetDrawParticipants(ctx context.Context, drawID string) ([]string, error) {
	if c == nil {
		return nil, fmt.Errorf("lottery client not configured")
	}
	var participants []Participant
	if err := svcclient.GetData(ctx, c.http, "/api/v1/draws/"+url.PathEscape(drawID)+"/participants", &participants); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.UserID)
	}
	return distinct(ids), nil
}

// GetHouseInfo returns nil without error when the house does not exist.
func (c *Client) GetHouseInfo(ctx context.Context, houseID string) (*HouseInfo, error) {
	if c == nil {
		return nil, fmt.Errorf("lottery client not configured")
	}
	var house HouseInfo
	err := svcclient.GetData(ctx, c.http, "/api/v1/houses/"+url.PathEscape(houseID), &house)
	if errors.Is(err, svcclient.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &house, nil
}

// GetHouseCreatorID returns "" when the house or its creator is unknown.
func (c *Client) GetHouseCreatorID(ctx context.Context, houseID string) (string, error) {
	house, err := c.GetHouseInfo(ctx, houseID)
	if err != nil || house == nil {
		return "", err
	}
	return house.CreatedByUserID, nil
}

// GetHouseFavoriteUserIDs returns the distinct users who favorited houseID.
func (c *Client) GetHouseFavoriteUserIDs(ctx context.Context, houseID string) ([]string, error) {
	if c == nil {
		return nil, fmt.Errorf("lottery client not configured")
	}
	var favorites []Favorite
	if err := svcclient.GetData(ctx, c.http, "/api/v1/houses/"+url.PathEscape(houseID)+"/favorites", &favorites); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(favorites))
	for _, f := range favorites {
		ids = append(ids, f.UserID)
	}
	return distinct(ids), nil
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
