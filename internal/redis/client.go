package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/cart"

	"github.com/go-redis/redis/v8"
)

var ErrNotFound = errors.New("not found")

type Client struct {
	rdb *redis.Client
}

// IntentRecord ties a payment intent to the account that requested it.
type IntentRecord struct {
	IntentID  string    `json:"intent_id"`
	UserID    uint      `json:"user_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

func Initialize(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// NewFromClient wraps an already configured go-redis client.
func NewFromClient(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

func cartKey(userID uint) string {
	return fmt.Sprintf("cart:%d", userID)
}

func intentKey(intentID string) string {
	return "intent:" + intentID
}

// Cart persistence

func (c *Client) SaveCart(ctx context.Context, userID uint, cc cart.Cart, ttl time.Duration) error {
	jsonData, err := json.Marshal(cc)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}
	return c.rdb.Set(ctx, cartKey(userID), jsonData, ttl).Err()
}

// GetCart returns an empty cart when none is stored.
func (c *Client) GetCart(ctx context.Context, userID uint) (cart.Cart, error) {
	val, err := c.rdb.Get(ctx, cartKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return cart.Cart{Lines: []cart.Line{}}, nil
		}
		return cart.Cart{}, fmt.Errorf("failed to get cart: %w", err)
	}

	var cc cart.Cart
	if err := json.Unmarshal(val, &cc); err != nil {
		return cart.Cart{}, fmt.Errorf("failed to unmarshal cart: %w", err)
	}
	return cc, nil
}

func (c *Client) DeleteCart(ctx context.Context, userID uint) error {
	return c.rdb.Del(ctx, cartKey(userID)).Err()
}

// Payment intent ownership

func (c *Client) SaveIntent(ctx context.Context, rec *IntentRecord, ttl time.Duration) error {
	jsonData, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal intent record: %w", err)
	}
	return c.rdb.Set(ctx, intentKey(rec.IntentID), jsonData, ttl).Err()
}

func (c *Client) GetIntent(ctx context.Context, intentID string) (*IntentRecord, error) {
	val, err := c.rdb.Get(ctx, intentKey(intentID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("intent %s: %w", intentID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get intent record: %w", err)
	}

	var rec IntentRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal intent record: %w", err)
	}
	return &rec, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
