package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key patterns for Redis game state.
func stateKey(gameID string) string { return "game:" + gameID + ":state" }
func ordersKey(gameID string, num int) string {
	return "game:" + gameID + ":orders:" + strconv.Itoa(num)
}
func draftKey(gameID string, num int) string {
	return "game:" + gameID + ":draft:" + strconv.Itoa(num)
}
func submittedKey(gameID string) string { return "game:" + gameID + ":submitted" }
func timerKey(gameID string) string     { return "game:" + gameID + ":timer" }

// SetGameState stores the live game state JSON.
func (c *Client) SetGameState(ctx context.Context, gameID string, state json.RawMessage) error {
	return c.rdb.Set(ctx, stateKey(gameID), []byte(state), 0).Err()
}

// GetGameState retrieves the live game state JSON.
func (c *Client) GetGameState(ctx context.Context, gameID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, stateKey(gameID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game state: %w", err)
	}
	return json.RawMessage(data), nil
}

// SetOrders stores a player's submitted orders for the current turn.
func (c *Client) SetOrders(ctx context.Context, gameID string, playerNum int, orders json.RawMessage) error {
	return c.rdb.Set(ctx, ordersKey(gameID, playerNum), []byte(orders), 0).Err()
}

// GetOrders retrieves a player's submitted orders.
func (c *Client) GetOrders(ctx context.Context, gameID string, playerNum int) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, ordersKey(gameID, playerNum)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get orders: %w", err)
	}
	return json.RawMessage(data), nil
}

// SetDraft stores a player's pending draft orders. Drafts are adopted
// at resolution when the player never submitted.
func (c *Client) SetDraft(ctx context.Context, gameID string, playerNum int, orders json.RawMessage) error {
	return c.rdb.Set(ctx, draftKey(gameID, playerNum), []byte(orders), 0).Err()
}

// GetDraft retrieves a player's pending draft orders.
func (c *Client) GetDraft(ctx context.Context, gameID string, playerNum int) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, draftKey(gameID, playerNum)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return json.RawMessage(data), nil
}

// MarkSubmitted adds a player to the submitted set for the game.
func (c *Client) MarkSubmitted(ctx context.Context, gameID string, playerNum int) error {
	return c.rdb.SAdd(ctx, submittedKey(gameID), playerNum).Err()
}

// SubmittedCount returns how many players have submitted this turn.
func (c *Client) SubmittedCount(ctx context.Context, gameID string) (int64, error) {
	return c.rdb.SCard(ctx, submittedKey(gameID)).Result()
}

// SubmittedPlayers returns the player numbers that have submitted.
func (c *Client) SubmittedPlayers(ctx context.Context, gameID string) ([]int, error) {
	members, err := c.rdb.SMembers(ctx, submittedKey(gameID)).Result()
	if err != nil {
		return nil, fmt.Errorf("submitted players: %w", err)
	}
	nums := make([]int, 0, len(members))
	for _, m := range members {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}
	return nums, nil
}

// turnGracePeriod is the extra time after the displayed deadline before
// turn resolution triggers, giving players a few seconds of leeway.
const turnGracePeriod = 5 * time.Second

// SetTimer creates a timer key with a TTL. When the key expires,
// Redis keyspace notifications trigger turn resolution. The TTL
// includes a grace period so the key expires slightly after the
// displayed deadline.
func (c *Client) SetTimer(ctx context.Context, gameID string, deadline time.Time) error {
	ttl := time.Until(deadline) + turnGracePeriod
	if ttl <= 0 {
		ttl = time.Second
	}
	return c.rdb.Set(ctx, timerKey(gameID), deadline.Unix(), ttl).Err()
}

// ClearTimer removes the timer for a game.
func (c *Client) ClearTimer(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, timerKey(gameID)).Err()
}

// ClearTurnData removes all orders, drafts, submitted flags, and the
// timer for a game. Called after turn resolution to prepare the next
// turn.
func (c *Client) ClearTurnData(ctx context.Context, gameID string, playerNums []int) error {
	keys := []string{submittedKey(gameID), timerKey(gameID)}
	for _, num := range playerNums {
		keys = append(keys, ordersKey(gameID, num), draftKey(gameID, num))
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// DeleteGameData removes all Redis data for a game (on game end).
func (c *Client) DeleteGameData(ctx context.Context, gameID string, playerNums []int) error {
	keys := []string{stateKey(gameID), submittedKey(gameID), timerKey(gameID)}
	for _, num := range playerNums {
		keys = append(keys, ordersKey(gameID, num), draftKey(gameID, num))
	}
	return c.rdb.Del(ctx, keys...).Err()
}
