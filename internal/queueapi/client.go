package queueapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"standwatch/internal/config"
	"standwatch/internal/logging"
	"standwatch/internal/queue"
)

const userAgent = "standwatch/0.1.0"

// HTTPDoer describes the HTTP client used by the backend client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the queue backend REST API.
type Client struct {
	baseURL string
	client  HTTPDoer
	logger  *slog.Logger
}

// NewClient builds a backend client from configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.Server.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return New(cfg.Server.BaseURL, &http.Client{Timeout: timeout}, logger)
}

// New constructs a backend client with an explicit HTTP doer.
func New(baseURL string, doer HTTPDoer, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  doer,
		logger:  logging.NewComponentLogger(logger, "queueapi"),
	}
}

// Snapshot fetches the visitor's current queue memberships.
//
// The result is a set keyed by stand ID; if the backend ever returns duplicate
// IDs, the last row wins. Order otherwise follows the backend.
func (c *Client) Snapshot(ctx context.Context, login string) ([]queue.Membership, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, Wrap(ErrDataShape, "snapshot", "login is empty", nil)
	}

	var payload []membershipPayload
	if err := c.getJSON(ctx, "snapshot", "/queue/"+url.PathEscape(login), &payload); err != nil {
		return nil, err
	}

	memberships := make([]queue.Membership, 0, len(payload))
	seen := make(map[int64]int, len(payload))
	for _, row := range payload {
		m := row.toMembership()
		if at, dup := seen[m.StandID]; dup {
			c.logger.Warn("duplicate stand id in snapshot; keeping last row",
				logging.Int64(logging.FieldStandID, m.StandID),
				logging.String(logging.FieldEventType, "snapshot_duplicate_stand"),
			)
			memberships[at] = m
			continue
		}
		seen[m.StandID] = len(memberships)
		memberships = append(memberships, m)
	}
	return memberships, nil
}

// ResolveUserID resolves a login handle to the durable numeric user id.
func (c *Client) ResolveUserID(ctx context.Context, login string) (int64, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return 0, Wrap(ErrDataShape, "resolve user id", "login is empty", nil)
	}
	var payload idPayload
	if err := c.getJSON(ctx, "resolve user id", "/auth/"+url.PathEscape(login), &payload); err != nil {
		return 0, err
	}
	return payload.ID, nil
}

// Leave removes the user from a stand's queue.
func (c *Client) Leave(ctx context.Context, userID, standID int64) error {
	body := changePayload{UserID: userID, GameID: standID}
	return c.send(ctx, "leave queue", http.MethodDelete, "/remove", body, nil)
}

// Join signs the user up for a stand's queue and returns the starting
// position reported by the backend.
func (c *Client) Join(ctx context.Context, userID, standID int64) (int, error) {
	body := changePayload{UserID: userID, GameID: standID}
	var pos positionPayload
	if err := c.send(ctx, "join queue", http.MethodPost, "/add", body, &pos); err != nil {
		return 0, err
	}
	return pos.Position, nil
}

// Stands lists all stand descriptors.
func (c *Client) Stands(ctx context.Context) ([]queue.Stand, error) {
	var payload []standPayload
	if err := c.getJSON(ctx, "list stands", "/games", &payload); err != nil {
		return nil, err
	}
	stands := make([]queue.Stand, 0, len(payload))
	for _, row := range payload {
		stands = append(stands, row.toStand())
	}
	return stands, nil
}

// Stand fetches a single stand descriptor.
func (c *Client) Stand(ctx context.Context, standID int64) (queue.Stand, error) {
	var payload standPayload
	if err := c.getJSON(ctx, "describe stand", fmt.Sprintf("/games/%d", standID), &payload); err != nil {
		return queue.Stand{}, err
	}
	return payload.toStand(), nil
}

// Players fetches the ordered staff-side roster for a stand. The first entry
// is the player currently being served.
func (c *Client) Players(ctx context.Context, standID int64) ([]queue.Player, error) {
	var payload []playerPayload
	if err := c.getJSON(ctx, "list players", fmt.Sprintf("/players/%d", standID), &payload); err != nil {
		return nil, err
	}
	players := make([]queue.Player, 0, len(payload))
	for _, row := range payload {
		players = append(players, queue.Player{ID: row.ID, Login: row.Login})
	}
	return players, nil
}

func (c *Client) getJSON(ctx context.Context, operation, path string, out any) error {
	return c.send(ctx, operation, http.MethodGet, path, nil, out)
}

func (c *Client) send(ctx context.Context, operation, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return Wrap(ErrDataShape, operation, "encode request body", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return Wrap(ErrNetwork, operation, "build request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Wrap(ErrNetwork, operation, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// The body is surfaced verbatim so mutation callers can show it.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		message := strings.TrimSpace(string(detail))
		if message == "" {
			message = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return Wrap(ErrServer, operation, message, nil)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return Wrap(ErrDataShape, operation, "decode response", err)
	}
	return nil
}
