// Package request talks to the two REST collaborators of the session core:
// the token endpoint (a failed fetch is a hard stop, the session cannot
// start) and the meeting-log endpoint (pure fire and forget).
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/classytamil/Go-Meet/utils"
	log "github.com/sirupsen/logrus"
)

type Client struct {
	endpoint  string
	userAgent string
	client    *http.Client
}

func New(endpoint string, platform string, version string) *Client {
	return &Client{
		endpoint:  endpoint,
		userAgent: fmt.Sprintf("%s go-meet/%s", platform, version),
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// JoinCredential is the gateway join grant issued for one room and name.
type JoinCredential struct {
	Token     string `json:"token"`
	ServerURL string `json:"url"`
}

// FetchToken exchanges a room id and display name for a join credential.
// Any failure aborts the join; there is no retry here, the user repeats the
// action from the entry view.
func (c *Client) FetchToken(ctx context.Context, room, username string) (JoinCredential, error) {
	query := url.Values{"room": {room}, "username": {username}}
	endpoint := fmt.Sprintf("%s/api/token?%s", c.endpoint, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return JoinCredential{}, fmt.Errorf("cannot build token request, err = %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.client.Do(req)
	if err != nil {
		return JoinCredential{}, fmt.Errorf("token request failed, err = %w", err)
	}
	defer drainAndClose(res.Body)

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return JoinCredential{}, fmt.Errorf("cannot read token response, err = %w", err)
	}
	if !success(res) {
		log.Warnf("token endpoint code=%v body=%v", res.StatusCode, string(body))
		return JoinCredential{}, fmt.Errorf("token endpoint returned %v", res.StatusCode)
	}

	var credential JoinCredential
	if err := json.Unmarshal(body, &credential); err != nil {
		return JoinCredential{}, fmt.Errorf("cannot unmarshal token response, err = %w", err)
	}
	if len(credential.Token) == 0 {
		return JoinCredential{}, fmt.Errorf("token endpoint returned empty token")
	}
	return credential, nil
}

// LogMeetingStart records the join timestamp. Failures are logged and
// swallowed; the session never waits on this.
func (c *Client) LogMeetingStart(ctx context.Context, meetingCode, roomID string) {
	c.fireAndForget(ctx, http.MethodPost, utils.H{
		"meetingCode": meetingCode,
		"roomId":      roomID,
	})
}

// LogMeetingEnd records the final duration of the meeting.
func (c *Client) LogMeetingEnd(ctx context.Context, meetingCode string, duration time.Duration) {
	c.fireAndForget(ctx, http.MethodPatch, utils.H{
		"meetingCode":     meetingCode,
		"durationSeconds": int(duration.Seconds()),
	})
}

func (c *Client) fireAndForget(ctx context.Context, method string, body utils.H) {
	endpoint := fmt.Sprintf("%s/api/meetings", c.endpoint)

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(utils.PackToByteArray(body)))
	if err != nil {
		log.WithError(err).Warn("cannot build meeting-log request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.client.Do(req)
	if err != nil {
		log.WithError(err).Warnf("meeting-log %v failed", method)
		return
	}
	defer drainAndClose(res.Body)

	if !success(res) {
		log.Warnf("meeting-log %v code=%v", method, res.StatusCode)
	}
}

func success(r *http.Response) bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	if err := body.Close(); err != nil {
		log.WithError(err).Warn("close body error")
	}
}
