// Package meet is the embeddable session core of the meeting client. The
// host app drives it through JoinMeeting and the Session intents and renders
// whatever the SessionDelegate hands back.
package meet

import (
	"context"
	"fmt"

	"github.com/classytamil/Go-Meet/platform/bridge"
	"github.com/classytamil/Go-Meet/request"
	"github.com/classytamil/Go-Meet/storage"
	log "github.com/sirupsen/logrus"
)

const (
	recentMeetingCodeKey = "recentMeetingCode"
	recentDisplayNameKey = "recentDisplayName"
)

// JoinParams carries everything needed to enter a meeting.
type JoinParams struct {
	// Endpoint is the application backend issuing join tokens.
	Endpoint    string
	MeetingCode string
	DisplayName string
	IsHost      bool
	// Platform and Version identify the host app in the User-Agent.
	Platform string
	Version  string
}

// JoinMeeting performs the full join sequence: token fetch, media room
// connection, session start. A failure in either of the first two steps is
// a hard stop and nothing is started.
func JoinMeeting(ctx context.Context, params JoinParams, delegate SessionDelegate) (*Session, error) {
	client := request.New(params.Endpoint, params.Platform, params.Version)

	credential, err := client.FetchToken(ctx, params.MeetingCode, params.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("cannot join %v, err = %w", params.MeetingCode, err)
	}

	room, err := bridge.Dial(ctx, credential.ServerURL, params.MeetingCode, params.DisplayName, credential.Token)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to %v, err = %w", credential.ServerURL, err)
	}

	go client.LogMeetingStart(context.Background(), params.MeetingCode, room.Local().Identity())

	storage.Get().SetString(recentMeetingCodeKey, params.MeetingCode)
	storage.Get().SetString(recentDisplayNameKey, params.DisplayName)

	log.Infof("joined meeting %v as %v host=%v", params.MeetingCode, params.DisplayName, params.IsHost)
	return startSession(room, delegate, params.MeetingCode, params.DisplayName, params.IsHost, client), nil
}

// RecentMeetingCode returns the last successfully joined code for prefilling
// the entry view, or an empty string.
func RecentMeetingCode() string {
	return storage.Get().GetString(recentMeetingCodeKey)
}

// RecentDisplayName returns the last used display name, or an empty string.
func RecentDisplayName() string {
	return storage.Get().GetString(recentDisplayNameKey)
}
