// Package notifier implements the push-messaging collaborator against the
// FCM HTTP v1 API.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/anandpillai/loantrack/internal/domain"
)

const messagingScope = "https://www.googleapis.com/auth/firebase.messaging"

// FCMClient sends push messages through Firebase Cloud Messaging. Auth uses a
// service-account credentials file when configured, otherwise application
// default credentials.
type FCMClient struct {
	projectID   string
	tokenSource oauth2.TokenSource
	httpClient  *http.Client
}

func NewFCMClient(ctx context.Context, projectID, credentialsFile string) (*FCMClient, error) {
	var tokenSource oauth2.TokenSource

	if credentialsFile != "" {
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read FCM credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, messagingScope)
		if err != nil {
			return nil, fmt.Errorf("parse FCM credentials: %w", err)
		}
		tokenSource = creds.TokenSource
	} else {
		var err error
		tokenSource, err = google.DefaultTokenSource(ctx, messagingScope)
		if err != nil {
			return nil, fmt.Errorf("resolve default credentials: %w", err)
		}
	}

	return &FCMClient{
		projectID:   projectID,
		tokenSource: tokenSource,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

type fcmRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Send delivers one message. The loan id travels in the data payload as
// correlation metadata.
func (c *FCMClient) Send(ctx context.Context, msg *domain.PushMessage) error {
	payload := fcmRequest{
		Message: fcmMessage{
			Token: msg.Token,
			Notification: fcmNotification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Data: map[string]string{"loanId": msg.LoanID.String()},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal FCM message: %w", err)
	}

	url := fmt.Sprintf("https://fcm.googleapis.com/v1/projects/%s/messages:send", c.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build FCM request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.tokenSource.Token()
	if err != nil {
		return fmt.Errorf("fetch FCM access token: %w", err)
	}
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send FCM message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("FCM returned %d: %s", resp.StatusCode, detail)
	}

	return nil
}
