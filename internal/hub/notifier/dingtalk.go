// Package notifier delivers verification notices through a DingTalk robot
// webhook.
package notifier

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/plughub-io/plughub/internal/hub/core"
	"github.com/plughub-io/plughub/pkg/options"
)

var _ core.Notifier = (*DingTalk)(nil)

// DingTalk posts text messages to a robot webhook. Each request is signed
// with the robot secret per DingTalk's scheme: HMAC-SHA256 over
// "{timestampMillis}\n{secret}", base64 then URL-escaped, appended to the
// webhook URL as timestamp and sign query parameters.
type DingTalk struct {
	webhook string
	secret  string
	client  *http.Client

	now func() time.Time
}

// NewDingTalk creates the webhook notifier.
func NewDingTalk(opts *options.DingTalkOptions) *DingTalk {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &DingTalk{
		webhook: opts.Webhook,
		secret:  opts.Secret,
		client:  &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

type textMessage struct {
	MsgType string `json:"msgtype"`
	Text    struct {
		Content string `json:"content"`
	} `json:"text"`
}

type robotResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// Notify delivers one text message. The caller treats both outcomes as
// non-fatal; the error exists so the failure is a named, observable result
// instead of a swallowed one.
func (d *DingTalk) Notify(ctx context.Context, message string) error {
	signedURL, err := d.signedWebhook()
	if err != nil {
		return err
	}

	var msg textMessage
	msg.MsgType = "text"
	msg.Text.Content = message

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, signedURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	var result robotResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode webhook response: %w", err)
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("robot rejected message: %d %s", result.ErrCode, result.ErrMsg)
	}

	return nil
}

// signedWebhook appends the timestamp and signature query parameters.
func (d *DingTalk) signedWebhook() (string, error) {
	u, err := url.Parse(d.webhook)
	if err != nil {
		return "", fmt.Errorf("invalid webhook url: %w", err)
	}

	timestamp := fmt.Sprintf("%d", d.now().UnixMilli())
	mac := hmac.New(sha256.New, []byte(d.secret))
	mac.Write([]byte(timestamp + "\n" + d.secret))
	sign := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	q := u.Query()
	q.Set("timestamp", timestamp)
	q.Set("sign", sign)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
