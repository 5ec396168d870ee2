package notifier

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/plughub-io/plughub/pkg/options"
)

func newTestNotifier(serverURL, secret string) *DingTalk {
	d := NewDingTalk(&options.DingTalkOptions{
		Webhook: serverURL + "/robot/send?access_token=abc",
		Secret:  secret,
		Timeout: time.Second,
	})
	d.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	return d
}

func TestNotifySignsAndPosts(t *testing.T) {
	const secret = "SECret123"

	var gotBody struct {
		MsgType string `json:"msgtype"`
		Text    struct {
			Content string `json:"content"`
		} `json:"text"`
	}
	var gotTimestamp, gotSign string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTimestamp = r.URL.Query().Get("timestamp")
		gotSign = r.URL.Query().Get("sign")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	d := newTestNotifier(srv.URL, secret)
	if err := d.Notify(context.Background(), "hello"); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if gotBody.MsgType != "text" || gotBody.Text.Content != "hello" {
		t.Errorf("body = %+v", gotBody)
	}
	if gotTimestamp != "1700000000000" {
		t.Errorf("timestamp = %q", gotTimestamp)
	}

	// Recompute the signature the robot would verify.
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gotTimestamp + "\n" + secret))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if gotSign != want {
		t.Errorf("sign = %q, want %q", gotSign, want)
	}
}

func TestNotifyRobotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errcode":310000,"errmsg":"sign not match"}`))
	}))
	defer srv.Close()

	d := newTestNotifier(srv.URL, "s")
	if err := d.Notify(context.Background(), "hello"); err == nil {
		t.Fatal("Notify = nil, want error on non-zero errcode")
	}
}

func TestNotifyHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := newTestNotifier(srv.URL, "s")
	if err := d.Notify(context.Background(), "hello"); err == nil {
		t.Fatal("Notify = nil, want error on HTTP 502")
	}
}

func TestNotifyUnreachable(t *testing.T) {
	d := newTestNotifier("http://127.0.0.1:1", "s")
	if err := d.Notify(context.Background(), "hello"); err == nil {
		t.Fatal("Notify = nil, want connection error")
	}
}
