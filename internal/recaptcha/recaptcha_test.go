package recaptcha

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}

func testVerifier(t *testing.T, response string) *Verifier {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostFormValue("secret") == "" || r.PostFormValue("response") == "" {
			t.Error("siteverify call must carry secret and response")
		}
		fmt.Fprint(w, response)
	}))
	t.Cleanup(ts.Close)

	v := New("captcha-secret", testLogger())
	v.endpoint = ts.URL
	return v
}

func TestVerify_Accepted(t *testing.T) {
	v := testVerifier(t, `{"success":true,"score":0.9,"action":"github_invite"}`)
	if !v.Verify(context.Background(), "tok", "1.2.3.4") {
		t.Error("expected a high-score token to verify")
	}
}

func TestVerify_RejectedByGoogle(t *testing.T) {
	v := testVerifier(t, `{"success":false,"error-codes":["invalid-input-response"]}`)
	if v.Verify(context.Background(), "tok", "1.2.3.4") {
		t.Error("expected a rejected token to fail")
	}
}

func TestVerify_LowScore(t *testing.T) {
	v := testVerifier(t, `{"success":true,"score":0.1,"action":"github_invite"}`)
	if v.Verify(context.Background(), "tok", "1.2.3.4") {
		t.Error("expected a bot-like score to fail")
	}
}

func TestVerify_WrongAction(t *testing.T) {
	v := testVerifier(t, `{"success":true,"score":0.9,"action":"login"}`)
	if v.Verify(context.Background(), "tok", "1.2.3.4") {
		t.Error("expected a token minted for another action to fail")
	}
}

func TestVerify_TimeoutFailsClosed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{"success":true,"score":0.9,"action":"github_invite"}`)
	}))
	t.Cleanup(ts.Close)

	v := New("captcha-secret", testLogger())
	v.endpoint = ts.URL
	v.client = &http.Client{Timeout: 50 * time.Millisecond}

	if v.Verify(context.Background(), "tok", "1.2.3.4") {
		t.Error("exceeding the verification timeout must count as failure")
	}
}

func TestVerify_DisabledWithoutSecret(t *testing.T) {
	v := New("", testLogger())
	if v.Enabled() {
		t.Error("verifier must report disabled without a secret")
	}
	if !v.Verify(context.Background(), "", "1.2.3.4") {
		t.Error("disabled verifier must pass every token")
	}
}
