// Command send-webhook delivers a signed test event to a running
// gateway, for manually exercising the promotion flow.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/mesh-chile/community-gateway/internal/webhook"
)

var samplePayloads = map[string]string{
	"repository":   `{"action":"created","repository":{"name":"test-repo","owner":{"login":"%[1]s"}},"sender":{"login":"%[2]s"}}`,
	"push":         `{"repository":{"name":"test-repo","owner":{"login":"%[1]s"}},"pusher":{"name":"%[2]s"},"sender":{"login":"%[2]s"},"commits":[{"id":"abc123","message":"test commit"}]}`,
	"pull_request": `{"action":"opened","repository":{"name":"test-repo","owner":{"login":"%[1]s"}},"pull_request":{"number":1,"title":"Test PR","user":{"login":"%[2]s"}}}`,
	"issues":       `{"action":"opened","repository":{"name":"test-repo","owner":{"login":"%[1]s"}},"issue":{"number":1,"title":"Test issue","user":{"login":"%[2]s"}}}`,
}

func main() {
	var (
		url      = flag.String("url", "http://localhost:8080/webhook/github", "webhook endpoint")
		secret   = flag.String("secret", os.Getenv("GITHUB_WEBHOOK_SECRET"), "webhook secret used to sign the body")
		event    = flag.String("event", "repository", "event type (repository, push, pull_request, issues)")
		org      = flag.String("org", "Mesh-Chile", "repository owner in the payload")
		username = flag.String("user", "testuser", "username in the payload")
		file     = flag.String("file", "", "read the payload from a file instead of the built-in samples")
	)
	flag.Parse()

	var body []byte
	if *file != "" {
		var err error
		body, err = os.ReadFile(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reading payload: %v\n", err)
			os.Exit(1)
		}
	} else {
		tmpl, ok := samplePayloads[*event]
		if !ok {
			fmt.Fprintf(os.Stderr, "no sample payload for event %q\n", *event)
			os.Exit(1)
		}
		body = []byte(fmt.Sprintf(tmpl, *org, *username))
	}

	req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "building request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", *event)
	req.Header.Set("X-GitHub-Delivery", "manual-test")
	if *secret != "" {
		req.Header.Set("X-Hub-Signature-256", webhook.Sign(body, *secret))
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sending webhook: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("%s %s\n", resp.Status, respBody)
}
