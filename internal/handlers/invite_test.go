package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mesh-chile/community-gateway/internal/github"
	"github.com/mesh-chile/community-gateway/internal/promotion"
)

func TestValidUsername(t *testing.T) {
	valid := []string{"alice", "a", "alice-b", "Alice99", "a1-b2-c3", strings.Repeat("a", 39)}
	invalid := []string{"", "-alice", "alice-", "al--ice", "al_ice", "al ice", strings.Repeat("a", 40)}

	for _, u := range valid {
		if !validUsername(u) {
			t.Errorf("expected %q to be valid", u)
		}
	}
	for _, u := range invalid {
		if validUsername(u) {
			t.Errorf("expected %q to be invalid", u)
		}
	}
}

func postInvite(ctx *HandlerContext, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/invite", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	ctx.InviteHandler(rr, req)
	return rr
}

func TestInviteHandler_MissingUsername(t *testing.T) {
	ctx := newTestContext(testConfig(), &fakeDirectory{}, &fakeEngine{})

	rr := postInvite(ctx, `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestInviteHandler_InvalidJSON(t *testing.T) {
	ctx := newTestContext(testConfig(), &fakeDirectory{}, &fakeEngine{})

	rr := postInvite(ctx, `{nope`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestInviteHandler_RecaptchaRequired(t *testing.T) {
	ctx := newTestContext(testConfig(), &fakeDirectory{}, &fakeEngine{})
	ctx.Captcha = &fakeCaptcha{enabled: true, ok: true}

	rr := postInvite(ctx, `{"username":"alice"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 when the token is missing, got %d", rr.Code)
	}
}

func TestInviteHandler_RecaptchaRejected(t *testing.T) {
	ctx := newTestContext(testConfig(), &fakeDirectory{}, &fakeEngine{})
	ctx.Captcha = &fakeCaptcha{enabled: true, ok: false}

	rr := postInvite(ctx, `{"username":"alice","recaptchaToken":"tok"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 on failed verification, got %d", rr.Code)
	}
}

func TestInviteHandler_InvalidUsernameFormat(t *testing.T) {
	ctx := newTestContext(testConfig(), &fakeDirectory{}, &fakeEngine{})

	rr := postInvite(ctx, `{"username":"-bad-"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestInviteHandler_UnknownGitHubUser(t *testing.T) {
	dir := &fakeDirectory{userErr: fmt.Errorf("user ghost: %w", github.ErrNotFound)}
	ctx := newTestContext(testConfig(), dir, &fakeEngine{})

	rr := postInvite(ctx, `{"username":"ghost"}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

func TestInviteHandler_AlreadyMember(t *testing.T) {
	dir := &fakeDirectory{
		profile:  github.UserProfile{Login: "alice"},
		orgState: promotion.MembershipMember,
	}
	ctx := newTestContext(testConfig(), dir, &fakeEngine{})

	rr := postInvite(ctx, `{"username":"alice"}`)
	if rr.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rr.Code)
	}
	if len(dir.grants) != 0 {
		t.Errorf("an existing member must not be re-invited")
	}
}

func TestInviteHandler_MembershipLookupFailure(t *testing.T) {
	dir := &fakeDirectory{
		profile:  github.UserProfile{Login: "alice"},
		orgState: promotion.MembershipUnknown,
		orgErr:   errors.New("503 unavailable"),
	}
	ctx := newTestContext(testConfig(), dir, &fakeEngine{})

	rr := postInvite(ctx, `{"username":"alice"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 on ambiguous membership, got %d", rr.Code)
	}
	if len(dir.grants) != 0 {
		t.Errorf("must not invite on ambiguous state")
	}
}

func TestInviteHandler_Success(t *testing.T) {
	dir := &fakeDirectory{
		profile:  github.UserProfile{Login: "alice", Name: "Alice", AvatarURL: "https://example.com/a.png"},
		orgState: promotion.MembershipAbsent,
	}
	ctx := newTestContext(testConfig(), dir, &fakeEngine{})

	rr := postInvite(ctx, `{"username":"alice"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp inviteResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Success || !resp.TeamAssigned || resp.User == nil || resp.User.Username != "alice" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(dir.grants) != 1 || dir.grants[0] != "alice:comunidad:member" {
		t.Errorf("expected a community-team assignment, got %v", dir.grants)
	}
}

func TestInviteHandler_TeamAssignmentIsBestEffort(t *testing.T) {
	dir := &fakeDirectory{
		profile:  github.UserProfile{Login: "alice"},
		orgState: promotion.MembershipAbsent,
		grantErr: errors.New("422 team not found"),
	}
	ctx := newTestContext(testConfig(), dir, &fakeEngine{})

	rr := postInvite(ctx, `{"username":"alice"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 despite team failure, got %d", rr.Code)
	}

	var resp inviteResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if !resp.Success || resp.TeamAssigned {
		t.Errorf("expected success with teamAssigned=false, got %+v", resp)
	}
}

func previewRouter(ctx *HandlerContext) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/user/{username}", ctx.UserPreviewHandler)
	return r
}

func TestUserPreviewHandler(t *testing.T) {
	dir := &fakeDirectory{
		profile: github.UserProfile{Login: "alice", Name: "Alice", PublicRepos: 3},
	}
	router := previewRouter(newTestContext(testConfig(), dir, &fakeEngine{}))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/user/alice", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var profile github.UserProfile
	if err := json.Unmarshal(rr.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if profile.Login != "alice" || profile.PublicRepos != 3 {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestUserPreviewHandler_NotFound(t *testing.T) {
	dir := &fakeDirectory{userErr: fmt.Errorf("user ghost: %w", github.ErrNotFound)}
	router := previewRouter(newTestContext(testConfig(), dir, &fakeEngine{}))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/user/ghost", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

func TestUserPreviewHandler_InvalidFormat(t *testing.T) {
	router := previewRouter(newTestContext(testConfig(), &fakeDirectory{}, &fakeEngine{}))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/user/-bad-", nil))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}
