package handlers

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"github.com/mesh-chile/community-gateway/internal/github"
	"github.com/mesh-chile/community-gateway/internal/promotion"
	"github.com/mesh-chile/community-gateway/internal/ratelimit"
)

// GitHub logins: alphanumerics and single interior hyphens. RE2 has no
// lookahead, so the length bound is checked separately.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9](?:-?[a-zA-Z0-9])*$`)

func validUsername(username string) bool {
	return username != "" && len(username) <= 39 && usernamePattern.MatchString(username)
}

type inviteRequest struct {
	Username       string `json:"username"`
	RecaptchaToken string `json:"recaptchaToken"`
}

type inviteResponse struct {
	Success      bool        `json:"success"`
	Message      string      `json:"message"`
	User         *inviteUser `json:"user,omitempty"`
	TeamAssigned bool        `json:"teamAssigned"`
}

type inviteUser struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
}

func inviteError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}

// InviteHandler processes membership requests from outside users: format
// validation, reCAPTCHA, existence check, duplicate-membership check, and
// a best-effort assignment to the community team.
func (ctx *HandlerContext) InviteHandler(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if err := readJSONBody(w, r, &req); err != nil {
		ctx.audit(r, "INVITE_ATTEMPT", "unknown", false, "invalid JSON body")
		return
	}

	if req.Username == "" {
		ctx.audit(r, "INVITE_ATTEMPT", "unknown", false, "username required")
		inviteError(w, http.StatusBadRequest, "Username is required")
		return
	}

	if ctx.Captcha.Enabled() {
		if req.RecaptchaToken == "" {
			ctx.audit(r, "INVITE_ATTEMPT", req.Username, false, "reCAPTCHA token required")
			inviteError(w, http.StatusBadRequest, "reCAPTCHA is required")
			return
		}
		if !ctx.Captcha.Verify(r.Context(), req.RecaptchaToken, ratelimit.ClientIP(r)) {
			ctx.audit(r, "INVITE_ATTEMPT", req.Username, false, "reCAPTCHA verification failed")
			inviteError(w, http.StatusBadRequest, "reCAPTCHA verification failed. Please try again.")
			return
		}
	}

	if !validUsername(req.Username) {
		ctx.audit(r, "INVITE_ATTEMPT", req.Username, false, "invalid username format")
		inviteError(w, http.StatusBadRequest, "Invalid username format")
		return
	}

	profile, err := ctx.Directory.User(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, github.ErrNotFound) {
			ctx.audit(r, "INVITE_ATTEMPT", req.Username, false, "user not found on GitHub")
			inviteError(w, http.StatusNotFound, "User not found on GitHub")
			return
		}
		ctx.audit(r, "INVITE_ERROR", req.Username, false, err.Error())
		inviteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	switch state, err := ctx.Directory.OrgMembership(r.Context(), req.Username); state {
	case promotion.MembershipMember:
		ctx.audit(r, "INVITE_ATTEMPT", req.Username, false, "already a member")
		inviteError(w, http.StatusConflict, "User is already a member of the organization")
		return
	case promotion.MembershipUnknown:
		ctx.audit(r, "INVITE_ERROR", req.Username, false, err.Error())
		inviteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Adding to the community team also sends the org invitation. The
	// invite itself still succeeds if team assignment fails.
	teamAssigned := true
	if err := ctx.Directory.GrantTeamMembership(r.Context(), ctx.Cfg.CommunityTeam, req.Username, promotion.RoleMember); err != nil {
		ctx.Log.Warn("could not add user to community team",
			"username", req.Username,
			"team", ctx.Cfg.CommunityTeam,
			"error", err)
		teamAssigned = false
	}

	ctx.audit(r, "INVITE_SUCCESS", req.Username, true, "invitation sent")
	writeJSON(w, http.StatusOK, inviteResponse{
		Success: true,
		Message: "Invitation sent to " + req.Username,
		User: &inviteUser{
			Username: profile.Login,
			Name:     profile.Name,
			Avatar:   profile.AvatarURL,
		},
		TeamAssigned: teamAssigned,
	})
}

// UserPreviewHandler serves the public profile shown before an invite is
// requested.
func (ctx *HandlerContext) UserPreviewHandler(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if !validUsername(username) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid username format"})
		return
	}

	profile, err := ctx.Directory.User(r.Context(), username)
	if err != nil {
		if errors.Is(err, github.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
			return
		}
		ctx.Log.Error("fetching user preview", "username", username, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Server error"})
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
