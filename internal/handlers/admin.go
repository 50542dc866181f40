package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mesh-chile/community-gateway/internal/promotion"
)

type adminPromoteRequest struct {
	AdminKey string `json:"adminKey"`
	Reason   string `json:"reason"`
}

// AdminPromoteHandler is the manual override: it invokes the same
// promotion flow as the webhook path, bypassing classification. The
// response reflects only authorization and input validity; like the
// webhook path, promotion outcome is absorbed by the orchestrator.
func (ctx *HandlerContext) AdminPromoteHandler(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var req adminPromoteRequest
	if err := readJSONBody(w, r, &req); err != nil {
		ctx.audit(r, "ADMIN_PROMOTE", username, false, "invalid JSON body")
		return
	}

	if ctx.Cfg.AdminKey == "" ||
		subtle.ConstantTimeCompare([]byte(req.AdminKey), []byte(ctx.Cfg.AdminKey)) != 1 {
		ctx.audit(r, "ADMIN_PROMOTE", username, false, "invalid admin key")
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"message": "Unauthorized",
		})
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "Manual promotion by admin"
	}

	ctx.Engine.Promote(r.Context(), promotion.Intent{Username: username, Reason: reason})

	ctx.audit(r, "ADMIN_PROMOTE", username, true, "manual promotion triggered")
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User " + username + " manually promoted to collaborator",
	})
}
