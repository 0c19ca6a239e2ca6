package controllers

import (
	"net/http"

	"github.com/angelmondragon/relacksation-backend/api/middleware"
	"github.com/angelmondragon/relacksation-backend/pkg/outbox"
)

func actorFromRequest(r *http.Request) *outbox.ActorRef {
	adminID := middleware.AdminIDFromContext(r.Context())
	if adminID == "" {
		return nil
	}
	return &outbox.ActorRef{AdminID: adminID, Role: middleware.RoleFromContext(r.Context())}
}
