package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/auth"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/realtime"
	apperrors "github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/errors"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/response"
)

// RealtimeHandler upgrades authenticated requests into tenant-scoped WebSocket streams.
type RealtimeHandler struct {
	hub *realtime.Hub
	jwt *iauth.JWTService
}

func NewRealtimeHandler(hub *realtime.Hub, jwt *iauth.JWTService) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, jwt: jwt}
}

// Stream validates the caller and hands the connection to the hub. Browsers
// cannot set headers on a WebSocket handshake, so the token may also arrive
// as a query parameter.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if h.jwt == nil || h.hub == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		token = strings.TrimSpace(c.Query("access_token"))
	}
	if token == "" {
		authz := c.GetHeader("Authorization")
		if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
			token = strings.TrimSpace(authz[7:])
		}
	}
	if token == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	claims, err := h.jwt.ValidateAccessToken(token)
	if err != nil {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	streams := gatherStreams(c)
	for _, stream := range streams {
		if !realtime.KnownStream(stream) {
			response.Error(c, apperrors.NewBadRequest("unknown stream: "+stream))
			return
		}
	}
	if len(streams) == 0 {
		streams = realtime.DefaultStreams
	}

	h.hub.Serve(claims.TenantID, streams, c.Writer, c.Request)
}

func gatherStreams(c *gin.Context) []string {
	var streams []string
	if stream := strings.TrimSpace(c.Param("stream")); stream != "" {
		streams = append(streams, stream)
	}
	for _, raw := range c.QueryArray("stream") {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				streams = append(streams, part)
			}
		}
	}
	return streams
}
