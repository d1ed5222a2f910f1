package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/integrations/slack"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/services"
	apperrors "github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/errors"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/logger"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/response"
)

const maxSlackBodyBytes = 64 << 10

// SlackHandler answers the /dealerai slash command.
type SlackHandler struct {
	signingSecret string
	integrations  *services.IntegrationService
	dealerships   *services.DealershipService
	scores        *services.ScoreService
	sentinel      *services.SentinelService
	now           func() time.Time
}

// NewSlackHandler constructs a SlackHandler.
func NewSlackHandler(signingSecret string, integrations *services.IntegrationService, dealerships *services.DealershipService, scores *services.ScoreService, sentinelSvc *services.SentinelService) *SlackHandler {
	return &SlackHandler{
		signingSecret: strings.TrimSpace(signingSecret),
		integrations:  integrations,
		dealerships:   dealerships,
		scores:        scores,
		sentinel:      sentinelSvc,
		now:           time.Now,
	}
}

// POST /api/slack/commands
//
// Slack shows any non-200 answer as a generic failure, so command errors are
// returned as ephemeral text. Only signature failures are rejected.
func (h *SlackHandler) Command(c *gin.Context) {
	body, err := readLimited(c, maxSlackBodyBytes)
	if err != nil {
		response.Error(c, apperrors.NewBadRequest("unable to read request body"))
		return
	}

	err = slack.VerifySignature(h.signingSecret, c.GetHeader(slack.HeaderTimestamp), c.GetHeader(slack.HeaderSignature), body, h.now())
	if err != nil {
		logger.WithModule("slack").Warn("rejected slash command", zap.Error(err))
		response.Error(c, apperrors.ErrUnauthorized.WithMessage("invalid slack signature"))
		return
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		c.JSON(http.StatusOK, ephemeral("Could not read the command payload."))
		return
	}

	cmd, err := slack.ParseCommand(form)
	if err != nil {
		if errors.Is(err, slack.ErrUnknownSubcommand) {
			c.JSON(http.StatusOK, ephemeral(slack.HelpText))
			return
		}
		c.JSON(http.StatusOK, ephemeral(err.Error()+"\n"+slack.HelpText))
		return
	}
	if cmd.Subcommand == slack.SubcommandHelp {
		c.JSON(http.StatusOK, ephemeral(slack.HelpText))
		return
	}

	ctx := requestContext(c)
	tenantID, err := h.integrations.TenantForSlackTeam(ctx, cmd.TeamID)
	if err != nil {
		c.JSON(http.StatusOK, ephemeral("This Slack workspace is not connected to DealershipAI."))
		return
	}
	dealer, err := h.dealerships.GetByDomain(ctx, tenantID, cmd.Domain)
	if err != nil {
		c.JSON(http.StatusOK, ephemeral(fmt.Sprintf("No dealership found for %s.", cmd.Domain)))
		return
	}

	log := logger.WithDealer("slack", dealer.ID).With(zap.String("subcommand", cmd.Subcommand), zap.String("slack_user", cmd.UserID))

	switch cmd.Subcommand {
	case slack.SubcommandScore:
		qai, err := h.scores.CalculateQAI(ctx, dealer.ID)
		if err != nil {
			log.Warn("slack score failed", zap.Error(err))
			c.JSON(http.StatusOK, ephemeral(fmt.Sprintf("Could not score %s: %s", dealer.Domain, clientMessage(err))))
			return
		}
		c.JSON(http.StatusOK, slack.CommandResponse{
			ResponseType: "in_channel",
			Text:         fmt.Sprintf("*%s* QAI score: *%d* (%s)", dealer.Name, qai.Score, qai.Band),
		})

	case slack.SubcommandSentinel:
		events, err := h.sentinel.Run(ctx, dealer.ID)
		if err != nil {
			log.Warn("slack sentinel failed", zap.Error(err))
			c.JSON(http.StatusOK, ephemeral(fmt.Sprintf("Sentinel check failed for %s: %s", dealer.Domain, clientMessage(err))))
			return
		}
		c.JSON(http.StatusOK, slack.CommandResponse{
			ResponseType: "in_channel",
			Text:         sentinelSummary(dealer.Name, events),
		})
	}
}

func ephemeral(text string) slack.CommandResponse {
	return slack.CommandResponse{ResponseType: "ephemeral", Text: text}
}

func sentinelSummary(name string, events []models.SentinelEvent) string {
	if len(events) == 0 {
		return fmt.Sprintf("*%s*: all sentinel thresholds are healthy.", name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*: %d threshold breach(es)", name, len(events))
	for _, event := range events {
		fmt.Fprintf(&b, "\n• [%s] %s", strings.ToUpper(event.Severity), event.Title)
	}
	return b.String()
}

func readLimited(c *gin.Context, limit int64) ([]byte, error) {
	if c.Request == nil || c.Request.Body == nil {
		return nil, nil
	}
	return io.ReadAll(io.LimitReader(c.Request.Body, limit))
}
