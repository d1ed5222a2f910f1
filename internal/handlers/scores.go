package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/services"
	apperrors "github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/errors"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/response"
)

// ScoreHandler serves score calculations and metric ingestion for one dealership.
type ScoreHandler struct {
	dealerships *services.DealershipService
	scores      *services.ScoreService
}

// NewScoreHandler constructs a ScoreHandler.
func NewScoreHandler(dealerships *services.DealershipService, scores *services.ScoreService) *ScoreHandler {
	return &ScoreHandler{dealerships: dealerships, scores: scores}
}

type recordMetricsRequest struct {
	ObservedAt *time.Time `json:"observed_at"`
	Source     string     `json:"source" validate:"omitempty,max=32"`

	PIQR float64 `json:"piqr" validate:"score"`
	HRP  float64 `json:"hrp" validate:"score"`
	VAI  float64 `json:"vai" validate:"score"`
	OCI  float64 `json:"oci" validate:"score"`

	ATI float64 `json:"ati" validate:"score"`
	AIV float64 `json:"aiv" validate:"score"`
	VLI float64 `json:"vli" validate:"score"`
	OI  float64 `json:"oi" validate:"score"`
	GBP float64 `json:"gbp" validate:"score"`
	RRS float64 `json:"rrs" validate:"score"`
	WX  float64 `json:"wx" validate:"score"`
	IFR float64 `json:"ifr" validate:"score"`
	CIS float64 `json:"cis" validate:"score"`

	PolicyViolations int     `json:"policy_violations" validate:"gte=0"`
	ParityDeltas     int     `json:"parity_deltas" validate:"gte=0"`
	StalenessScore   float64 `json:"staleness_score" validate:"gte=0"`

	SEOVisibility    float64 `json:"seo_visibility" validate:"score"`
	AEOVisibility    float64 `json:"aeo_visibility" validate:"score"`
	GEOVisibility    float64 `json:"geo_visibility" validate:"score"`
	SocialVisibility float64 `json:"social_visibility" validate:"score"`

	ReviewResponseHours *float64 `json:"review_response_hours" validate:"omitempty,gte=0"`
	ReviewVelocity      *float64 `json:"review_velocity" validate:"omitempty,gte=0"`
	LCPSeconds          *float64 `json:"lcp_seconds" validate:"omitempty,gte=0"`
	MonthlyLeads        *int     `json:"monthly_leads" validate:"omitempty,gte=0"`
}

func (r recordMetricsRequest) sample() *models.MetricSample {
	sample := &models.MetricSample{
		Source:              strings.TrimSpace(r.Source),
		PIQR:                r.PIQR,
		HRP:                 r.HRP,
		VAI:                 r.VAI,
		OCI:                 r.OCI,
		ATI:                 r.ATI,
		AIV:                 r.AIV,
		VLI:                 r.VLI,
		OI:                  r.OI,
		GBP:                 r.GBP,
		RRS:                 r.RRS,
		WX:                  r.WX,
		IFR:                 r.IFR,
		CIS:                 r.CIS,
		PolicyViolations:    r.PolicyViolations,
		ParityDeltas:        r.ParityDeltas,
		StalenessScore:      r.StalenessScore,
		SEOVisibility:       r.SEOVisibility,
		AEOVisibility:       r.AEOVisibility,
		GEOVisibility:       r.GEOVisibility,
		SocialVisibility:    r.SocialVisibility,
		ReviewResponseHours: r.ReviewResponseHours,
		ReviewVelocity:      r.ReviewVelocity,
		LCPSeconds:          r.LCPSeconds,
		MonthlyLeads:        r.MonthlyLeads,
	}
	if r.ObservedAt != nil {
		sample.ObservedAt = r.ObservedAt.UTC()
	}
	return sample
}

var scoreKinds = map[string]bool{
	models.ScoreKindQAI:       true,
	models.ScoreKindComposite: true,
	models.ScoreKindConsensus: true,
	models.ScoreKindRaR:       true,
}

// GET /api/dealerships/:id/qai
//
// ?refresh=true bypasses the cache.
func (h *ScoreHandler) QAI(c *gin.Context) {
	dealer, ok := loadDealership(c, h.dealerships)
	if !ok {
		return
	}

	calculate := h.scores.CalculateQAI
	if refresh := parseBoolQuery(c, "refresh"); refresh != nil && *refresh {
		calculate = h.scores.RecalculateQAI
	}
	result, err := calculate(requestContext(c), dealer.ID)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, result, &response.Meta{Cached: result.Cached})
}

// POST /api/dealerships/:id/composite
func (h *ScoreHandler) Composite(c *gin.Context) {
	dealer, ok := loadDealership(c, h.dealerships)
	if !ok {
		return
	}

	result, err := h.scores.CalculateComposite(requestContext(c), dealer.ID)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, result, &response.Meta{Cached: result.Cached})
}

// GET /api/dealerships/:id/rar
func (h *ScoreHandler) RevenueAtRisk(c *gin.Context) {
	dealer, ok := loadDealership(c, h.dealerships)
	if !ok {
		return
	}

	report, err := h.scores.RevenueAtRisk(requestContext(c), dealer.ID)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, report)
}

// GET /api/dealerships/:id/scores?kind=qai&limit=30
func (h *ScoreHandler) History(c *gin.Context) {
	kind := strings.ToLower(strings.TrimSpace(c.Query("kind")))
	if kind != "" && !scoreKinds[kind] {
		response.Error(c, apperrors.NewBadRequest("unknown score kind "+kind))
		return
	}
	dealer, ok := loadDealership(c, h.dealerships)
	if !ok {
		return
	}

	scores, err := h.scores.History(requestContext(c), dealer.ID, kind, parseIntQuery(c, "limit", 30))
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, scores)
}

// GET /api/dealerships/:id/forecast?kind=qai&days=30
func (h *ScoreHandler) Forecast(c *gin.Context) {
	kind := strings.ToLower(strings.TrimSpace(c.DefaultQuery("kind", models.ScoreKindQAI)))
	if !scoreKinds[kind] {
		response.Error(c, apperrors.NewBadRequest("unknown score kind "+kind))
		return
	}
	days := parseIntQuery(c, "days", 30)
	if days <= 0 || days > 180 {
		response.Error(c, apperrors.NewBadRequest("days must be between 1 and 180"))
		return
	}
	dealer, ok := loadDealership(c, h.dealerships)
	if !ok {
		return
	}

	points, err := h.scores.Forecast(requestContext(c), dealer.ID, kind, days)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"kind": kind, "points": points})
}

// POST /api/dealerships/:id/metrics
func (h *ScoreHandler) RecordMetrics(c *gin.Context) {
	var req recordMetricsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	dealer, ok := loadDealership(c, h.dealerships)
	if !ok {
		return
	}

	sample, err := h.scores.RecordMetrics(requestContext(c), dealer.ID, req.sample())
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusCreated, sample)
}

// GET /api/dealerships/:id/metrics/latest
func (h *ScoreHandler) LatestMetrics(c *gin.Context) {
	dealer, ok := loadDealership(c, h.dealerships)
	if !ok {
		return
	}

	sample, err := h.scores.LatestSample(requestContext(c), dealer.ID)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, sample)
}

// POST /api/dealerships/:id/metrics/refresh
func (h *ScoreHandler) RefreshMetrics(c *gin.Context) {
	dealer, ok := loadDealership(c, h.dealerships)
	if !ok {
		return
	}

	sample, err := h.scores.RefreshFromFeed(requestContext(c), dealer.ID)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusCreated, sample)
}
