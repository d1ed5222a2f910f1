package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/ai"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/handlers/testutil"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/services"
)

func healthySample() models.MetricSample {
	return models.MetricSample{
		ObservedAt: time.Now().UTC().Add(-time.Hour),
		PIQR:       80,
		HRP:        90,
		VAI:        70,
		OCI:        75,
		ATI:        72,
		AIV:        68,
		VLI:        85,
		OI:         60,
		GBP:        74,
		RRS:        66,
		WX:         70,
		IFR:        80,
		CIS:        64,
	}
}

func TestQAIIsCachedOnSecondCall(t *testing.T) {
	env := testutil.NewEnv(t)
	dealer := env.CreateDealership("sunriseford.com")
	env.RecordSample(dealer.ID, healthySample())
	token := env.Token(models.RoleViewer)

	first := env.Request(http.MethodGet, "/api/dealerships/"+dealer.ID+"/qai", nil, token)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	firstResp := testutil.DecodeResponse(t, first)
	var qai services.QAIResult
	testutil.DecodeInto(t, firstResp.Data, &qai)
	require.Equal(t, dealer.ID, qai.DealershipID)
	require.False(t, qai.Cached)
	require.Greater(t, qai.Score, 0)
	require.NotEmpty(t, qai.Band)

	second := env.Request(http.MethodGet, "/api/dealerships/"+dealer.ID+"/qai", nil, token)
	require.Equal(t, http.StatusOK, second.Code)
	secondResp := testutil.DecodeResponse(t, second)
	var cached services.QAIResult
	testutil.DecodeInto(t, secondResp.Data, &cached)
	require.True(t, cached.Cached)
	require.Equal(t, qai.Score, cached.Score)
	require.NotNil(t, secondResp.Meta)
	require.True(t, secondResp.Meta.Cached)

	refreshed := env.Request(http.MethodGet, "/api/dealerships/"+dealer.ID+"/qai?refresh=true", nil, token)
	require.Equal(t, http.StatusOK, refreshed.Code)
	var fresh services.QAIResult
	testutil.DecodeInto(t, testutil.DecodeResponse(t, refreshed).Data, &fresh)
	require.False(t, fresh.Cached)
}

func TestQAIWithoutMetricsIsNotFound(t *testing.T) {
	env := testutil.NewEnv(t)
	dealer := env.CreateDealership("sunriseford.com")

	res := env.Request(http.MethodGet, "/api/dealerships/"+dealer.ID+"/qai", nil, env.Token(models.RoleViewer))
	require.Equal(t, http.StatusNotFound, res.Code, res.Body.String())
}

func TestRecordMetricsValidation(t *testing.T) {
	env := testutil.NewEnv(t)
	dealer := env.CreateDealership("sunriseford.com")
	token := env.Token(models.RoleManager)

	bad := env.Request(http.MethodPost, "/api/dealerships/"+dealer.ID+"/metrics", map[string]any{
		"piqr": 140,
	}, token)
	require.Equal(t, http.StatusBadRequest, bad.Code, bad.Body.String())

	ok := env.Request(http.MethodPost, "/api/dealerships/"+dealer.ID+"/metrics", map[string]any{
		"piqr": 80, "hrp": 90, "vai": 70, "oci": 75, "vli": 82,
	}, token)
	require.Equal(t, http.StatusCreated, ok.Code, ok.Body.String())

	latest := env.Request(http.MethodGet, "/api/dealerships/"+dealer.ID+"/metrics/latest", nil, env.Token(models.RoleViewer))
	require.Equal(t, http.StatusOK, latest.Code, latest.Body.String())
	var sample models.MetricSample
	testutil.DecodeInto(t, testutil.DecodeResponse(t, latest).Data, &sample)
	require.Equal(t, dealer.ID, sample.DealershipID)
	require.InDelta(t, 82, sample.VLI, 0.001)

	viewer := env.Request(http.MethodPost, "/api/dealerships/"+dealer.ID+"/metrics", map[string]any{"piqr": 80}, env.Token(models.RoleViewer))
	require.Equal(t, http.StatusForbidden, viewer.Code)
}

func TestCompositeAndRevenueAtRisk(t *testing.T) {
	env := testutil.NewEnv(t)
	dealer := env.CreateDealership("sunriseford.com")
	env.RecordSample(dealer.ID, healthySample())
	token := env.Token(models.RoleManager)

	composite := env.Request(http.MethodPost, "/api/dealerships/"+dealer.ID+"/composite", nil, token)
	require.Equal(t, http.StatusOK, composite.Code, composite.Body.String())

	rar := env.Request(http.MethodGet, "/api/dealerships/"+dealer.ID+"/rar", nil, token)
	require.Equal(t, http.StatusOK, rar.Code, rar.Body.String())

	history := env.Request(http.MethodGet, "/api/dealerships/"+dealer.ID+"/scores?kind=dai", nil, token)
	require.Equal(t, http.StatusOK, history.Code, history.Body.String())
	var scores []models.Score
	testutil.DecodeInto(t, testutil.DecodeResponse(t, history).Data, &scores)
	require.NotEmpty(t, scores)
	for _, score := range scores {
		require.Equal(t, models.ScoreKindComposite, score.Kind)
	}

	unknown := env.Request(http.MethodGet, "/api/dealerships/"+dealer.ID+"/scores?kind=bogus", nil, token)
	require.Equal(t, http.StatusBadRequest, unknown.Code)
}

func TestForecastRejectsBadHorizon(t *testing.T) {
	env := testutil.NewEnv(t)
	dealer := env.CreateDealership("sunriseford.com")
	token := env.Token(models.RoleViewer)

	res := env.Request(http.MethodGet, "/api/dealerships/"+dealer.ID+"/forecast?days=365", nil, token)
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = env.Request(http.MethodGet, "/api/dealerships/"+dealer.ID+"/forecast?kind=nope", nil, token)
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestSentinelRunRecordsEventsAndNotifies(t *testing.T) {
	env := testutil.NewEnv(t)
	dealer := env.CreateDealership("sunriseford.com")

	sample := healthySample()
	sample.VLI = 45
	lcp := 3.5
	sample.LCPSeconds = &lcp
	env.RecordSample(dealer.ID, sample)

	manager := env.Token(models.RoleManager)
	res := env.Request(http.MethodPost, "/api/dealerships/"+dealer.ID+"/sentinel", nil, manager)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var run struct {
		DealershipID string                 `json:"dealership_id"`
		Breaches     int                    `json:"breaches"`
		Events       []models.SentinelEvent `json:"events"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, res).Data, &run)
	require.Equal(t, dealer.ID, run.DealershipID)
	require.Equal(t, 2, run.Breaches)
	require.Len(t, run.Events, 2)

	posted := env.Notifier.Posted()
	require.NotEmpty(t, posted)
	require.Equal(t, "https://hooks.example.com/global", posted[0].URL)

	list := env.Request(http.MethodGet, "/api/sentinel/events?severity=critical&dealership_id="+dealer.ID, nil, env.Token(models.RoleViewer))
	require.Equal(t, http.StatusOK, list.Code, list.Body.String())
	var critical []models.SentinelEvent
	testutil.DecodeInto(t, testutil.DecodeResponse(t, list).Data, &critical)
	require.Len(t, critical, 1)
	require.Equal(t, models.SeverityCritical, critical[0].Severity)

	ack := env.Request(http.MethodPost, "/api/sentinel/events/"+critical[0].ID+"/ack", nil, manager)
	require.Equal(t, http.StatusOK, ack.Code, ack.Body.String())
	var acked models.SentinelEvent
	testutil.DecodeInto(t, testutil.DecodeResponse(t, ack).Data, &acked)
	require.NotNil(t, acked.AcknowledgedAt)

	again := env.Request(http.MethodPost, "/api/sentinel/events/"+critical[0].ID+"/ack", nil, manager)
	require.Equal(t, http.StatusOK, again.Code)

	badSeverity := env.Request(http.MethodGet, "/api/sentinel/events?severity=meh", nil, manager)
	require.Equal(t, http.StatusBadRequest, badSeverity.Code)

	missing := env.Request(http.MethodPost, "/api/sentinel/events/does-not-exist/ack", nil, manager)
	require.Equal(t, http.StatusNotFound, missing.Code)
}

func TestSentinelRunHealthyDealer(t *testing.T) {
	env := testutil.NewEnv(t)
	dealer := env.CreateDealership("sunriseford.com")
	env.RecordSample(dealer.ID, healthySample())

	res := env.Request(http.MethodPost, "/api/dealerships/"+dealer.ID+"/sentinel", nil, env.Token(models.RoleManager))
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var run struct {
		Breaches int `json:"breaches"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, res).Data, &run)
	require.Zero(t, run.Breaches)
	require.Empty(t, env.Notifier.Posted())
}

func TestConsensusEvaluate(t *testing.T) {
	env := testutil.NewEnv(t)
	dealer := env.CreateDealership("sunriseford.com")
	token := env.Token(models.RoleManager)

	for _, query := range []string{"x", "   a   ", "\t ab \n"} {
		short := env.Request(http.MethodPost, "/api/dealerships/"+dealer.ID+"/consensus", map[string]any{"query": query}, token)
		require.Equal(t, http.StatusBadRequest, short.Code, "query %q", query)
	}

	res := env.Request(http.MethodPost, "/api/dealerships/"+dealer.ID+"/consensus", map[string]any{
		"query": "best ford dealer near me",
	}, token)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var report services.ConsensusReport
	testutil.DecodeInto(t, testutil.DecodeResponse(t, res).Data, &report)
	require.Equal(t, dealer.ID, report.DealershipID)
	require.False(t, report.Insufficient)
	require.Len(t, report.Platforms, 3)
	require.Greater(t, report.Score, 0.0)

	platforms := env.Request(http.MethodGet, "/api/consensus/platforms", nil, env.Token(models.RoleViewer))
	require.Equal(t, http.StatusOK, platforms.Code)
	var payload struct {
		Platforms []string `json:"platforms"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, platforms).Data, &payload)
	require.ElementsMatch(t, []string{"chatgpt", "gemini", "perplexity"}, payload.Platforms)
}

func TestConsensusUnavailableWithoutPlatforms(t *testing.T) {
	env := testutil.NewEnv(t, testutil.WithPlatforms([]ai.Platform{}...))
	dealer := env.CreateDealership("sunriseford.com")

	res := env.Request(http.MethodPost, "/api/dealerships/"+dealer.ID+"/consensus", map[string]any{
		"query": "best ford dealer near me",
	}, env.Token(models.RoleManager))
	require.Equal(t, http.StatusServiceUnavailable, res.Code, res.Body.String())
}

func TestFixPackLifecycle(t *testing.T) {
	env := testutil.NewEnv(t)
	dealer := env.CreateDealership("sunriseford.com")
	sample := healthySample()
	sample.VLI = 45
	env.RecordSample(dealer.ID, sample)
	manager := env.Token(models.RoleManager)

	created := env.Request(http.MethodPost, "/api/dealerships/"+dealer.ID+"/fixpacks", nil, manager)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	var pack models.FixPack
	testutil.DecodeInto(t, testutil.DecodeResponse(t, created).Data, &pack)
	require.Equal(t, dealer.ID, pack.DealershipID)
	require.NotEmpty(t, pack.ID)

	viewer := env.Token(models.RoleViewer)
	list := env.Request(http.MethodGet, "/api/dealerships/"+dealer.ID+"/fixpacks", nil, viewer)
	require.Equal(t, http.StatusOK, list.Code)
	var packs []models.FixPack
	testutil.DecodeInto(t, testutil.DecodeResponse(t, list).Data, &packs)
	require.Len(t, packs, 1)

	get := env.Request(http.MethodGet, "/api/fixpacks/"+pack.ID, nil, viewer)
	require.Equal(t, http.StatusOK, get.Code, get.Body.String())
}

func TestDashboardOverview(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.Token(models.RoleViewer)

	missing := env.Request(http.MethodGet, "/api/dashboard/overview", nil, token)
	require.Equal(t, http.StatusBadRequest, missing.Code)

	dealer := env.CreateDealership("sunriseford.com")
	env.RecordSample(dealer.ID, healthySample())

	res := env.Request(http.MethodGet, "/api/dashboard/overview?dealership_id="+dealer.ID, nil, token)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var overview services.DashboardOverview
	testutil.DecodeInto(t, testutil.DecodeResponse(t, res).Data, &overview)
	require.NotNil(t, overview.Dealership)
	require.Equal(t, dealer.ID, overview.Dealership.ID)
	require.NotNil(t, overview.QAI)
	require.False(t, overview.Cached)

	again := env.Request(http.MethodGet, "/api/dashboard/overview?dealership_id="+dealer.ID, nil, token)
	require.Equal(t, http.StatusOK, again.Code)
	resp := testutil.DecodeResponse(t, again)
	require.NotNil(t, resp.Meta)
	require.True(t, resp.Meta.Cached)
}
