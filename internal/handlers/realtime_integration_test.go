package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/handlers/testutil"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/models"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/realtime"
)

type streamFrame struct {
	Stream string          `json:"stream"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}

func dialStream(t *testing.T, srv *httptest.Server, path, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path + "?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestRealtimeStreamsSentinelBreachesToTenant(t *testing.T) {
	env := testutil.NewEnv(t)
	srv := httptest.NewServer(env.Router)
	t.Cleanup(srv.Close)

	dealer := env.CreateDealership("sunriseford.com")
	other := env.TokenFor("some-other-tenant", "idp|outsider", models.RoleViewer)

	mine := dialStream(t, srv, "/api/realtime/"+realtime.StreamSentinel, env.Token(models.RoleViewer))
	theirs := dialStream(t, srv, "/api/realtime/"+realtime.StreamSentinel, other)
	require.Eventually(t, func() bool {
		return env.Hub.Subscribers(realtime.StreamSentinel, env.Tenant.ID) == 1 &&
			env.Hub.Subscribers(realtime.StreamSentinel, "some-other-tenant") == 1
	}, 2*time.Second, 10*time.Millisecond)

	sample := healthySample()
	sample.VLI = 45
	env.RecordSample(dealer.ID, sample)

	res := env.Request(http.MethodPost, "/api/dealerships/"+dealer.ID+"/sentinel", nil, env.Token(models.RoleManager))
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	require.NoError(t, mine.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame streamFrame
	require.NoError(t, mine.ReadJSON(&frame))
	require.Equal(t, realtime.StreamSentinel, frame.Stream)
	require.Equal(t, realtime.EventSentinelBreach, frame.Event)

	var event models.SentinelEvent
	require.NoError(t, json.Unmarshal(frame.Data, &event))
	require.Equal(t, dealer.ID, event.DealershipID)
	require.Equal(t, models.SeverityCritical, event.Severity)

	require.NoError(t, theirs.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	require.Error(t, theirs.ReadJSON(&frame))
}

func TestRealtimeRequiresToken(t *testing.T) {
	env := testutil.NewEnv(t)

	res := env.Request(http.MethodGet, "/api/realtime", nil, "")
	require.Equal(t, http.StatusUnauthorized, res.Code)

	res = env.Request(http.MethodGet, "/api/realtime/inventory.feed?token="+env.Token(models.RoleViewer), nil, "")
	require.Equal(t, http.StatusBadRequest, res.Code)
}
