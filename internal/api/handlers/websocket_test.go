package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dom/lost-found/internal/service"
	"github.com/dom/lost-found/internal/testutil"
	"github.com/dom/lost-found/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wsTimeout = 2 * time.Second

func TestWebSocketHandler_RejectsBadToken(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"unknown token", "bogus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := testutil.DialWS(ts.WebSocketURL(tt.token))
			if conn != nil {
				conn.Close()
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestWebSocketHandler_PingPong(t *testing.T) {
	ts := testutil.NewTestServer(t)
	auth := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	client := testutil.NewWSClient(t, ts.WebSocketURL(auth.Token))
	connected := client.ExpectConnected(wsTimeout)
	assert.Equal(t, auth.User.ID, connected.UserID)

	client.Send(websocket.MessageTypePing, nil)
	client.ExpectMessage(websocket.MessageTypePong, wsTimeout)

	client.SendRaw([]byte("not json"))
	client.ExpectError(wsTimeout)
}

func TestWebSocketHandler_NotifiesOwnerOfResponse(t *testing.T) {
	ts := testutil.NewTestServer(t)
	owner := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	finder := testutil.NewUserBuilder().WithNickname("Finder").BuildAndAuthenticate(t, ts)
	notice := testutil.NewNoticeBuilder().With("title", "Lost umbrella").Build(t, ts, owner.Token)

	ownerWS := testutil.NewWSClient(t, ts.WebSocketURL(owner.Token))
	ownerWS.ExpectConnected(wsTimeout)
	finderWS := testutil.NewWSClient(t, ts.WebSocketURL(finder.Token))
	finderWS.ExpectConnected(wsTimeout)

	resp := ts.PostJSON(t, "/api/notices/"+notice.ID+"/respond", finder.Token, map[string]string{"message": "It is at reception"})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var payload service.NoticeResponsePayload
	ownerWS.ExpectPayload(websocket.MessageTypeNoticeResponse, &payload, wsTimeout)
	assert.Equal(t, notice.ID, payload.NoticeID)
	assert.Equal(t, "Lost umbrella", payload.NoticeTitle)
	assert.Equal(t, finder.User.ID, payload.ResponderID)
	assert.Equal(t, "Finder", payload.ResponderNickname)
	assert.Equal(t, "It is at reception", payload.Message)

	finderWS.ExpectNoMessage(200 * time.Millisecond)

	done := ts.PostJSON(t, "/api/notices/"+notice.ID+"/complete", owner.Token, nil)
	done.Body.Close()
	require.Equal(t, http.StatusOK, done.StatusCode)

	var completed service.NoticeCompletedPayload
	finderWS.ExpectPayload(websocket.MessageTypeNoticeCompleted, &completed, wsTimeout)
	assert.Equal(t, notice.ID, completed.NoticeID)
}

func TestWebSocketHandler_LogoutClosesConnection(t *testing.T) {
	ts := testutil.NewTestServer(t)
	owner := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	finder := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	notice := testutil.NewNoticeBuilder().Build(t, ts, owner.Token)

	ownerWS := testutil.NewWSClient(t, ts.WebSocketURL(owner.Token))
	ownerWS.ExpectConnected(wsTimeout)
	require.Eventually(t, func() bool {
		return ts.Hub.ConnectionCount(owner.User.ID) == 1
	}, wsTimeout, 10*time.Millisecond)

	resp := ts.PostJSON(t, "/auth/logout", owner.Token, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 0, ts.Hub.ConnectionCount(owner.User.ID))

	resp = ts.PostJSON(t, "/api/notices/"+notice.ID+"/respond", finder.Token, map[string]string{"message": "private message"})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	ownerWS.ExpectNoMessage(200 * time.Millisecond)
	ownerWS.ExpectClosed(wsTimeout)
}

func TestWebSocketHandler_LoginClosesConnectionsOfReplacedToken(t *testing.T) {
	ts := testutil.NewTestServer(t)
	builder := testutil.NewUserBuilder()
	owner := builder.BuildAndAuthenticate(t, ts)
	finder := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	notice := testutil.NewNoticeBuilder().Build(t, ts, owner.Token)

	staleWS := testutil.NewWSClient(t, ts.WebSocketURL(owner.Token))
	staleWS.ExpectConnected(wsTimeout)

	resp := ts.PostJSON(t, "/auth/login", "", map[string]string{
		"email":    builder.Email(),
		"password": builder.Password(),
	})
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var login testutil.AuthResponse
	testutil.AssertJSONResponse(t, resp, &login)
	require.NotEqual(t, owner.Token, login.Token)

	staleWS.ExpectClosed(wsTimeout)

	currentWS := testutil.NewWSClient(t, ts.WebSocketURL(login.Token))
	currentWS.ExpectConnected(wsTimeout)

	resp = ts.PostJSON(t, "/api/notices/"+notice.ID+"/respond", finder.Token, map[string]string{"message": "Found it"})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	currentWS.ExpectMessage(websocket.MessageTypeNoticeResponse, wsTimeout)
}
