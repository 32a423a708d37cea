package handlers_test

import (
	"io"
	"net/http"
	"testing"

	"github.com/dom/lost-found/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoticeHandler_Create(t *testing.T) {
	ts := testutil.NewTestServer(t)
	owner := testutil.NewUserBuilder().WithNickname("Owner").BuildAndAuthenticate(t, ts)

	valid := func() map[string]string {
		return map[string]string{
			"title":       "Found keys",
			"type":        "found",
			"date":        "2024-06-02",
			"venue":       "Cafeteria",
			"contact":     "owner@test.com",
			"description": "Three keys on a red ring",
		}
	}
	with := func(field, value string) map[string]string {
		req := valid()
		req[field] = value
		return req
	}

	tests := []struct {
		name           string
		request        map[string]string
		expectedStatus int
		expectedField  string
	}{
		{"valid notice", valid(), http.StatusCreated, ""},
		{"invalid type", with("type", "stolen"), http.StatusBadRequest, "type"},
		{"invalid date", with("date", "02/06/2024"), http.StatusBadRequest, "date"},
		{"missing title", with("title", ""), http.StatusBadRequest, "title"},
		{"missing description", with("description", " "), http.StatusBadRequest, "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.PostJSON(t, "/api/notices", owner.Token, tt.request)
			defer resp.Body.Close()

			require.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedField != "" {
				var body map[string][]string
				testutil.AssertJSONResponse(t, resp, &body)
				assert.Contains(t, body, tt.expectedField)
				return
			}

			var notice testutil.NoticeResponse
			testutil.AssertJSONResponse(t, resp, &notice)
			assert.NotEmpty(t, notice.ID)
			assert.Equal(t, owner.User.ID, notice.Owner)
			assert.Equal(t, "Owner", notice.OwnerNickname)
			assert.Equal(t, owner.User.Email, notice.OwnerEmail)
			assert.Equal(t, "found", notice.Type)
			assert.Equal(t, "2024-06-02", notice.Date)
			assert.Equal(t, "active", notice.Status)
			assert.Equal(t, 0, notice.ResponsesCount)
			assert.Nil(t, notice.Image)
		})
	}
}

func TestNoticeHandler_CreateWithImage(t *testing.T) {
	ts := testutil.NewTestServer(t)
	owner := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	notice := testutil.NewNoticeBuilder().WithImage(testutil.PNGBytes).Build(t, ts, owner.Token)
	require.NotNil(t, notice.Image)
	assert.Equal(t, ts.URL("/api/notices/"+notice.ID+"/image"), *notice.Image)

	resp := ts.Get(t, "/api/notices/"+notice.ID+"/image", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, testutil.PNGBytes, data)
}

func TestNoticeHandler_ImageMissing(t *testing.T) {
	ts := testutil.NewTestServer(t)
	owner := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	notice := testutil.NewNoticeBuilder().Build(t, ts, owner.Token)

	for _, path := range []string{
		"/api/notices/" + notice.ID + "/image",
		"/api/notices/unknown/image",
	} {
		resp := ts.Get(t, path, "")
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestNoticeHandler_ListAndMyNotices(t *testing.T) {
	ts := testutil.NewTestServer(t)
	alice := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	bob := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	first := testutil.NewNoticeBuilder().With("title", "first").Build(t, ts, alice.Token)
	second := testutil.NewNoticeBuilder().With("title", "second").Build(t, ts, bob.Token)
	third := testutil.NewNoticeBuilder().With("title", "third").Build(t, ts, alice.Token)

	resp := ts.Get(t, "/api/notices", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var all []testutil.NoticeResponse
	testutil.AssertJSONResponse(t, resp, &all)
	require.Len(t, all, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	mine := ts.Get(t, "/api/notices/my-notices", alice.Token)
	defer mine.Body.Close()
	require.Equal(t, http.StatusOK, mine.StatusCode)

	var own []testutil.NoticeResponse
	testutil.AssertJSONResponse(t, mine, &own)
	require.Len(t, own, 2)
	assert.Equal(t, third.ID, own[0].ID)
	assert.Equal(t, first.ID, own[1].ID)
}

func TestNoticeHandler_EmptyList(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := ts.Get(t, "/api/notices", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(body))
}

func TestNoticeHandler_Get(t *testing.T) {
	ts := testutil.NewTestServer(t)
	owner := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	finder := testutil.NewUserBuilder().WithNickname("Finder").BuildAndAuthenticate(t, ts)
	notice := testutil.NewNoticeBuilder().Build(t, ts, owner.Token)

	respond := ts.PostJSON(t, "/api/notices/"+notice.ID+"/respond", finder.Token, map[string]string{"message": "I have it"})
	respond.Body.Close()
	require.Equal(t, http.StatusCreated, respond.StatusCode)

	resp := ts.Get(t, "/api/notices/"+notice.ID, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail testutil.NoticeResponse
	testutil.AssertJSONResponse(t, resp, &detail)
	assert.Equal(t, 1, detail.ResponsesCount)
	require.Len(t, detail.Responses, 1)
	assert.Equal(t, "I have it", detail.Responses[0].Message)
	assert.Equal(t, finder.User.ID, detail.Responses[0].Responder)
	assert.Equal(t, "Finder", detail.Responses[0].ResponderNickname)
	assert.Equal(t, finder.User.Email, detail.Responses[0].ResponderEmail)

	missing := ts.Get(t, "/api/notices/unknown", "")
	defer missing.Body.Close()
	testutil.AssertErrorResponse(t, missing, http.StatusNotFound, "Not found.")
}

func TestNoticeHandler_Respond(t *testing.T) {
	ts := testutil.NewTestServer(t)
	owner := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	finder := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	latecomer := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	active := testutil.NewNoticeBuilder().Build(t, ts, owner.Token)
	completed := testutil.NewNoticeBuilder().Build(t, ts, owner.Token)
	done := ts.PostJSON(t, "/api/notices/"+completed.ID+"/complete", owner.Token, nil)
	done.Body.Close()
	require.Equal(t, http.StatusOK, done.StatusCode)

	tests := []struct {
		name            string
		token           string
		noticeID        string
		message         string
		expectedStatus  int
		expectedMessage string
	}{
		{"first response", finder.Token, active.ID, "Seen it at the desk", http.StatusCreated, "Seen it at the desk"},
		{"second response by same user", finder.Token, active.ID, "again", http.StatusBadRequest, "You have already responded to this notice."},
		{"owner responds", owner.Token, active.ID, "mine", http.StatusBadRequest, "You cannot respond to your own notice."},
		{"completed notice", latecomer.Token, completed.ID, "too late", http.StatusBadRequest, "This notice is no longer active."},
		{"empty message", latecomer.Token, active.ID, "", http.StatusBadRequest, "message"},
		{"unknown notice", latecomer.Token, "unknown", "hello", http.StatusNotFound, "Not found."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.PostJSON(t, "/api/notices/"+tt.noticeID+"/respond", tt.token, map[string]string{"message": tt.message})
			defer resp.Body.Close()
			testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedMessage)
		})
	}

	resp := ts.Get(t, "/api/notices/"+active.ID, "")
	defer resp.Body.Close()
	var detail testutil.NoticeResponse
	testutil.AssertJSONResponse(t, resp, &detail)
	assert.Equal(t, 1, detail.ResponsesCount)
}

func TestNoticeHandler_Complete(t *testing.T) {
	ts := testutil.NewTestServer(t)
	owner := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	other := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	notice := testutil.NewNoticeBuilder().Build(t, ts, owner.Token)

	forbidden := ts.PostJSON(t, "/api/notices/"+notice.ID+"/complete", other.Token, nil)
	defer forbidden.Body.Close()
	testutil.AssertErrorResponse(t, forbidden, http.StatusForbidden, "Only the owner can complete this notice.")

	resp := ts.PostJSON(t, "/api/notices/"+notice.ID+"/complete", owner.Token, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var completed testutil.NoticeResponse
	testutil.AssertJSONResponse(t, resp, &completed)
	assert.Equal(t, "completed", completed.Status)

	again := ts.PostJSON(t, "/api/notices/"+notice.ID+"/complete", owner.Token, nil)
	defer again.Body.Close()
	testutil.AssertErrorResponse(t, again, http.StatusBadRequest, "Notice is already completed.")
}

func TestNoticeHandler_InvalidBearerOnPublicRoute(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := ts.Get(t, "/api/notices", "not-a-real-token")
	defer resp.Body.Close()
	testutil.AssertBearerChallenge(t, resp)
}
