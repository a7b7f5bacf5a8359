package courier

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeAPI(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-token")
}

func TestInboxPassesWatermarkAndAuth(t *testing.T) {
	client := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/inbox", r.URL.Path)
		assert.Equal(t, "t4_last", r.URL.Query().Get("after"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": []map[string]any{
				{"name": "t4_1", "author": "mehungry", "body": "invade sapphire", "was_comment": false},
			},
		})
	})

	msgs, err := client.Inbox("t4_last")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "t4_1", msgs[0].ID)
	assert.Equal(t, "invade sapphire", msgs[0].Body)
	assert.False(t, msgs[0].WasComment)
}

func TestReplyReturnsCommentID(t *testing.T) {
	client := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/comment", r.URL.Path)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "t1_parent", payload["parent"])
		json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]string{"name": "t1_new"},
		})
	})

	id, err := client.Reply("t1_parent", "**Confirmed**")
	require.NoError(t, err)
	assert.Equal(t, "t1_new", id)
}

func TestSubmitReturnsThreadID(t *testing.T) {
	client := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/submit", r.URL.Path)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "sapphire", payload["sr"])
		json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]string{"name": "t3_thread"},
		})
	})

	id, err := client.Submit("sapphire", "[Invasion] The orangered armies march!", "body")
	require.NoError(t, err)
	assert.Equal(t, "t3_thread", id)
}

func TestInfoMissingMessage(t *testing.T) {
	client := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": []any{}})
	})

	msg, err := client.Info("t1_gone")
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestAPIErrorsSurface(t *testing.T) {
	client := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "RATELIMIT"})
	})
	_, err := client.Reply("t1_parent", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATELIMIT")

	client = fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err = client.Inbox("")
	assert.Error(t, err)
}
