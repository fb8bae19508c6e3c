package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/studyhub/studyhub-server/internal/handlers/testutil"
	"github.com/studyhub/studyhub-server/internal/realtime"
)

type taskPayload struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

func TestTaskLifecycle(t *testing.T) {
	env := testutil.NewEnv(t)
	alice := env.Register("alice", "Password123!")
	bob := env.Register("bob", "Password123!")
	group := createGroup(t, env, alice.AccessToken, "Algorithms")

	w := env.Request(http.MethodPost, "/api/groups/"+group.ID+"/tasks", map[string]string{"title": "Read chapter 3"}, bob.AccessToken)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.Request(http.MethodPost, "/api/groups/"+group.ID+"/tasks", map[string]string{"title": "Read chapter 3"}, alice.AccessToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var task taskPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &task)
	require.Equal(t, "TODO", task.Status)

	w = env.Request(http.MethodPatch, "/api/groups/"+group.ID+"/tasks/"+task.ID, map[string]string{"status": "BLOCKED"}, alice.AccessToken)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.Request(http.MethodPatch, "/api/groups/"+group.ID+"/tasks/"+task.ID, map[string]string{"status": "DONE"}, alice.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.Request(http.MethodGet, "/api/groups/"+group.ID+"/tasks?status=done", nil, alice.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []taskPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &tasks)
	require.Len(t, tasks, 1)
	require.Equal(t, "DONE", tasks[0].Status)

	w = env.Request(http.MethodGet, "/api/groups/"+group.ID+"/tasks?status=TODO", nil, alice.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &tasks)
	require.Empty(t, tasks)

	w = env.Request(http.MethodDelete, "/api/groups/"+group.ID+"/tasks/"+task.ID, nil, alice.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.Request(http.MethodDelete, "/api/groups/"+group.ID+"/tasks/"+task.ID, nil, alice.AccessToken)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "TASK_NOT_FOUND", testutil.DecodeResponse(t, w).Error.Code)
}

func TestResourceLifecycle(t *testing.T) {
	env := testutil.NewEnv(t)
	alice := env.Register("alice", "Password123!")
	bob := env.Register("bob", "Password123!")
	group := createGroup(t, env, alice.AccessToken, "Statistics")
	joinGroup(t, env, alice.AccessToken, bob.AccessToken, group.ID)

	w := env.Request(http.MethodPost, "/api/groups/"+group.ID+"/resources", map[string]string{
		"title": "Lecture notes",
		"url":   "ftp://files.example.com/notes.pdf",
	}, bob.AccessToken)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = env.Request(http.MethodPost, "/api/groups/"+group.ID+"/resources", map[string]string{
		"title": "Lecture notes",
		"url":   "https://files.example.com/notes.pdf",
	}, bob.AccessToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resource struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &resource)

	w = env.Request(http.MethodGet, "/api/groups/"+group.ID+"/resources", nil, alice.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, testutil.DecodeResponse(t, w).Meta.Total)

	// The owner may delete links shared by members.
	w = env.Request(http.MethodDelete, "/api/groups/"+group.ID+"/resources/"+resource.ID, nil, alice.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestGroupStreamReceivesTaskEvents(t *testing.T) {
	env := testutil.NewEnv(t)
	alice := env.Register("alice", "Password123!")
	group := createGroup(t, env, alice.AccessToken, "Databases")

	server := httptest.NewServer(env.Router)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/groups/" + group.ID + "/ws?access_token=" + alice.AccessToken
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool {
		return env.Hub.Subscribers(group.ID) == 1
	}, time.Second, 10*time.Millisecond)

	w := env.Request(http.MethodPost, "/api/groups/"+group.ID+"/tasks", map[string]string{"title": "Normalise schema"}, alice.AccessToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg realtime.Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, group.ID, msg.GroupID)
	require.Equal(t, realtime.EventTaskCreated, msg.Event)
}

func TestGroupStreamRejectsNonMembers(t *testing.T) {
	env := testutil.NewEnv(t)
	alice := env.Register("alice", "Password123!")
	bob := env.Register("bob", "Password123!")
	group := createGroup(t, env, alice.AccessToken, "Compilers")

	server := httptest.NewServer(env.Router)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/groups/" + group.ID + "/ws?access_token=" + bob.AccessToken
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}
