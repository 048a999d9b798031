package presentation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaikyD/laundry-queue/internal/application"
	"github.com/RaikyD/laundry-queue/internal/repository"
)

type brokenClearRepo struct {
	*repository.MemoryRepository
}

func (brokenClearRepo) Clear(context.Context) error { return errors.New("locked") }

// slowClearRepo takes a while to erase, long enough for a client to give up.
type slowClearRepo struct {
	*repository.MemoryRepository
}

func (r slowClearRepo) Clear(ctx context.Context) error {
	time.Sleep(50 * time.Millisecond)
	return r.MemoryRepository.Clear(ctx)
}

func newTestServer(t *testing.T, repo repository.OrderRepo) (*httptest.Server, *application.QueueService) {
	t.Helper()
	svc := application.NewQueueService(repo, application.WithStorageTimeout(time.Second))
	t.Cleanup(svc.Close)
	srv := httptest.NewServer(NewRouter(NewQueueHandler(svc), 5*time.Second))
	t.Cleanup(srv.Close)
	return srv, svc
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res, out
}

func getQueue(t *testing.T, srv *httptest.Server) queueView {
	t.Helper()
	res, err := http.Get(srv.URL + "/api/queue")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var q queueView
	require.NoError(t, json.NewDecoder(res.Body).Decode(&q))
	return q
}

func TestAddCompleteAndList(t *testing.T) {
	srv, _ := newTestServer(t, repository.NewMemoryRepository())

	res, alice := doJSON(t, http.MethodPost, srv.URL+"/api/customers", `{"name":" Alice ","clothesCount":5}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "Alice", alice["name"])
	assert.EqualValues(t, 1, alice["position"])

	res, _ = doJSON(t, http.MethodPost, srv.URL+"/api/customers", `{"name":"Bob","clothesCount":6}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	id := alice["id"].(string)
	res, done := doJSON(t, http.MethodPost, srv.URL+"/api/customers/"+id+"/complete", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, done["completed"])
	assert.NotNil(t, done["completedDate"])

	q := getQueue(t, srv)
	assert.Equal(t, 8, q.DailyLimit)
	assert.Equal(t, application.Stats{Pending: 1, Completed: 1, TotalPendingClothes: 6, DailyLimit: 8}, q.Stats)
	require.Len(t, q.Pending, 1)
	assert.Equal(t, "Bob", q.Pending[0].Name)
	assert.Equal(t, 1, q.Pending[0].Position)
	require.Len(t, q.Completed, 1)
	assert.Equal(t, "Alice", q.Completed[0].Name)
}

func TestAddCustomerFromForm(t *testing.T) {
	srv, svc := newTestServer(t, repository.NewMemoryRepository())

	res, err := http.PostForm(srv.URL+"/api/customers", url.Values{"name": {"Carol"}, "clothesCount": {"3"}})
	require.NoError(t, err)
	res.Body.Close()

	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, 3, svc.TotalPendingClothes())
}

func TestAddCustomerValidation(t *testing.T) {
	srv, svc := newTestServer(t, repository.NewMemoryRepository())

	cases := []struct {
		name string
		body string
	}{
		{"empty name", `{"name":"","clothesCount":2}`},
		{"zero clothes", `{"name":"Bob","clothesCount":0}`},
		{"negative clothes", `{"name":"Bob","clothesCount":-1}`},
		{"missing count", `{"name":"Bob"}`},
		{"unknown field", `{"name":"Bob","clothesCount":1,"vip":true}`},
		{"not json", `name=Bob`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, body := doJSON(t, http.MethodPost, srv.URL+"/api/customers", tc.body)
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
			assert.NotEmpty(t, body["error"])
		})
	}
	assert.Empty(t, svc.All())
}

func TestAddCustomerUnsupportedMediaType(t *testing.T) {
	srv, _ := newTestServer(t, repository.NewMemoryRepository())

	res, err := http.Post(srv.URL+"/api/customers", "text/xml", strings.NewReader("<customer/>"))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, res.StatusCode)
}

func TestCompleteUnknownCustomer(t *testing.T) {
	srv, _ := newTestServer(t, repository.NewMemoryRepository())

	res, body := doJSON(t, http.MethodPost, srv.URL+"/api/customers/nope/complete", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "order not found", body["error"])
}

func TestGetCustomer(t *testing.T) {
	srv, svc := newTestServer(t, repository.NewMemoryRepository())
	o, err := svc.Add("Dana", 2)
	require.NoError(t, err)

	res, body := doJSON(t, http.MethodGet, srv.URL+"/api/customers/"+o.ID, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "Dana", body["name"])

	res, _ = doJSON(t, http.MethodGet, srv.URL+"/api/customers/missing", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestClearAll(t *testing.T) {
	repo := repository.NewMemoryRepository()
	srv, svc := newTestServer(t, repo)
	_, err := svc.Add("Alice", 2)
	require.NoError(t, err)

	res, body := doJSON(t, http.MethodDelete, srv.URL+"/api/customers", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, clearedMessage, body["message"])

	q := getQueue(t, srv)
	assert.Empty(t, q.Pending)
	assert.Empty(t, q.Completed)

	stored, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestClearAllFailure(t *testing.T) {
	srv, svc := newTestServer(t, brokenClearRepo{repository.NewMemoryRepository()})
	_, err := svc.Add("Alice", 2)
	require.NoError(t, err)

	res, body := doJSON(t, http.MethodDelete, srv.URL+"/api/customers", "")
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, clearFailedMessage, body["error"])
	assert.Empty(t, svc.All())
}

func TestClearAllReportsOutcomeAfterClientCancel(t *testing.T) {
	repo := slowClearRepo{repository.NewMemoryRepository()}
	svc := application.NewQueueService(repo, application.WithStorageTimeout(time.Second))
	t.Cleanup(svc.Close)
	_, err := svc.Add("Alice", 2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodDelete, "/api/customers", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	NewQueueHandler(svc).ClearAll(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, clearedMessage, body["message"])

	stored, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRecentCompletedIsCapped(t *testing.T) {
	srv, svc := newTestServer(t, repository.NewMemoryRepository())
	for i := 0; i < 7; i++ {
		o, err := svc.Add(string(rune('A'+i)), 1)
		require.NoError(t, err)
		_, err = svc.Complete(o.ID)
		require.NoError(t, err)
	}

	q := getQueue(t, srv)
	assert.Len(t, q.Completed, 7)
	require.Len(t, q.RecentCompleted, completedShown)
	assert.Equal(t, "C", q.RecentCompleted[0].Name)
	assert.Equal(t, "G", q.RecentCompleted[4].Name)
}

func TestStaticPageAndHealth(t *testing.T) {
	srv, _ := newTestServer(t, repository.NewMemoryRepository())

	res, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/html")

	res, err = http.Get(srv.URL + "/static/app.js")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, body := doJSON(t, http.MethodGet, srv.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok", body["status"])
}
