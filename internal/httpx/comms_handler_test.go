package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-event-tickets/internal/comms"
)

type fakeCommStore struct {
	comm     *comms.Communication
	aggCalls int
	resets   int
}

func (f *fakeCommStore) CountByEvent(context.Context, string) (int, error) { return 0, nil }

func (f *fakeCommStore) CreateWithRecords(context.Context, *comms.Communication, []comms.Recipient) error {
	return nil
}

func (f *fakeCommStore) Get(_ context.Context, id string) (*comms.Communication, error) {
	if f.comm == nil || f.comm.ID != id {
		return nil, comms.ErrNotFound
	}
	return f.comm, nil
}

func (f *fakeCommStore) RecordStatusCounts(context.Context, string) (comms.StatusCounts, error) {
	return comms.StatusCounts{comms.RecordSent: f.comm.TotalRecipients}, nil
}

func (f *fakeCommStore) UpdateAggregates(_ context.Context, _ string, _ comms.StatusCounts, status comms.Status) error {
	f.aggCalls++
	f.comm.Status = status
	return nil
}

func (f *fakeCommStore) ResetFailedRecords(context.Context, string) (int, error) {
	f.resets++
	return 1, nil
}

func (f *fakeCommStore) UpdateRecord(context.Context, string, comms.RecordStatus, *string) error {
	return nil
}

type fakeStaff struct{ allowed bool }

func (f fakeStaff) IsEventStaff(context.Context, string, string) (bool, error) {
	return f.allowed, nil
}

func commsRouter(store *fakeCommStore, staff bool) http.Handler {
	h := &CommsHandler{
		Service: &comms.Service{Store: store},
		Staff:   fakeStaff{allowed: staff},
	}
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func doAs(t *testing.T, router http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req = req.WithContext(context.WithValue(req.Context(), userIDKey, "u1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetCommunicationRequiresStaffBeforeStatsWrite(t *testing.T) {
	store := &fakeCommStore{
		comm: &comms.Communication{ID: "c1", EventID: "e1", Status: comms.StatusSending, TotalRecipients: 2},
	}
	router := commsRouter(store, false)

	rec := doAs(t, router, http.MethodGet, "/communications/c1")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	// the rejected caller must not have triggered the aggregate rewrite
	assert.Zero(t, store.aggCalls)
	assert.Equal(t, comms.StatusSending, store.comm.Status)
}

func TestGetCommunicationRefreshesStatsForStaff(t *testing.T) {
	store := &fakeCommStore{
		comm: &comms.Communication{ID: "c1", EventID: "e1", Status: comms.StatusSending, TotalRecipients: 2},
	}
	router := commsRouter(store, true)

	rec := doAs(t, router, http.MethodGet, "/communications/c1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, store.aggCalls)
	assert.Equal(t, comms.StatusCompleted, store.comm.Status)
}

func TestRetryCommunicationRequiresStaffBeforeReset(t *testing.T) {
	store := &fakeCommStore{
		comm: &comms.Communication{ID: "c1", EventID: "e1", Status: comms.StatusFailed, TotalRecipients: 2},
	}
	router := commsRouter(store, false)

	rec := doAs(t, router, http.MethodPost, "/communications/c1/retry")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, store.resets)
	assert.Zero(t, store.aggCalls)
}
