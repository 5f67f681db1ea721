package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shi-bot/internal/model"
)

type fakeHealth struct{ err error }

func (f fakeHealth) HealthCheck(context.Context) error { return f.err }

type fakeReporter struct {
	lastLimit int
	err       error
}

func (f *fakeReporter) Stats(context.Context) (*model.Stats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Stats{Users: 2, TotalShi: decimal.RequireFromString("1.5"), Transactions: 4}, nil
}

func (f *fakeReporter) Leaderboard(_ context.Context, limit int) ([]*model.User, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []*model.User{
		{UserID: 1, Username: "alice", ShiBalance: decimal.NewFromInt(5)},
		{UserID: 2, ShiBalance: decimal.NewFromInt(3)},
	}, nil
}

func (f *fakeReporter) ListTransactions(_ context.Context, limit int) ([]*model.Transaction, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []*model.Transaction{
		{ID: 9, UserID: 1, Type: model.TxTypeBuyItem, Amount: decimal.NewFromInt(2), Currency: model.CurrencyShi, Meta: "item_id:1"},
	}, nil
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthz(t *testing.T) {
	r := NewRouter(fakeHealth{}, &fakeReporter{})
	assert.Equal(t, http.StatusOK, get(t, r, "/healthz").Code)

	r = NewRouter(fakeHealth{err: errors.New("down")}, &fakeReporter{})
	assert.Equal(t, http.StatusServiceUnavailable, get(t, r, "/healthz").Code)
}

func TestStats(t *testing.T) {
	r := NewRouter(fakeHealth{}, &fakeReporter{})

	w := get(t, r, "/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 2, body["users"])
	assert.Equal(t, "1.5", body["total_shi"])
	assert.EqualValues(t, 4, body["transactions"])
}

func TestLeaderboard(t *testing.T) {
	rep := &fakeReporter{}
	r := NewRouter(fakeHealth{}, rep)

	w := get(t, r, "/leaderboard?limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, rep.lastLimit)

	var body []leaderboardEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, 1, body[0].Rank)
	assert.Equal(t, "alice", body[0].Username)
	assert.Equal(t, "user2", body[1].Username)
	assert.True(t, body[1].Shi.Equal(decimal.NewFromInt(3)))
}

func TestLimitValidation(t *testing.T) {
	r := NewRouter(fakeHealth{}, &fakeReporter{})

	assert.Equal(t, http.StatusBadRequest, get(t, r, "/leaderboard?limit=abc").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, r, "/transactions?limit=-1").Code)
}

func TestTransactions(t *testing.T) {
	rep := &fakeReporter{}
	r := NewRouter(fakeHealth{}, rep)

	w := get(t, r, "/transactions")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, rep.lastLimit)

	var body []transactionEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "buy_item", body[0].Type)
	assert.Equal(t, "item_id:1", body[0].Meta)
}

func TestReporterError(t *testing.T) {
	r := NewRouter(fakeHealth{}, &fakeReporter{err: errors.New("boom")})

	assert.Equal(t, http.StatusInternalServerError, get(t, r, "/stats").Code)
	assert.Equal(t, http.StatusInternalServerError, get(t, r, "/leaderboard").Code)
	assert.Equal(t, http.StatusInternalServerError, get(t, r, "/transactions").Code)
}
