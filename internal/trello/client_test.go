package trello

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string]string
}

func newTrelloServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		requests = append(requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Query: query})
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient("k1", "t1", srv.URL+"/1/"), &requests
}

func TestListComments(t *testing.T) {
	client, requests := newTrelloServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":"a1","type":"commentCard","data":{"text":"first"}},
			{"id":"a2","type":"commentCard","data":{}}
		]`))
	})

	actions, err := client.ListComments(context.Background(), "CARD1")
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "a1", actions[0].ID)
	assert.Equal(t, "first", actions[0].Data.Text)
	assert.Empty(t, actions[1].Data.Text)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/1/cards/CARD1/actions", req.Path)
	assert.Equal(t, map[string]string{"filter": "commentCard", "key": "k1", "token": "t1"}, req.Query)
	assert.Equal(t, int64(1), client.GetAPICallCount())
}

func TestCreateComment(t *testing.T) {
	client, requests := newTrelloServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"new1","type":"commentCard","data":{"text":"x"}}`))
	})

	text := "User Stories in Review: 4 (3)\nUser Stories Complete: 5 (2)"
	action, err := client.CreateComment(context.Background(), "CARD1", text)
	require.NoError(t, err)
	assert.Equal(t, "new1", action.ID)

	req := (*requests)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/1/cards/CARD1/actions/comments", req.Path)
	assert.Equal(t, text, req.Query["text"])
	assert.Equal(t, "k1", req.Query["key"])
	assert.Equal(t, "t1", req.Query["token"])
}

func TestUpdateComment(t *testing.T) {
	client, requests := newTrelloServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"a1"}`))
	})

	action, err := client.UpdateComment(context.Background(), "CARD1", "a1", "same text")
	require.NoError(t, err)
	assert.Equal(t, "a1", action.ID)

	req := (*requests)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/1/cards/CARD1/actions/a1", req.Path)
	assert.Equal(t, "same text", req.Query["text"])
}

func TestAPIErrorCarriesStatusAndBody(t *testing.T) {
	client, _ := newTrelloServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("invalid token"))
	})

	_, err := client.CreateComment(context.Background(), "CARD1", "hello")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, http.MethodPost, apiErr.Method)
	assert.Equal(t, "invalid token", apiErr.Body)
}

func TestAPICallCounter(t *testing.T) {
	client, _ := newTrelloServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	for i := 0; i < 3; i++ {
		_, err := client.ListComments(context.Background(), "CARD1")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), client.GetAPICallCount())

	client.ResetAPICallCount()
	assert.Equal(t, int64(0), client.GetAPICallCount())
}
