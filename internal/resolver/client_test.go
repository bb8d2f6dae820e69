// SPDX-License-Identifier: MIT

package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zwlin/pagebot/internal/engine"
	"github.com/zwlin/pagebot/internal/session"
)

func TestPlan(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotReq  planRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`{"steps": [
			{"action": "getForecast", "entities": {"location": [{"value": "Taipei"}]}},
			{"action": "send", "message": "here you go"}
		]}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "nlp-token")
	plan, err := c.Plan(context.Background(), "sess-1", session.Context{"missingLocation": true}, "in Taipei")
	require.NoError(t, err)

	assert.Equal(t, "/plan", gotPath)
	assert.Equal(t, "Bearer nlp-token", gotAuth)
	assert.Equal(t, "sess-1", gotReq.SessionID)
	assert.Equal(t, "in Taipei", gotReq.Text)
	assert.Equal(t, true, gotReq.Context["missingLocation"])

	require.Len(t, plan.Steps, 2)
	assert.Equal(t, "getForecast", plan.Steps[0].Action)
	assert.Equal(t, "Taipei", engine.FirstEntityValue(plan.Steps[0].Entities, "location"))
	assert.Equal(t, "here you go", plan.Steps[1].Message)
}

func TestPlanNoToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"steps": []}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.Plan(context.Background(), "sess-1", session.Context{}, "hi")
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestPlanServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "nlp-token")
	_, err := c.Plan(context.Background(), "sess-1", session.Context{}, "hi")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPlanUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", "nlp-token")
	_, err := c.Plan(context.Background(), "sess-1", session.Context{}, "hi")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPlanBadResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := New(srv.URL, "nlp-token")
	_, err := c.Plan(context.Background(), "sess-1", session.Context{}, "hi")
	assert.ErrorIs(t, err, ErrUnavailable)
}
