// SPDX-License-Identifier: MIT

package stt

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecognize(t *testing.T) {
	var (
		gotPath  string
		gotModel string
		gotCT    string
		gotUser  string
		gotPass  string
		gotBody  []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotModel = r.URL.Query().Get("model")
		gotCT = r.Header.Get("Content-Type")
		gotUser, gotPass, _ = r.BasicAuth()
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"results": [{"alternatives": [
			{"transcript": "明天 天氣 如何", "confidence": 0.87}
		]}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "watson-user", "watson-pass", "zh-CN_NarrowbandModel")
	res, err := c.Recognize(context.Background(), strings.NewReader("RIFF wav bytes"))
	require.NoError(t, err)

	assert.Equal(t, "/v1/recognize", gotPath)
	assert.Equal(t, "zh-CN_NarrowbandModel", gotModel)
	assert.Equal(t, "audio/wav", gotCT)
	assert.Equal(t, "watson-user", gotUser)
	assert.Equal(t, "watson-pass", gotPass)
	assert.Equal(t, "RIFF wav bytes", string(gotBody))

	require.Len(t, res.Results, 1)
	require.Len(t, res.Results[0].Alternatives, 1)
	assert.Equal(t, "明天 天氣 如何", res.Results[0].Alternatives[0].Transcript)
	assert.InDelta(t, 0.87, res.Results[0].Alternatives[0].Confidence, 1e-9)
}

func TestRecognizeServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, "u", "p", "en-US_BroadbandModel")
	_, err := c.Recognize(context.Background(), strings.NewReader("audio"))
	assert.ErrorIs(t, err, ErrService)
}

func TestRecognizeUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", "u", "p", "en-US_BroadbandModel")
	_, err := c.Recognize(context.Background(), strings.NewReader("audio"))
	assert.ErrorIs(t, err, ErrService)
}

func TestRecognizeBadResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	c := New(srv.URL, "u", "p", "en-US_BroadbandModel")
	_, err := c.Recognize(context.Background(), strings.NewReader("audio"))
	assert.ErrorIs(t, err, ErrService)
}
