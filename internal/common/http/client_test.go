package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PostForm_SendsFormAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Equal(t, "Garage Assistant/4.0", r.Header.Get("User-Agent"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "garage", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "GET_LUBRICANTS", r.PostForm.Get("ACTION"))
		assert.Equal(t, "YM14NFL", r.PostForm.Get("VRM"))

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"0":{}}`))
	}))
	defer server.Close()

	client := NewClientWithOptions(Options{
		Timeout:   time.Second,
		UserAgent: "Garage Assistant/4.0",
		Username:  "garage",
		Password:  "secret",
	})

	body, err := client.PostForm(context.Background(), server.URL, url.Values{
		"ACTION": {"GET_LUBRICANTS"},
		"VRM":    {"YM14NFL"},
	})

	require.NoError(t, err)
	assert.Equal(t, `{"0":{}}`, body)
}

func TestClient_PostForm_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	_, err := NewClient(time.Second).PostForm(context.Background(), server.URL, url.Values{})

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, "upstream down", statusErr.Body)
	assert.False(t, IsTimeout(err))
}

func TestClient_PostForm_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	_, err := NewClient(50*time.Millisecond).PostForm(context.Background(), server.URL, url.Values{})

	require.Error(t, err)
	assert.True(t, IsTimeout(err), "expected timeout, got: %v", err)
}

func TestClient_PostForm_CallerCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := NewClient(5*time.Second).PostForm(ctx, server.URL, url.Values{})

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}
