package praktikum_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/homeworkbot/internal/adapter/driven/praktikum"
	"github.com/ericfisherdev/homeworkbot/internal/domain/model"
)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler) *praktikum.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := praktikum.NewClientWithHTTPClient(server.Client(), server.URL+"/api/user_api/homework_statuses/", "test-token")
	require.NoError(t, err)

	return client
}

func TestFetchStatuses_SendsCursorAndToken(t *testing.T) {
	var gotPath, gotFromDate, gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFromDate = r.URL.Query().Get("from_date")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"homeworks": [], "current_date": 1000}`))
	})

	client := newTestClient(t, handler)
	body, err := client.FetchStatuses(context.Background(), 1549962000)

	require.NoError(t, err)
	assert.JSONEq(t, `{"homeworks": [], "current_date": 1000}`, string(body))
	assert.Equal(t, "/api/user_api/homework_statuses/", gotPath)
	assert.Equal(t, "1549962000", gotFromDate)
	assert.Equal(t, "OAuth test-token", gotAuth)
}

func TestFetchStatuses_ReturnsMalformedBodyUntouched(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	body, err := newTestClient(t, handler).FetchStatuses(context.Background(), 0)

	require.NoError(t, err)
	assert.Equal(t, "not json", string(body))
}

func TestFetchStatuses_ErrorStatusUsesBodyMessage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code": "not_authenticated", "message": "Учетные данные не были предоставлены.", "source": "__response__"}`))
	})

	_, err := newTestClient(t, handler).FetchStatuses(context.Background(), 0)

	var protoErr *model.ProtocolError
	require.True(t, errors.As(err, &protoErr))
	assert.Equal(t, "Учетные данные не были предоставлены.", err.Error())
}

func TestFetchStatuses_ErrorStatusNestedError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"error": "Wrong from_date format"}}`))
	})

	_, err := newTestClient(t, handler).FetchStatuses(context.Background(), 0)

	require.Error(t, err)
	assert.Equal(t, "Wrong from_date format", err.Error())
}

func TestFetchStatuses_ErrorStatusWithoutBody(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := newTestClient(t, handler).FetchStatuses(context.Background(), 0)

	var protoErr *model.ProtocolError
	require.True(t, errors.As(err, &protoErr))
	assert.Contains(t, err.Error(), "502")
}

func TestFetchStatuses_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL + "/statuses/"
	server.Close()

	client, err := praktikum.NewClientWithHTTPClient(http.DefaultClient, url, "test-token")
	require.NoError(t, err)

	_, err = client.FetchStatuses(context.Background(), 0)

	var protoErr *model.ProtocolError
	require.True(t, errors.As(err, &protoErr))
	assert.Contains(t, err.Error(), "request statuses")
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := praktikum.NewClient("homework_statuses/", "token")
	require.Error(t, err)
}

func TestNewClient_ProductionTransport(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"homeworks": []}`))
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := praktikum.NewClient(server.URL+"/statuses/", "token")
	require.NoError(t, err)

	body, err := client.FetchStatuses(context.Background(), 0)
	require.NoError(t, err)
	assert.JSONEq(t, `{"homeworks": []}`, string(body))
}
