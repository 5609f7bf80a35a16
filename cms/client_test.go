package cms

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{
		ProjectID: "zp7mbokg",
		Dataset:   "production",
		Token:     token,
		BaseURL:   srv.URL,
	})
	require.NoError(t, err)
	return c
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{ProjectID: "", Dataset: "production"})
	assert.Error(t, err)
	_, err = New(Config{ProjectID: "Bad Project", Dataset: "production"})
	assert.Error(t, err)
	_, err = New(Config{ProjectID: "abc", Dataset: "Prod!"})
	assert.Error(t, err)

	c, err := New(Config{ProjectID: "abc", Dataset: "production"})
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIVersion, c.Config().APIVersion)
	assert.Equal(t, "v2023-03-26", c.version)
}

func TestHostSelection(t *testing.T) {
	c, err := New(Config{ProjectID: "abc", Dataset: "production", UseCDN: true})
	require.NoError(t, err)
	assert.Equal(t, "https://abc.apicdn.sanity.io", c.readBase)
	assert.Equal(t, "https://abc.api.sanity.io", c.writeBase)

	// A token forces live reads so drafts and fresh writes are visible.
	c, err = New(Config{ProjectID: "abc", Dataset: "production", UseCDN: true, Token: "t"})
	require.NoError(t, err)
	assert.Equal(t, "https://abc.api.sanity.io", c.readBase)

	c, err = New(Config{ProjectID: "abc", Dataset: "production", APIVersion: "v2021-10-21"})
	require.NoError(t, err)
	assert.Equal(t, "v2021-10-21", c.version)
}

func TestFetchSendsParamsSideBand(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2023-03-26/data/query/production", r.URL.Path)
		assert.Equal(t, GetPostQuery, r.URL.Query().Get("query"))
		assert.Equal(t, `"it's \"quoted\""`, r.URL.Query().Get("$slug"))
		assert.Equal(t, `3`, r.URL.Query().Get("$limit"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ms":3,"query":"...","result":{"_id":"p1","title":"Hello"}}`)
	}, "secret")

	var got struct {
		ID    string `json:"_id"`
		Title string `json:"title"`
	}
	err := c.Fetch(context.Background(), GetPostQuery, map[string]any{"slug": `it's "quoted"`, "$limit": 3}, &got)
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, "Hello", got.Title)
}

func TestFetchLongQueryUsesPOST(t *testing.T) {
	long := `*[_type == "post" && title != "` + strings.Repeat("x", maxGETLength) + `"]`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body struct {
			Query  string                     `json:"query"`
			Params map[string]json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, long, body.Query)
		assert.JSONEq(t, `"a"`, string(body.Params["slug"]))
		io.WriteString(w, `{"result":[]}`)
	}, "")

	var got []map[string]any
	require.NoError(t, c.Fetch(context.Background(), long, map[string]any{"slug": "a"}, &got))
	assert.Empty(t, got)
}

func TestFetchAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"type":"queryParseError","description":"expected ']' following expression"}}`)
	}, "")

	err := c.Fetch(context.Background(), "*[_type == ", nil, nil)
	var qe *QueryError
	require.True(t, errors.As(err, &qe), "expected *QueryError, got %T", err)
	assert.Equal(t, http.StatusBadRequest, qe.Status)
	assert.Equal(t, "queryParseError", qe.Type)
	assert.Equal(t, "expected ']' following expression", qe.Description)
	assert.Equal(t, "*[_type == ", qe.Query)
	assert.Contains(t, err.Error(), "queryParseError")
}

func TestFetchUndecodableResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"result":"not a list"}`)
	}, "")

	var got []string
	err := c.Fetch(context.Background(), ListPostsQuery, nil, &got)
	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, http.StatusOK, qe.Status)
	assert.Error(t, qe.Unwrap())
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(Config{ProjectID: "abc", Dataset: "production", BaseURL: url})
	require.NoError(t, err)
	err = c.Fetch(context.Background(), ListPostsQuery, nil, nil)
	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Zero(t, qe.Status)
	assert.NotNil(t, qe.Err)
}

func TestFetchHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"result":null}`)
	}, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Fetch(ctx, ListPostsQuery, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCreate(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2023-03-26/data/mutate/production", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("returnIds"))
		assert.Equal(t, "Bearer write-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"mutations":[{"create":{"_type":"comment","name":"Ann"}}]}`, string(body))
		io.WriteString(w, `{"transactionId":"tx1","results":[{"id":"c-123","operation":"create"}]}`)
	}, "write-token")

	id, err := c.Create(context.Background(), map[string]string{"_type": "comment", "name": "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "c-123", id)
	assert.Equal(t, 1, calls)
}

func TestCreateRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error":{"type":"mutationError","description":"Insufficient permissions; permission \"create\" required"}}`)
	}, "")

	id, err := c.Create(context.Background(), map[string]string{"_type": "comment"})
	assert.Empty(t, id)
	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, http.StatusForbidden, we.Status)
	assert.Equal(t, "mutationError", we.Type)
	assert.Contains(t, we.Description, "Insufficient permissions")
}

func TestCreateWithoutResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"transactionId":"tx1","results":[]}`)
	}, "t")

	_, err := c.Create(context.Background(), map[string]string{"_type": "comment"})
	var we *WriteError
	require.ErrorAs(t, err, &we)
}
