package translate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestGoogle(t *testing.T, h http.HandlerFunc) *Google {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	g, err := NewGoogle(context.Background(), "key", option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	return g
}

func TestGoogle_Translate(t *testing.T) {
	var query map[string][]string
	g := newTestGoogle(t, func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		query = r.Form
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"translations":[{"translatedText":"What is my attendance?"}]}}`))
	})

	out, err := g.Translate(context.Background(), "મારી હાજરી શું છે?", "gu", "en")
	require.NoError(t, err)

	assert.Equal(t, "What is my attendance?", out)
	assert.Equal(t, []string{"મારી હાજરી શું છે?"}, query["q"])
	assert.Equal(t, []string{"en"}, query["target"])
	assert.Equal(t, []string{"gu"}, query["source"])
	assert.Equal(t, []string{"text"}, query["format"])
}

func TestGoogle_EmptyResponse(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"translations":[]}}`))
	})

	_, err := g.Translate(context.Background(), "hello", "en", "gu")
	assert.ErrorIs(t, err, ErrNoTranslation)
}

func TestGoogle_ServerError(t *testing.T) {
	g := newTestGoogle(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := g.Translate(context.Background(), "hello", "en", "gu")
	assert.Error(t, err)
}

func TestGoogle_EmptyText(t *testing.T) {
	g := newTestGoogle(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})

	out, err := g.Translate(context.Background(), "", "en", "gu")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNewGoogle_RequiresKey(t *testing.T) {
	_, err := NewGoogle(context.Background(), "")
	assert.Error(t, err)
}
