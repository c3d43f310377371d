package specs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync/atomic"
	"testing"

	"invtracker/internal/inventory"
	"invtracker/internal/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const fragment = `
<div class="store-list">
	<div class="single-store">
		<span class="store-name">  Spec's   Uptown </span>
		<span class="store-qty">Qty in Stock: 12</span>
	</div>
	<div class="single-store">
		<span class="store-name"></span>
		<span class="store-qty">Qty in Stock: 3</span>
	</div>
	<div class="single-store">
		<span class="store-name">Spec's Frisco</span>
		<span class="store-qty">Call store</span>
	</div>
</div>`

func TestParseAvailability(t *testing.T) {
	observations, err := ParseAvailability(context.Background(), fragment)
	require.NoError(t, err)

	expected := []inventory.Observation{
		{Store: "Spec's Uptown", Quantity: 12},
		{Store: UnknownStore, Quantity: 3},
		{Store: "Spec's Frisco", Quantity: 0},
	}
	if diff := cmp.Diff(expected, observations); diff != "" {
		t.Fatal(diff)
	}
}

func TestFindNonce(t *testing.T) {
	page := `<html><head>
		<script>var other = {"a": 1};</script>
		<script>var wc_fulfillment = {"ajax_url": "/wp-admin/admin-ajax.php", "fulfillment_nonce": "7bf1b33b1e"};</script>
	</head><body></body></html>`

	nonce, err := FindNonce(page)
	require.NoError(t, err)
	require.Equal(t, "7bf1b33b1e", nonce)

	_, err = FindNonce(`<html><body>nothing here</body></html>`)
	require.ErrorIs(t, err, ErrNonceNotFound)
}

type fakeSite struct {
	t         *testing.T
	data      string
	status    int
	pageHits  atomic.Int32
	lastForm  atomic.Value
	nonceSeen atomic.Value
}

func (f *fakeSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/":
		n := f.pageHits.Add(1)
		fmt.Fprintf(w, `<html><script>var x = {"fulfillment_nonce": "nonce%d"};</script></html>`, n)
	case r.Method == http.MethodPost && r.URL.Path == availabilityPath:
		require.NoError(f.t, r.ParseForm())
		require.Equal(f.t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		f.lastForm.Store(r.PostForm)
		f.nonceSeen.Store(r.PostForm.Get("fulfillment_nonce"))
		w.Header().Set("content-type", "application/json")
		if f.status != 0 {
			w.WriteHeader(f.status)
		}
		fmt.Fprint(w, f.data)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, site *fakeSite, nonce NonceSource) *Client {
	server := httptest.NewServer(site)
	t.Cleanup(server.Close)

	client, err := NewClient(Options{
		BaseURL:           server.URL,
		Radius:            25,
		Nonce:             nonce,
		RequestsPerSecond: 1000,
	}, &telemetry.Recorder{})
	require.NoError(t, err)
	return client
}

func TestFetch(t *testing.T) {
	site := &fakeSite{t: t, data: fmt.Sprintf(`{"success": true, "data": %q}`, fragment)}
	client := newTestClient(t, site, StaticNonce("7bf1b33b1e"))

	observations, err := client.Fetch(context.Background(), "008800401858", "75204")
	require.NoError(t, err)
	require.Len(t, observations, 3)
	require.Equal(t, "Spec's Uptown", observations[0].Store)

	form := site.lastForm.Load().(url.Values)
	require.Equal(t, []string{"prod_avail_check"}, form["action"])
	require.Equal(t, []string{"75204"}, form["zip"])
	require.Equal(t, []string{"008800401858"}, form["sku"])
	require.Equal(t, []string{"true"}, form["zero_inventory_check"])
	require.Equal(t, []string{"25"}, form["radius"])
	require.Equal(t, []string{"7bf1b33b1e"}, form["fulfillment_nonce"])
	require.Equal(t, int32(0), site.pageHits.Load())
}

func TestFetchNonStringData(t *testing.T) {
	for _, data := range []string{`{"data": false}`, `{"data": {"stores": []}}`, `{"success": false}`} {
		site := &fakeSite{t: t, data: data}
		client := newTestClient(t, site, StaticNonce("abc"))

		observations, err := client.Fetch(context.Background(), "008800401858", "75204")
		require.NoError(t, err, data)
		require.Empty(t, observations, data)
	}
}

func TestFetchUnexpectedResponse(t *testing.T) {
	testCases := []struct {
		name   string
		data   string
		status int
	}{
		{name: "rejected nonce", data: "-1"},
		{name: "html error page", data: "<html>blocked</html>"},
		{name: "server error", data: `{"data": ""}`, status: http.StatusBadGateway},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			site := &fakeSite{t: t, data: test.data, status: test.status}
			client := newTestClient(t, site, StaticNonce("abc"))

			_, err := client.Fetch(context.Background(), "008800401858", "75204")
			require.ErrorIs(t, err, ErrUnexpectedResponse)
		})
	}
}

func TestNoncePolicies(t *testing.T) {
	body := fmt.Sprintf(`{"data": %q}`, fragment)

	t.Run("once per run", func(t *testing.T) {
		site := &fakeSite{t: t, data: body}
		client := newTestClient(t, site, &OncePerRunNonce{})
		for i := 0; i < 3; i++ {
			_, err := client.Fetch(context.Background(), "008800401858", "75204")
			require.NoError(t, err)
		}
		require.Equal(t, int32(1), site.pageHits.Load())
		require.Equal(t, "nonce1", site.nonceSeen.Load())
	})

	t.Run("per request", func(t *testing.T) {
		site := &fakeSite{t: t, data: body}
		client := newTestClient(t, site, PerRequestNonce{})
		for i := 0; i < 3; i++ {
			_, err := client.Fetch(context.Background(), "008800401858", "75204")
			require.NoError(t, err)
		}
		require.Equal(t, int32(3), site.pageHits.Load())
		require.Equal(t, "nonce3", site.nonceSeen.Load())
	})
}

func TestOncePerRunNonceRetriesFailure(t *testing.T) {
	calls := 0
	page := func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("connection reset")
		}
		return `<script>fulfillment_nonce: "abc123"</script>`, nil
	}

	source := &OncePerRunNonce{}
	_, err := source.Nonce(context.Background(), page)
	require.Error(t, err)

	nonce, err := source.Nonce(context.Background(), page)
	require.NoError(t, err)
	require.Equal(t, "abc123", nonce)

	nonce, err = source.Nonce(context.Background(), page)
	require.NoError(t, err)
	require.Equal(t, "abc123", nonce)
	require.Equal(t, 2, calls)
}

func TestNewNonceSource(t *testing.T) {
	source, err := NewNonceSource("", "abc")
	require.NoError(t, err)
	require.Equal(t, StaticNonce("abc"), source)

	_, err = NewNonceSource(NoncePolicyStatic, "")
	require.Error(t, err)

	source, err = NewNonceSource(NoncePolicyPerRequest, "")
	require.NoError(t, err)
	require.IsType(t, PerRequestNonce{}, source)

	_, err = NewNonceSource("sometimes", "")
	require.Error(t, err)
}

func TestFetchDumpsResponses(t *testing.T) {
	site := &fakeSite{t: t, data: fmt.Sprintf(`{"data": %q}`, fragment)}
	server := httptest.NewServer(site)
	defer server.Close()

	dir := t.TempDir()
	client, err := NewClient(Options{
		BaseURL:           server.URL,
		Nonce:             StaticNonce("abc"),
		RequestsPerSecond: 1000,
		DumpDir:           dir,
	}, &telemetry.Recorder{})
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), "008800401858", "75204")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
