package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"invtracker/internal/catalog"
	"invtracker/internal/telemetry"

	"github.com/stretchr/testify/require"
)

const availability = `<div class="single-store"><span class="store-name">Spec's Uptown</span>Qty in Stock: 4</div>`

func newSite(t *testing.T, discordStatus int) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/wp-admin/admin-ajax.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data": %q}`, availability)
	})
	mux.HandleFunc("/channels/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(discordStatus)
		w.Write([]byte(`{}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func checkConfig(baseUrl, snapshotPath string) Config {
	return Config{
		Locations:         []LocationConfig{{PostalCode: "75204", ChannelId: "dallas"}},
		NoChangeChannelId: "quiet",
		Products:          []catalog.Product{{Name: "Stagg Jr.", SKU: "008800401858"}},
		Fetcher: FetcherConfig{
			BaseUrl:           baseUrl,
			Nonce:             "7bf1b33b1e",
			RequestsPerSecond: 1000,
		},
		Storage:      StorageConfig{Path: snapshotPath, LegacyLocation: "75204"},
		Discord:      DiscordConfig{BaseUrl: baseUrl},
		DiscordToken: "secret",
	}
}

func TestRunCheck(t *testing.T) {
	server := newSite(t, http.StatusOK)
	path := filepath.Join(t.TempDir(), "inventory.json")

	result, err := runCheck(context.Background(), checkConfig(server.URL, path), &telemetry.Recorder{}, false, nil)
	require.NoError(t, err)
	require.Empty(t, result.Changes)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `{"75204": {"008800401858": {"Spec's Uptown": 4}}}`, string(data))
}

func TestRunCheckDeliveryFailure(t *testing.T) {
	server := newSite(t, http.StatusInternalServerError)
	path := filepath.Join(t.TempDir(), "inventory.json")

	_, err := runCheck(context.Background(), checkConfig(server.URL, path), &telemetry.Recorder{}, false, nil)
	require.ErrorContains(t, err, "deliver reports")

	// the snapshot is persisted even though nothing was delivered
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestRunCheckRunFailure(t *testing.T) {
	server := newSite(t, http.StatusOK)
	path := filepath.Join(t.TempDir(), "inventory.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0644))

	_, err := runCheck(context.Background(), checkConfig(server.URL, path), &telemetry.Recorder{}, false, nil)
	require.ErrorContains(t, err, "run:")
}

func TestRunCheckDryRun(t *testing.T) {
	server := newSite(t, http.StatusInternalServerError)
	path := filepath.Join(t.TempDir(), "inventory.json")

	var out bytes.Buffer
	_, err := runCheck(context.Background(), checkConfig(server.URL, path), &telemetry.Recorder{}, true, &out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "--- quiet ---")
	require.Contains(t, out.String(), "✅ No inventory changes detected.")

	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
}
