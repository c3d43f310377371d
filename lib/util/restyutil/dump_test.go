package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestDumpResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": "<div class=\"single-store\"></div>"}`))
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "dump")
	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	client := resty.New().SetBaseURL(server.URL)
	DumpResponses(client, out)

	_, err = client.R().
		SetFormData(map[string]string{"sku": "008800401858"}).
		Post("/wp-admin/admin-ajax.php")
	require.NoError(t, err)

	contents, err := os.ReadFile(filepath.Join(dir, "001-post_wp-admin_admin-ajax.php.txt"))
	require.NoError(t, err)
	require.Contains(t, string(contents), "sku=008800401858")
	require.Contains(t, string(contents), "single-store")
}
