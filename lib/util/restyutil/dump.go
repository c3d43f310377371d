package restyutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// FilesystemOutput writes one file per id into a directory.
type FilesystemOutput struct {
	directory string
}

func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write response dump", "id", id, "err", err)
	}
}

var unsafeChars = strings.NewReplacer("/", "_", "?", "_", "&", "_", "=", "_", ":", "_")

// DumpResponses writes every response the client receives to out, files are
// named after a sequence number and the request path.
func DumpResponses(client *resty.Client, out FilesystemOutput) {
	var counter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		n := atomic.AddUint64(&counter, 1)
		path := res.Request.RawRequest.URL.Path
		id := fmt.Sprintf("%03d-%s%s.txt", n, strings.ToLower(res.Request.Method), unsafeChars.Replace(path))

		var form string
		if len(res.Request.FormData) > 0 {
			form = res.Request.FormData.Encode() + "\n\n"
		}
		out.Write(id, fmt.Sprintf("%s %s\n%s%s\n\n%s", res.Request.Method, res.Request.URL, form, res.Status(), res.String()))
		return nil
	})
}
