package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDownloader(t *testing.T, client *http.Client) (*Downloader, afero.Fs) {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work", 0o755))

	return &Downloader{
		client:  client,
		fs:      fs,
		workdir: func() (string, error) { return "/work", nil },
		log:     zerolog.Nop(),
	}, fs
}

func TestDownloadInfersNameFromContentDisposition(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="weights.bin"`)
		_, _ = w.Write([]byte("0123456789"))
	}))
	t.Cleanup(server.Close)

	d, fs := newTestDownloader(t, server.Client())

	var calls int
	var lastWritten, lastTotal int64
	got, err := d.Download(context.Background(), server.URL+"/files/42", "", func(written, total int64) {
		calls++
		lastWritten, lastTotal = written, total
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/work", "weights.bin"), got)

	data, err := afero.ReadFile(fs, got)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))
	assert.Positive(t, calls)
	assert.Equal(t, int64(10), lastWritten)
	assert.Equal(t, int64(10), lastTotal)
}

func TestDownloadInfersNameFromURLPath(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("a,b\n"))
	}))
	t.Cleanup(server.Close)

	d, fs := newTestDownloader(t, server.Client())

	got, err := d.Download(context.Background(), server.URL+"/data/table.csv?raw=1", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "/work/table.csv", got)

	exists, err := afero.Exists(fs, "/work/table.csv")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDownloadIntoExistingDirectoryAndExplicitPath(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	t.Cleanup(server.Close)

	d, fs := newTestDownloader(t, server.Client())
	require.NoError(t, fs.MkdirAll("/data", 0o755))

	got, err := d.Download(context.Background(), server.URL+"/a.txt", "/data", nil)
	require.NoError(t, err)
	assert.Equal(t, "/data/a.txt", got)

	got, err = d.Download(context.Background(), server.URL+"/a.txt", "/data/renamed.txt", nil)
	require.NoError(t, err)
	assert.Equal(t, "/data/renamed.txt", got)
}

func TestDownloadRejectsNonOKStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	d, fs := newTestDownloader(t, server.Client())

	_, err := d.Download(context.Background(), server.URL+"/missing.bin", "", nil)
	require.ErrorIs(t, err, ErrBadStatus)
	assert.ErrorContains(t, err, "status 404: Not Found")

	exists, err := afero.Exists(fs, "/work/missing.bin")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDownloadWithoutInferableName(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	t.Cleanup(server.Close)

	d, _ := newTestDownloader(t, server.Client())

	_, err := d.Download(context.Background(), server.URL+"/", "", nil)
	require.ErrorIs(t, err, ErrNoFilename)
}

func TestInferNameStripsDirectories(t *testing.T) {
	t.Parallel()

	name, err := inferName("https://example.com/x", `attachment; filename="../../etc/passwd"`)
	require.NoError(t, err)
	assert.Equal(t, "passwd", name)
}
