package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

var (
	ErrBadStatus    = errors.New("unexpected HTTP status")
	ErrNoFilename   = errors.New("cannot infer file name")
	errInvalidName  = errors.New("invalid file name")
	defaultFileMode = os.FileMode(0o644)
)

// Progress is called after every chunk with the bytes written so far and the
// announced length, which is zero when the server did not send one.
type Progress func(written int64, total int64)

type Downloader struct {
	client  *http.Client
	fs      afero.Fs
	workdir func() (string, error)
	log     zerolog.Logger
}

func NewDownloader(client *http.Client, logger zerolog.Logger) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}

	return &Downloader{client: client, fs: afero.NewOsFs(), workdir: os.Getwd, log: logger}
}

// Download saves the body of a GET to dest and returns its absolute path.
// An empty dest, or one naming a directory, takes the file name from the
// Content-Disposition header or else from the last URL path segment.
func (d *Downloader) Download(ctx context.Context, rawURL string, dest string, progress Progress) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s responded with status %d: %s", ErrBadStatus, rawURL, resp.StatusCode, reason(resp))
	}

	target, err := d.target(rawURL, dest, resp.Header.Get("Content-Disposition"))
	if err != nil {
		return "", err
	}

	file, err := d.fs.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, defaultFileMode)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", target, err)
	}

	written, copyErr := io.Copy(file, &progressReader{r: resp.Body, total: max(resp.ContentLength, 0), progress: progress})
	closeErr := file.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = d.fs.Remove(target)
		return "", fmt.Errorf("write %s: %w", target, err)
	}

	d.log.Info().Str("url", rawURL).Str("path", target).Int64("bytes", written).Msg("download complete")
	return target, nil
}

func (d *Downloader) target(rawURL string, dest string, disposition string) (string, error) {
	if dest != "" {
		info, err := d.fs.Stat(dest)
		if err != nil || !info.IsDir() {
			return filepath.Abs(dest)
		}
	}

	name, err := inferName(rawURL, disposition)
	if err != nil {
		return "", err
	}

	dir := dest
	if dir == "" {
		dir, err = d.workdir()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
	}

	return filepath.Abs(filepath.Join(dir, name))
}

func inferName(rawURL string, disposition string) (string, error) {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name, err := safeName(params["filename"]); err == nil {
				return name, nil
			}
		}
	}

	u, err := url.Parse(rawURL)
	if err == nil {
		if name, err := safeName(path.Base(u.Path)); err == nil {
			return name, nil
		}
	}

	return "", fmt.Errorf("%w from %s, pass a destination path", ErrNoFilename, rawURL)
}

func safeName(name string) (string, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == ".." || base == "/" || base == string(filepath.Separator) {
		return "", errInvalidName
	}

	return base, nil
}

func reason(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode)))
	if text == "" {
		return "Reason not provided"
	}

	return text
}

type progressReader struct {
	r        io.Reader
	written  int64
	total    int64
	progress Progress
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.written += int64(n)
		if p.progress != nil {
			p.progress(p.written, p.total)
		}
	}

	return n, err
}
