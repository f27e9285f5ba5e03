// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package viewer

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Elambeth/mm-archive/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- handoff and resolve ---

func TestBuildHandoffAndResolve(t *testing.T) {
	tests := []struct {
		name        string
		citation    types.Citation
		wantMissing bool
		wantRef     DocumentRef
	}{
		{
			name:     "cited page",
			citation: types.Citation{ID: "p1", Filename: "a.pdf", Page: 5},
			wantRef:  DocumentRef{Filename: "a.pdf", Page: 5},
		},
		{
			name:     "no page defaults to 1",
			citation: types.Citation{ID: "p1", Filename: "a.pdf"},
			wantRef:  DocumentRef{Filename: "a.pdf", Page: 1},
		},
		{
			name:     "filename is percent-encoded",
			citation: types.Citation{ID: "p2", Filename: "Measuring the Moat #2?.pdf", Page: 12},
			wantRef:  DocumentRef{Filename: "Measuring%20the%20Moat%20%232%3F.pdf", Page: 12},
		},
		{
			name:     "slash is encoded",
			citation: types.Citation{ID: "p3", Filename: "2014/returns.pdf", Page: 2},
			wantRef:  DocumentRef{Filename: "2014%2Freturns.pdf", Page: 2},
		},
		{
			name:        "missing filename",
			citation:    types.Citation{ID: "p1", Page: 5},
			wantMissing: true,
		},
		{
			name:        "missing id",
			citation:    types.Citation{Filename: "a.pdf", Page: 5},
			wantMissing: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := BuildHandoff(tt.citation)
			assert.Equal(t, tt.wantMissing, h.Missing)

			ref, err := Resolve(h)
			if tt.wantMissing {
				assert.ErrorIs(t, err, ErrMissingInformation)
				assert.Equal(t, DocumentRef{}, ref)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRef, ref)
		})
	}
}

func TestBuildHandoffCarriesDisplayFields(t *testing.T) {
	h := BuildHandoff(types.Citation{
		ID: "p1", Title: "Measuring Returns", Year: 2014, Page: 3,
		Filename: "measuring-returns.pdf", Tags: []string{"roic"}, Excerpt: "ignored",
	})
	assert.Equal(t, Handoff{
		ID: "p1", Title: "Measuring Returns", Year: 2014, Page: 3,
		Filename: "measuring-returns.pdf", Tags: []string{"roic"},
	}, h)
}

func TestHandoffFromPaperOpensFirstPage(t *testing.T) {
	h := HandoffFromPaper(types.Paper{ID: "p1", Title: "T", Year: 2020, Filename: "t.pdf"})
	ref, err := Resolve(h)
	require.NoError(t, err)
	assert.Equal(t, 1, ref.Page)
}

func TestDocumentRefURL(t *testing.T) {
	ref := DocumentRef{Filename: "a%20b.pdf", Page: 5}
	assert.Equal(t, "http://localhost:8000/pdfs/a%20b.pdf#page=5", ref.URL("http://localhost:8000/"))
	assert.Equal(t, "/pdfs/a%20b.pdf#page=5", ref.URL(""))
}

// --- opener ---

func TestOpenCommand(t *testing.T) {
	tests := []struct {
		goos     string
		wantName string
	}{
		{"linux", "xdg-open"},
		{"freebsd", "xdg-open"},
		{"darwin", "open"},
		{"windows", "rundll32"},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			var gotName string
			var gotArgs []string
			o := SystemOpener{GOOS: tt.goos, run: func(name string, args ...string) error {
				gotName, gotArgs = name, args
				return nil
			}}
			require.NoError(t, o.Open("http://x/pdfs/a.pdf#page=2"))
			assert.Equal(t, tt.wantName, gotName)
			assert.Equal(t, "http://x/pdfs/a.pdf#page=2", gotArgs[len(gotArgs)-1])
		})
	}
}

func TestOpenerError(t *testing.T) {
	o := SystemOpener{GOOS: "linux", run: func(string, ...string) error { return errors.New("not found") }}
	assert.EqualError(t, o.Open("u"), "launching xdg-open: not found")
}

// --- server ---

func newPDFServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a b.pdf"), []byte("%PDF-1.4 test"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("secret"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir.pdf"), 0o755))

	s, err := NewServer(dir, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, dir
}

func TestServerServesResolvedReference(t *testing.T) {
	ts, _ := newPDFServer(t)

	ref, err := Resolve(BuildHandoff(types.Citation{ID: "p1", Filename: "a b.pdf", Page: 4}))
	require.NoError(t, err)

	resp, err := ts.Client().Get(ref.URL(ts.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "%PDF-1.4 test", string(body))
}

func TestServerRejects(t *testing.T) {
	ts, _ := newPDFServer(t)

	for _, path := range []string{
		"/pdfs/missing.pdf",
		"/pdfs/notes.txt",
		"/pdfs/dir.pdf",
		"/pdfs/..%2Fnotes.txt",
		"/pdfs/.hidden.pdf",
	} {
		t.Run(path, func(t *testing.T) {
			resp, err := ts.Client().Get(ts.URL + path)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		})
	}
}

func TestServerHealth(t *testing.T) {
	ts, _ := newPDFServer(t)
	resp, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewServerRequiresDirectory(t *testing.T) {
	_, err := NewServer(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = NewServer(file, nil)
	assert.Error(t, err)
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s, err := NewServer(t.TempDir(), nil)
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
