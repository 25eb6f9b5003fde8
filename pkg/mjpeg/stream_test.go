package mjpeg

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStream(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "stream", r.URL.Query().Get("action"))
		w.Header().Set("Content-Type", "multipart/x-mixed-replace;boundary=boundarydonotcross")
		_, _ = w.Write([]byte("--boundarydonotcross\r\n\r\n"))
		_, _ = w.Write(frame("abc"))
	}))
	defer srv.Close()

	body, err := OpenStream(context.Background(), srv.Client(), srv.URL+"/?action=stream")
	require.NoError(t, err)
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(body)
	require.NoError(t, err)

	e := NewExtractor(0)
	e.Feed(data)
	assert.Equal(t, frame("abc"), e.Next())
}

func TestOpenStream_BadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := OpenStream(context.Background(), nil, srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}
