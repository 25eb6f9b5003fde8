package mjpeg

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// DefaultStreamURL is where mjpg-streamer serves its stream on the robot.
const DefaultStreamURL = "http://192.168.1.103:8080/?action=stream"

// OpenStream starts an HTTP MJPEG stream and returns its body. The body is
// read raw; the Extractor skips the multipart boundaries between frames.
// Closing the returned reader ends the stream.
func OpenStream(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build stream request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open stream %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("open stream %s: unexpected status %s", url, resp.Status)
	}

	return resp.Body, nil
}
