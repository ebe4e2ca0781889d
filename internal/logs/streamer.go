package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/eagraf/localfabric/internal/output"
	"github.com/rs/zerolog/log"
)

// URL of the log sidecar's stream endpoint for the given host:port.
func URL(address string) string {
	return "http://" + address + "/logs"
}

// Streamer follows the log sidecar and forwards each line to a sink. At most
// one stream is open at a time.
type Streamer struct {
	client *http.Client

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewStreamer(client *http.Client) *Streamer {
	if client == nil {
		client = http.DefaultClient
	}
	return &Streamer{client: client}
}

// Start opens the stream and returns once the response headers arrive. Any
// stream already open is stopped first. A Stop issued while Start is still
// waiting for headers aborts the request and Start returns its error.
func (s *Streamer) Start(ctx context.Context, url string, sink output.Adapter) error {
	s.Stop()
	sink = output.OrDefault(sink)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	finish := func() {
		s.mu.Lock()
		if s.done == done {
			s.cancel = nil
			s.done = nil
		}
		s.mu.Unlock()
		cancel()
		close(done)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		finish()
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		finish()
		return fmt.Errorf("error opening log stream %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		finish()
		return fmt.Errorf("error opening log stream %s: unexpected status %s", url, resp.Status)
	}

	go func() {
		defer finish()
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			sink.Log(output.Info, scanner.Text())
		}
		if err := scanner.Err(); err != nil && !errors.Is(ctx.Err(), context.Canceled) {
			log.Warn().Err(err).Str("url", url).Msg("log stream ended")
		}
	}()
	return nil
}

// Stop aborts the open stream, if any, and waits for its reader to finish.
func (s *Streamer) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Active reports whether a stream is open or being opened.
func (s *Streamer) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}
