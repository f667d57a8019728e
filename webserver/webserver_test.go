package webserver_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Gleipnir-Technology/settle/debounce"
	"github.com/Gleipnir-Technology/settle/webserver"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*httptest.Server, *debounce.Holder[string], *clockwork.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	clock := clockwork.NewFakeClock()
	h := debounce.New(ctx, "", debounce.WithClock(clock))
	srv := httptest.NewServer(webserver.New(h).Router(zerolog.Nop()))
	t.Cleanup(func() {
		srv.Close()
		h.Close()
		cancel()
	})
	return srv, h, clock
}

func decode(t *testing.T, resp *http.Response) webserver.Document {
	t.Helper()
	defer resp.Body.Close()
	var doc webserver.Document
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	return doc
}

func TestPostThenGetValue(t *testing.T) {
	srv, h, clock := newServer(t)

	resp, err := http.Post(srv.URL+"/value", "application/json", strings.NewReader(`{"value":"abc","delay_ms":200}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, webserver.Document{Settled: "", Pending: "abc", Armed: true}, decode(t, resp))

	sub := h.Subscribe()
	clock.Advance(200 * time.Millisecond)
	select {
	case <-sub.C:
	case <-time.After(time.Second):
		require.FailNow(t, "no commit")
	}

	resp, err = http.Get(srv.URL + "/value")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, webserver.Document{Settled: "abc", Pending: "abc", Armed: false}, decode(t, resp))
}

func TestPostRejectsGarbage(t *testing.T) {
	srv, _, _ := newServer(t)

	resp, err := http.Post(srv.URL+"/value", "application/json", strings.NewReader(`{"value":`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostRejectsDelayOverflow(t *testing.T) {
	srv, h, clock := newServer(t)
	sub := h.Subscribe()

	resp, err := http.Post(srv.URL+"/value", "application/json", strings.NewReader(`{"value":"x","delay_ms":10000000000000}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	clock.Advance(time.Second)
	select {
	case v := <-sub.C:
		require.FailNow(t, "unexpected commit", v)
	case <-time.After(50 * time.Millisecond):
	}
	_, armed := h.Pending()
	assert.False(t, armed)
	assert.Equal(t, "", h.Value())
}

func TestPostAcceptsLargestDelay(t *testing.T) {
	srv, h, _ := newServer(t)

	body := fmt.Sprintf(`{"value":"x","delay_ms":%d}`, math.MaxInt64/int64(time.Millisecond))
	resp, err := http.Post(srv.URL+"/value", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, webserver.Document{Settled: "", Pending: "x", Armed: true}, decode(t, resp))
	assert.Equal(t, "", h.Value())
}

func TestPostRejectsOversizedBody(t *testing.T) {
	_, h, _ := newServer(t)
	router := webserver.New(h).Router(zerolog.Nop())

	body := `{"value":"` + strings.Repeat("x", 2<<20) + `"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/value", strings.NewReader(body)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	_, armed := h.Pending()
	assert.False(t, armed)
}

func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "" && event != "":
			return event, data
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestEventsStreamCommits(t *testing.T) {
	srv, _, clock := newServer(t)

	resp, err := http.Get(srv.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	r := bufio.NewReader(resp.Body)

	event, _ := readEvent(t, r)
	require.Equal(t, "connected", event)

	for _, v := range []string{"a", "ab", "abc"} {
		post, err := http.Post(srv.URL+"/value", "application/json", strings.NewReader(`{"value":"`+v+`"}`))
		require.NoError(t, err)
		post.Body.Close()
	}
	clock.Advance(500 * time.Millisecond)

	event, data := readEvent(t, r)
	require.Equal(t, "commit", event)
	var doc webserver.Document
	require.NoError(t, json.Unmarshal([]byte(data), &doc))
	assert.Equal(t, "abc", doc.Settled)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
