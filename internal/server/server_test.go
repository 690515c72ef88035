package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/san-kum/leaklab/internal/assistant"
	"github.com/san-kum/leaklab/internal/clock"
	"github.com/san-kum/leaklab/internal/config"
	"github.com/san-kum/leaklab/internal/experiment"
	"github.com/san-kum/leaklab/internal/ledger"
)

type blockingGateway struct {
	release chan struct{}
}

func (g *blockingGateway) Ask(ctx context.Context, _, _ string) string {
	<-g.release
	return "done"
}

func newTestServer(t *testing.T, gw assistant.Gateway) (*httptest.Server, *experiment.Session, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	s, err := experiment.New(config.DefaultConfig(), gw, clk)
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(New(s).Routes())
	t.Cleanup(ts.Close)
	return ts, s, clk
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("")
	} else {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rdr)
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestHealth(t *testing.T) {
	ts, _, _ := newTestServer(t, nil)
	resp := do(t, http.MethodGet, ts.URL+"/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestSwitchesAndState(t *testing.T) {
	ts, _, clk := newTestServer(t, nil)

	resp := do(t, http.MethodPost, ts.URL+"/api/switches/k1", "")
	var view experiment.View
	decode(t, resp, &view)
	if view.K1 != "CLOSED" {
		t.Errorf("empty body should toggle K1 closed, got %s", view.K1)
	}

	clk.Advance(time.Second)
	resp = do(t, http.MethodGet, ts.URL+"/api/state", "")
	decode(t, resp, &view)
	if view.Deflection <= 0 || view.Phase != "charging" {
		t.Errorf("expected charging with deflection, got %+v", view)
	}

	resp = do(t, http.MethodPost, ts.URL+"/api/switches/leak", `{"closed": true}`)
	decode(t, resp, &view)
	if view.K2 != "CLOSED" {
		t.Errorf("expected K2 closed, got %s", view.K2)
	}

	resp = do(t, http.MethodPost, ts.URL+"/api/switches/k3", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown key should be 404, got %d", resp.StatusCode)
	}
}

func TestStopwatchActions(t *testing.T) {
	ts, s, clk := newTestServer(t, nil)

	do(t, http.MethodPost, ts.URL+"/api/stopwatch/start", "")
	clk.Advance(2 * time.Second)
	do(t, http.MethodPost, ts.URL+"/api/stopwatch/stop", "")
	if got := s.Stopwatch().Seconds(); got != 2 {
		t.Errorf("expected 2s, got %f", got)
	}

	resp := do(t, http.MethodPost, ts.URL+"/api/stopwatch/lap", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown action should be 400, got %d", resp.StatusCode)
	}
}

func TestReadingsLifecycle(t *testing.T) {
	ts, _, clk := newTestServer(t, nil)

	do(t, http.MethodPost, ts.URL+"/api/switches/k1", `{"closed": true}`)
	clk.Advance(2 * time.Second)
	do(t, http.MethodPost, ts.URL+"/api/switches/k1", `{"closed": false}`)
	do(t, http.MethodPost, ts.URL+"/api/switches/k2", `{"closed": true}`)
	do(t, http.MethodPost, ts.URL+"/api/stopwatch/start", "")
	clk.Advance(5 * time.Second)

	resp := do(t, http.MethodPost, ts.URL+"/api/readings", "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var r ledger.Reading
	decode(t, resp, &r)
	if r.TimeSeconds != 5 {
		t.Errorf("expected t=5, got %f", r.TimeSeconds)
	}

	resp = do(t, http.MethodPost, ts.URL+"/api/readings/"+r.ID.String()+"/calculate", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var calc calculateResponse
	decode(t, resp, &calc)
	if calc.Deferred || calc.Reading.CalculatedR == nil {
		t.Fatalf("expected a resistance, got %+v", calc)
	}

	var list []ledger.Reading
	decode(t, do(t, http.MethodGet, ts.URL+"/api/readings", ""), &list)
	if len(list) != 1 || list[0].CalculatedR == nil {
		t.Errorf("list should show the calculated reading, got %+v", list)
	}

	var one ledger.Reading
	decode(t, do(t, http.MethodGet, ts.URL+"/api/readings/"+r.ID.String(), ""), &one)
	if one.ID != r.ID || one.CalculatedR == nil {
		t.Errorf("get should return the calculated reading, got %+v", one)
	}

	resp = do(t, http.MethodDelete, ts.URL+"/api/readings/"+r.ID.String(), "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
	resp = do(t, http.MethodDelete, ts.URL+"/api/readings/"+r.ID.String(), "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete should be 404, got %d", resp.StatusCode)
	}
	resp = do(t, http.MethodPost, ts.URL+"/api/readings/nope/calculate", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed id should be 400, got %d", resp.StatusCode)
	}
	resp = do(t, http.MethodDelete, ts.URL+"/api/readings/nope", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed id on delete should be 400, got %d", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, ts.URL+"/api/readings/"+r.ID.String(), "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("deleted reading should be 404, got %d", resp.StatusCode)
	}
	resp = do(t, http.MethodPost, ts.URL+"/api/readings/999/calculate", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown id should be 404, got %d", resp.StatusCode)
	}
}

func TestCalculateInvalidNamesField(t *testing.T) {
	ts, _, _ := newTestServer(t, nil)

	var r ledger.Reading
	decode(t, do(t, http.MethodPost, ts.URL+"/api/readings", ""), &r)

	resp := do(t, http.MethodPost, ts.URL+"/api/readings/"+r.ID.String()+"/calculate", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	var fe fieldError
	decode(t, resp, &fe)
	if fe.Field != "final_deflection" {
		t.Errorf("expected final_deflection, got %q", fe.Field)
	}
}

func TestFitNeedsReadings(t *testing.T) {
	ts, _, _ := newTestServer(t, nil)
	resp := do(t, http.MethodGet, ts.URL+"/api/fit", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", resp.StatusCode)
	}
}

func TestChat(t *testing.T) {
	ts, _, _ := newTestServer(t, assistant.Unavailable{})

	resp := do(t, http.MethodPost, ts.URL+"/api/chat", `{"question": "what is leakage?"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var cr chatResponse
	decode(t, resp, &cr)
	if cr.Reply != assistant.FallbackUnavailable {
		t.Errorf("unexpected reply %q", cr.Reply)
	}

	var hist chatHistoryResponse
	decode(t, do(t, http.MethodGet, ts.URL+"/api/chat", ""), &hist)
	if len(hist.Messages) != 3 || hist.Busy {
		t.Errorf("expected welcome, question and reply, got %+v", hist)
	}

	resp = do(t, http.MethodPost, ts.URL+"/api/chat", `{"question": "  "}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty question should be 400, got %d", resp.StatusCode)
	}
}

func TestChatBusy(t *testing.T) {
	gw := &blockingGateway{release: make(chan struct{})}
	ts, s, _ := newTestServer(t, gw)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := http.Post(ts.URL+"/api/chat", "application/json", bytes.NewBufferString(`{"question": "first"}`))
		if err == nil {
			resp.Body.Close()
		}
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !s.Chat().Busy() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !s.Chat().Busy() {
		t.Fatal("first question never became pending")
	}

	resp := do(t, http.MethodPost, ts.URL+"/api/chat", `{"question": "second"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 while busy, got %d", resp.StatusCode)
	}

	close(gw.release)
	wg.Wait()
}

func TestReset(t *testing.T) {
	ts, s, _ := newTestServer(t, nil)
	do(t, http.MethodPost, ts.URL+"/api/readings", "")
	do(t, http.MethodPost, ts.URL+"/api/reset", "")
	if len(s.Readings()) != 0 {
		t.Error("reset should clear readings")
	}
}

func TestReportEndpoints(t *testing.T) {
	ts, _, _ := newTestServer(t, nil)

	resp := do(t, http.MethodGet, ts.URL+"/api/report", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, ts.URL+"/api/report.png", "")
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %s", ct)
	}
}

func TestStateStream(t *testing.T) {
	ts, _, _ := newTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/state"
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close(websocket.StatusNormalClosure, "")

	for i := 0; i < 2; i++ {
		var view experiment.View
		if err := wsjson.Read(ctx, c, &view); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if view.MaxDeflection != config.DefaultMaxVoltage {
			t.Errorf("unexpected snapshot %+v", view)
		}
	}
}
