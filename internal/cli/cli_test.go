package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"travel-rag/internal/adapter/rag_http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var bodies []string
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/rag/search", func(w http.ResponseWriter, r *http.Request) {
		var req rag_http.SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		raw, _ := json.Marshal(req)
		bodies = append(bodies, string(raw))
		_ = json.NewEncoder(w).Encode(rag_http.SearchView{
			Query: req.Query,
			Results: []rag_http.SourceView{
				{ID: "culture_japan_001", Title: "Japanese Cultural Etiquette and Customs", Country: "Japan", Category: "cultural_etiquette", Score: 0.92, Rank: 1},
			},
			TotalResults:    1,
			ConfidenceScore: 0.61,
			ProcessingTime:  0.02,
		})
	})
	mux.HandleFunc("POST /v1/rag/answer", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(rag_http.AnswerView{
			Query:           "visa",
			Answer:          "Apply for an e-visa before travelling.",
			Sources:         []rag_http.SourceView{{ID: "visa_india_japan_001", Title: "Japan Visa for Indian Citizens", Score: 0.88, Rank: 1}},
			ConfidenceScore: 0.82,
			RequestID:       "req-1",
		})
	})
	mux.HandleFunc("POST /v1/rag/answer/stream", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: meta\ndata: {\"request_id\":\"req-2\",\"sources\":[],\"confidence_score\":0.7}\n\n")
		fmt.Fprint(w, ": heartbeat\n\n")
		fmt.Fprint(w, "event: delta\ndata: {\"text\":\"Hello \"}\n\n")
		fmt.Fprint(w, "event: delta\ndata: {\"text\":\"traveller\"}\n\n")
		fmt.Fprint(w, "event: done\ndata: {\"answer\":\"Hello traveller\",\"confidence_score\":0.7,\"request_id\":\"req-2\",\"metadata\":{\"outcome\":\"answered\"}}\n\n")
	})
	mux.HandleFunc("POST /v1/rag/validate-query", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(rag_http.ValidateView{
			Issues:      []string{"Query is too short"},
			Suggestions: []string{"Add details"},
			Length:      2,
		})
	})
	mux.HandleFunc("GET /v1/rag/collection", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(rag_http.CollectionView{Name: "travel_documents", Count: 15, Status: "green", Dimension: 768,
			ByStatus: map[string]int{"indexed": 15}})
	})
	mux.HandleFunc("POST /v1/rag/broken", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rag_http.ErrorView{Error: "validation_error", Message: "query must not be empty"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &bodies
}

func runCLI(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	root := NewRootCmd(&out)
	root.SetArgs(append([]string{"--server", srv.URL, "--color", "never"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSearchCmd(t *testing.T) {
	srv, bodies := fakeServer(t)

	out, err := runCLI(t, srv, "search", "japan", "etiquette", "--top-k", "3", "--country", "Japan", "--alpha", "0.4")
	require.NoError(t, err)

	assert.Contains(t, out, "culture_japan_001")
	assert.Contains(t, out, "confidence: 0.610")
	require.Len(t, *bodies, 1)
	assert.JSONEq(t, `{"query":"japan etiquette","country":"Japan","top_k":3,"hybrid_alpha":0.4}`, (*bodies)[0])
}

func TestAskCmd(t *testing.T) {
	srv, _ := fakeServer(t)

	out, err := runCLI(t, srv, "ask", "Do", "Indians", "need", "a", "visa?")
	require.NoError(t, err)
	assert.Contains(t, out, "Apply for an e-visa before travelling.")
	assert.Contains(t, out, "Japan Visa for Indian Citizens")
	assert.Contains(t, out, "request req-1")
}

func TestAskCmd_Stream(t *testing.T) {
	srv, _ := fakeServer(t)

	out, err := runCLI(t, srv, "ask", "--stream", "hello")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Hello traveller"), out)
	assert.Contains(t, out, "confidence: 0.700")
}

func TestValidateCmd(t *testing.T) {
	srv, _ := fakeServer(t)

	out, err := runCLI(t, srv, "validate", "hi")
	require.NoError(t, err)
	assert.Contains(t, out, "[WARN] Query is too short")
	assert.Contains(t, out, "hint: Add details")
}

func TestStatsCmd(t *testing.T) {
	srv, _ := fakeServer(t)

	out, err := runCLI(t, srv, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "travel_documents")
	assert.Contains(t, out, "status:indexed")
}

func TestClient_APIError(t *testing.T) {
	srv, _ := fakeServer(t)
	c := NewClient(srv.URL, time.Second)

	err := c.do(context.Background(), http.MethodPost, "/v1/rag/broken", map[string]string{}, &struct{}{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, err.Error(), "query must not be empty")
}

func TestReadSSE_MultiLineData(t *testing.T) {
	input := "event: delta\ndata: {\"text\":\ndata: \"x\"}\n\nevent: done\ndata: {}\n\n"
	var events []SSEEvent
	require.NoError(t, readSSE(strings.NewReader(input), func(ev SSEEvent) error {
		events = append(events, ev)
		return nil
	}))

	require.Len(t, events, 2)
	assert.Equal(t, "delta", events[0].Event)
	assert.JSONEq(t, `{"text":"x"}`, string(events[0].Data))
	assert.Equal(t, "done", events[1].Event)
}

func TestLoadSettings(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		t.Chdir(t.TempDir())
		s, err := LoadSettings("")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9010", s.Server.URL)
		assert.Equal(t, "auto", s.Output.Color)
	})

	t.Run("file and env", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "travelctl.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  url: http://rag:9010/\noutput:\n  color: never\n"), 0o600))
		t.Setenv("TRAVELCTL_OUTPUT_COLOR", "always")

		s, err := LoadSettings(path)
		require.NoError(t, err)
		assert.Equal(t, "http://rag:9010", s.Server.URL)
		assert.Equal(t, "always", s.Output.Color)
	})

	t.Run("bad color", func(t *testing.T) {
		t.Setenv("TRAVELCTL_OUTPUT_COLOR", "rainbow")
		t.Chdir(t.TempDir())
		_, err := LoadSettings("")
		assert.ErrorContains(t, err, "invalid color mode")
	})
}

func TestPrinter_NoColorPrefixes(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, ColorNever)

	p.Success("done")
	p.Error("boom")
	p.Confidence("confidence", 0.2)

	assert.Equal(t, "[OK] done\n[ERROR] boom\nconfidence: 0.200\n", buf.String())
}
