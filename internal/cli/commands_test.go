package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/matzehuels/fetchflow/pkg/buildinfo"
	fetcherrors "github.com/matzehuels/fetchflow/pkg/errors"
)

func TestGetCommandCachesAcrossRuns(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, `{"items":["a","b"]}`)
	cfg := fileConfig(t.TempDir())

	out, errOut, err := runCLI(t, cfg, "get", rs.URL)
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	if !strings.Contains(out, "\"items\": [\n") {
		t.Errorf("stdout = %q, want indented JSON", out)
	}
	if !strings.Contains(errOut, iconFresh) {
		t.Errorf("stderr = %q, want fresh status", errOut)
	}

	out, errOut, err = runCLI(t, cfg, "get", rs.URL, "--compact")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if out != "{\"items\":[\"a\",\"b\"]}\n" {
		t.Errorf("stdout = %q, want compact JSON", out)
	}
	if !strings.Contains(errOut, iconCached) {
		t.Errorf("stderr = %q, want cached status", errOut)
	}
	if rs.calls.Load() != 1 {
		t.Errorf("network calls = %d, want 1", rs.calls.Load())
	}
}

func TestGetCommandNoCache(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, `{}`)
	cfg := fileConfig(t.TempDir())
	for range 2 {
		if _, _, err := runCLI(t, cfg, "get", rs.URL, "--no-cache"); err != nil {
			t.Fatal(err)
		}
	}
	if rs.calls.Load() != 2 {
		t.Errorf("network calls = %d, want 2", rs.calls.Load())
	}
}

func TestGetCommandScopesCacheByCredentials(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, `{}`)
	cfg := fileConfig(t.TempDir())
	for _, args := range [][]string{
		{"get", rs.URL},
		{"get", rs.URL, "--credentials", "omit"},
		{"get", rs.URL, "--credentials", "omit"},
		{"get", rs.URL, "--credentials", "same-origin"},
	} {
		if _, _, err := runCLI(t, cfg, args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}
	if rs.calls.Load() != 2 {
		t.Errorf("network calls = %d, want 2", rs.calls.Load())
	}
}

func TestGetCommandHeaders(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, `{}`)
	cfg := "[http]\nheaders = { X-Client = \"fetchflow\" }\n[cache]\nbackend = \"none\"\n"
	if _, _, err := runCLI(t, cfg, "get", rs.URL, "-H", "Authorization: Bearer t0k"); err != nil {
		t.Fatal(err)
	}
	_, _, h := rs.last()
	if h.Get("Authorization") != "Bearer t0k" || h.Get("X-Client") != "fetchflow" {
		t.Errorf("request headers = %v", h)
	}
	if ua := h.Get("User-Agent"); ua != buildinfo.UserAgent() {
		t.Errorf("User-Agent = %q, want %q", ua, buildinfo.UserAgent())
	}
}

func TestGetCommandRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	rs := newRecordingServer(t, http.StatusOK, `{"v":1}`)
	cfg := "[cache]\nbackend = \"redis\"\nredis_url = \"redis://" + mr.Addr() + "/0\"\nnamespace = \"cli-test\"\n"

	for range 2 {
		if _, _, err := runCLI(t, cfg, "get", rs.URL); err != nil {
			t.Fatal(err)
		}
	}
	if rs.calls.Load() != 1 {
		t.Errorf("network calls = %d, want 1", rs.calls.Load())
	}
	keys := mr.Keys()
	if len(keys) != 1 || !strings.HasPrefix(keys[0], "cli-test:") {
		t.Errorf("redis keys = %v, want one cli-test entry", keys)
	}

	out, _, err := runCLI(t, cfg, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, mr.Addr()) {
		t.Errorf("cache path = %q, want redis address", out)
	}
}

func TestGetCommandHTTPError(t *testing.T) {
	rs := newRecordingServer(t, http.StatusNotFound, `{"message":"no such item"}`)
	_, errOut, err := runCLI(t, "[cache]\nbackend = \"none\"\n", "get", rs.URL, "--retries", "0")

	fe := fetcherrors.As(err)
	if fe == nil || fe.Kind != fetcherrors.KindHTTP || fe.StatusCode != http.StatusNotFound {
		t.Fatalf("error = %v, want HttpError 404", err)
	}
	if !strings.Contains(errOut, "no such item") || !strings.Contains(errOut, "HttpError 404") {
		t.Errorf("stderr = %q, want message and kind", errOut)
	}
	if rs.calls.Load() != 1 {
		t.Errorf("network calls = %d, want 1 with --retries 0", rs.calls.Load())
	}
}

func TestGetCommandRetriesServerErrors(t *testing.T) {
	rs := newRecordingServer(t, http.StatusInternalServerError, `{}`)
	_, _, err := runCLI(t, "[cache]\nbackend = \"none\"\n", "get", rs.URL, "--retries", "2", "--retry-delay", "1ms")
	if !fetcherrors.IsKind(err, fetcherrors.KindHTTP) {
		t.Fatalf("error = %v, want HttpError", err)
	}
	if rs.calls.Load() != 3 {
		t.Errorf("network calls = %d, want 3", rs.calls.Load())
	}
}

func TestSendCommand(t *testing.T) {
	var gets atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			gets.Add(1)
			_, _ = io.WriteString(w, `{"items":[]}`)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"method": r.Method, "name": body["name"]})
	}))
	defer server.Close()
	cfg := fileConfig(t.TempDir())

	if _, _, err := runCLI(t, cfg, "get", server.URL); err != nil {
		t.Fatal(err)
	}
	out, _, err := runCLI(t, cfg, "send", server.URL, "-X", "put", "-d", `{"name":"widget"}`, "--compact")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if out != "{\"method\":\"PUT\",\"name\":\"widget\"}\n" {
		t.Errorf("send stdout = %q", out)
	}

	_, errOut, err := runCLI(t, cfg, "get", server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(errOut, iconFresh) || gets.Load() != 2 {
		t.Errorf("get after send: stderr %q, gets %d; want a fresh fetch", errOut, gets.Load())
	}
}

func TestSendCommandBodyFromFile(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, `{}`)
	path := filepath.Join(t.TempDir(), "body.json")
	if err := os.WriteFile(path, []byte(`{"n": 1}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, "", "send", rs.URL, "-d", "@"+path); err != nil {
		t.Fatal(err)
	}
	method, body, _ := rs.last()
	if method != http.MethodPost || body != `{"n":1}` {
		t.Errorf("request = %s %q, want POST {\"n\":1}", method, body)
	}
}

func TestSendCommandErrors(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, `{}`)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "get method", args: []string{"-X", "GET"}, want: "use get"},
		{name: "invalid body", args: []string{"-d", "{nope"}, want: "not valid JSON"},
		{name: "missing file", args: []string{"-d", "@/does/not/exist.json"}, want: "read body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, "", append([]string{"send", rs.URL}, tt.args...)...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
	if rs.calls.Load() != 0 {
		t.Errorf("network calls = %d, want 0", rs.calls.Load())
	}
}

func TestSendCommandNeverRetries(t *testing.T) {
	rs := newRecordingServer(t, http.StatusServiceUnavailable, `{"message":"busy"}`)
	_, _, err := runCLI(t, "", "send", rs.URL, "-d", `{}`)
	if !fetcherrors.IsKind(err, fetcherrors.KindHTTP) {
		t.Fatalf("error = %v, want HttpError", err)
	}
	if rs.calls.Load() != 1 {
		t.Errorf("network calls = %d, want 1", rs.calls.Load())
	}
}

func TestGraphQLCommand(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, `{"data":{"item":{"id":42,"name":"widget"}}}`)
	out, _, err := runCLI(t, "", "graphql", rs.URL,
		"-q", "query Item($id: Int!) { item(id: $id) { id name } }",
		"--var", "id=42", "--var", "label=plain text", "--operation", "Item", "--compact")
	if err != nil {
		t.Fatal(err)
	}
	if out != "{\"item\":{\"id\":42,\"name\":\"widget\"}}\n" {
		t.Errorf("stdout = %q", out)
	}

	method, body, _ := rs.last()
	var req struct {
		Query         string         `json:"query"`
		Variables     map[string]any `json:"variables"`
		OperationName string         `json:"operationName"`
	}
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatal(err)
	}
	if method != http.MethodPost || req.OperationName != "Item" {
		t.Errorf("request = %s %+v", method, req)
	}
	if req.Variables["id"] != float64(42) || req.Variables["label"] != "plain text" {
		t.Errorf("variables = %v", req.Variables)
	}
}

func TestGraphQLCommandErrors(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, `{"data":null,"errors":[{"message":"field missing"}]}`)
	_, errOut, err := runCLI(t, "", "graphql", rs.URL, "-q", "{ missing }")
	if !fetcherrors.IsKind(err, fetcherrors.KindGraphQL) {
		t.Fatalf("error = %v, want GraphQLError", err)
	}
	if !strings.Contains(errOut, "field missing") {
		t.Errorf("stderr = %q", errOut)
	}

	if _, _, err := runCLI(t, "", "graphql", rs.URL); err == nil || !strings.Contains(err.Error(), "query is required") {
		t.Errorf("missing query error = %v", err)
	}
}

func TestGraphQLCommandQueryFile(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, `{"data":{"ok":true}}`)
	path := filepath.Join(t.TempDir(), "q.graphql")
	if err := os.WriteFile(path, []byte("{ ok }"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, "", "graphql", rs.URL, "-f", path); err != nil {
		t.Fatal(err)
	}
	_, body, _ := rs.last()
	if !strings.Contains(body, `"query":"{ ok }"`) {
		t.Errorf("request body = %q", body)
	}
}

func TestParseVariables(t *testing.T) {
	got, err := parseVariables([]string{"n=1", "flag=true", "obj={\"a\":1}", "s=hello", "eq=a=b"})
	if err != nil {
		t.Fatal(err)
	}
	if got["n"] != float64(1) || got["flag"] != true || got["s"] != "hello" || got["eq"] != "a=b" {
		t.Errorf("parseVariables() = %v", got)
	}
	if obj, ok := got["obj"].(map[string]any); !ok || obj["a"] != float64(1) {
		t.Errorf("obj = %v", got["obj"])
	}
	if _, err := parseVariables([]string{"novalue"}); err == nil {
		t.Error("missing = should fail")
	}
}

func TestPollCommandCount(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, `{"status":"ok"}`)
	out, errOut, err := runCLI(t, "", "poll", rs.URL, "--interval", "10ms", "--count", "3", "--no-cache")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("stdout lines = %d (%q), want 3", len(lines), out)
	}
	for _, l := range lines {
		if l != `{"status":"ok"}` {
			t.Errorf("line = %q", l)
		}
	}
	if !strings.Contains(errOut, "#3") || !strings.Contains(errOut, "3 times") {
		t.Errorf("stderr = %q, want cycle numbers and summary", errOut)
	}
	if rs.calls.Load() != 3 {
		t.Errorf("network calls = %d, want 3", rs.calls.Load())
	}
}

func TestPollCommandCachedCycles(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, `{}`)
	_, errOut, err := runCLI(t, "[cache]\nbackend = \"memory\"\n", "poll", rs.URL, "--interval", "10ms", "--count", "3")
	if err != nil {
		t.Fatal(err)
	}
	if rs.calls.Load() != 1 {
		t.Errorf("network calls = %d, want 1", rs.calls.Load())
	}
	if strings.Count(errOut, iconCached) != 2 {
		t.Errorf("stderr = %q, want two cached cycles", errOut)
	}
}

func TestPollCommandReportsErrors(t *testing.T) {
	rs := newRecordingServer(t, http.StatusBadGateway, `{"message":"upstream down"}`)
	out, errOut, err := runCLI(t, "[retry]\ncount = 0\n[cache]\nbackend = \"none\"\n", "poll", rs.URL, "--interval", "10ms", "--count", "2")
	if err != nil {
		t.Fatalf("failed cycles should not fail the command: %v", err)
	}
	if out != "" {
		t.Errorf("stdout = %q, want empty", out)
	}
	if strings.Count(errOut, "upstream down") != 2 {
		t.Errorf("stderr = %q, want two error lines", errOut)
	}
}

func TestPollCommandRejectsBadInterval(t *testing.T) {
	_, _, err := runCLI(t, "", "poll", "https://api.example.com", "--interval", "0s")
	if !fetcherrors.IsKind(err, fetcherrors.KindUnknown) {
		t.Errorf("error = %v, want UnknownError", err)
	}
}

func TestCacheCommands(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, `{}`)
	dir := t.TempDir()
	cfg := fileConfig(dir)

	if _, _, err := runCLI(t, cfg, "get", rs.URL); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, cfg, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != dir {
		t.Errorf("cache path = %q, want %q", out, dir)
	}

	out, _, err = runCLI(t, cfg, "cache", "size")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Entries") || !strings.Contains(out, " 1") {
		t.Errorf("cache size = %q, want 1 entry", out)
	}

	out, _, err = runCLI(t, cfg, "cache", "clear")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Cleared 1 cached entries") {
		t.Errorf("cache clear = %q", out)
	}

	out, _, _ = runCLI(t, cfg, "cache", "clear")
	if !strings.Contains(out, "Cache is empty") {
		t.Errorf("second clear = %q", out)
	}
}

func TestCacheCommandsNonPersistentBackend(t *testing.T) {
	out, _, err := runCLI(t, "[cache]\nbackend = \"memory\"\n", "cache", "clear")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "not persisted") {
		t.Errorf("cache clear = %q", out)
	}
}

func TestPrintFetchError(t *testing.T) {
	var buf bytes.Buffer
	printFetchError(&buf, fetcherrors.TimeoutError(0))
	if !strings.Contains(buf.String(), string(fetcherrors.KindTimeout)) {
		t.Errorf("output = %q, want kind", buf.String())
	}
}
