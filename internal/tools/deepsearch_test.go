package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/crystaldolphin/deepsearch/internal/deepsearch"
)

type fakeSearcher struct {
	gotQuery string
	gotOpts  deepsearch.SearchOptions
	res      deepsearch.Result
	err      error
}

func (f *fakeSearcher) Search(ctx context.Context, query string, opts deepsearch.SearchOptions) (deepsearch.Result, error) {
	f.gotQuery = query
	f.gotOpts = opts
	return f.res, f.err
}

func TestDeepSearchTool_Execute(t *testing.T) {
	fs := &fakeSearcher{res: deepsearch.Result{
		Query:   "go",
		Content: "Go is a language.",
		Sources: []deepsearch.Source{{URL: "https://go.dev", Title: "Go"}},
	}}
	tool := NewDeepSearchTool(fs)

	out, err := tool.Execute(context.Background(), map[string]any{"query": "go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var res deepsearch.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if res.Content != "Go is a language." || len(res.Sources) != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	if fs.gotQuery != "go" {
		t.Errorf("unexpected query %q", fs.gotQuery)
	}
	if fs.gotOpts.Stream != nil {
		t.Error("stream should follow the valve when not passed")
	}
}

func TestDeepSearchTool_StreamOverrideAndEmitter(t *testing.T) {
	fs := &fakeSearcher{res: deepsearch.Result{Content: "x"}}
	tool := NewDeepSearchTool(fs)

	em := deepsearch.EmitterFunc(func(context.Context, deepsearch.Event) error { return nil })
	ctx := WithInvocation(context.Background(), InvocationContext{ID: "1", Emitter: em})

	if _, err := tool.Execute(ctx, map[string]any{"query": "q", "stream": false}); err != nil {
		t.Fatal(err)
	}
	if fs.gotOpts.Stream == nil || *fs.gotOpts.Stream {
		t.Errorf("expected stream override false, got %v", fs.gotOpts.Stream)
	}
	if fs.gotOpts.Emitter == nil {
		t.Error("expected emitter from invocation context")
	}
}

func TestDeepSearchTool_EmptyQuery(t *testing.T) {
	fs := &fakeSearcher{}
	out, _ := NewDeepSearchTool(fs).Execute(context.Background(), map[string]any{"query": "  "})
	if out != "Error: query is required" {
		t.Errorf("unexpected output %q", out)
	}
	if fs.gotQuery != "" {
		t.Error("searcher must not be called for an empty query")
	}
}

func TestDeepSearchTool_NoContent(t *testing.T) {
	fs := &fakeSearcher{res: deepsearch.Result{Query: "q"}}
	out, _ := NewDeepSearchTool(fs).Execute(context.Background(), map[string]any{"query": "q"})
	if !strings.Contains(out, noContentMessage) {
		t.Errorf("expected no-content message, got %q", out)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&deepsearch.Error{Kind: deepsearch.KindAuth}, "Error: Jina DeepSearch API key missing. Set it in tool settings."},
		{&deepsearch.Error{Kind: deepsearch.KindAuth, Status: 401, Body: "bad key"}, "API Error 401: bad key"},
		{&deepsearch.Error{Kind: deepsearch.KindRemote, Status: 502, Body: "gateway"}, "API Error 502: gateway"},
		{&deepsearch.Error{Kind: deepsearch.KindTimeout}, "Error: request to DeepSearch timed out."},
		{&deepsearch.Error{Kind: deepsearch.KindCanceled}, "Error: DeepSearch request canceled."},
		{&deepsearch.Error{Kind: deepsearch.KindConfig, Message: "query is required"}, "Error: query is required"},
		{errors.New("boom"), "Unexpected error during DeepSearch: boom"},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestDeepSearchTool_ErrorIsUserVisible(t *testing.T) {
	fs := &fakeSearcher{err: &deepsearch.Error{Kind: deepsearch.KindTimeout}}
	out, err := NewDeepSearchTool(fs).Execute(context.Background(), map[string]any{"query": "q"})
	if err != nil {
		t.Fatalf("tool errors must not fail the host: %v", err)
	}
	if out != "Error: request to DeepSearch timed out." {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRegistryDefinitions(t *testing.T) {
	reg := NewRegistryBuilder().WithTool(NewDeepSearchTool(&fakeSearcher{})).Build()
	if reg.GetTool(ToolDeepSearch) == nil {
		t.Fatal("deepsearch tool not registered")
	}
	defs := reg.AllTools().Definitions()
	if len(defs) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(defs))
	}
	fn := defs[0]["function"].(map[string]any)
	if fn["name"] != "deepsearch" {
		t.Errorf("unexpected name %v", fn["name"])
	}
	params := fn["parameters"].(map[string]any)
	if req := params["required"].([]any); len(req) != 1 || req[0] != "query" {
		t.Errorf("unexpected required %v", req)
	}
}
