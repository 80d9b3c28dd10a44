package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/san-kum/forcegraph/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	g, err := Load(context.Background(), "testdata/chain.json")
	require.NoError(t, err)

	require.Len(t, g.Nodes, 3)
	require.Len(t, g.Links, 2)
	assert.Equal(t, "A", g.Nodes[0].ID)
	assert.Equal(t, map[string]any{"label": "first"}, g.Nodes[0].Payload)
	assert.Nil(t, g.Nodes[1].X)
	require.NotNil(t, g.Nodes[2].X)
	assert.Equal(t, 10.0, *g.Nodes[2].X)
	assert.Equal(t, 2.0, g.Links[0].Value)
	assert.Equal(t, 1.0, g.Links[1].Value, "value defaults to 1")
}

func TestLoadYAMLNumericIDs(t *testing.T) {
	g, err := Load(context.Background(), "testdata/numeric.yaml")
	require.NoError(t, err)

	assert.Equal(t, "1", g.Nodes[0].ID)
	assert.Equal(t, 3, g.Nodes[1].Group)
	assert.Equal(t, Link{Source: "1", Target: "2", Value: 1}, g.Links[0])
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   error
	}{
		{"missing file", "testdata/nope.json", os.ErrNotExist},
		{"dangling link", "testdata/dangling.json", dynamo.ErrUnknownBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), tt.source)

			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.source, le.Source)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadReportsOffendingIdentifier(t *testing.T) {
	_, err := Load(context.Background(), "testdata/dangling.json")

	var ref *dynamo.ReferenceError
	require.ErrorAs(t, err, &ref)
	assert.Equal(t, "Z", ref.ID)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `nodes: []`},
		{"node without id", `{"nodes": [{"group": 1}]}`},
		{"empty id", `{"nodes": [{"id": ""}]}`},
		{"object id", `{"nodes": [{"id": {"a": 1}}]}`},
		{"link without target", `{"nodes": [{"id": "a"}], "links": [{"source": "a"}]}`},
		{"bad coordinate", `{"nodes": [{"id": "a", "x": "left"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, (&Graph{}).Validate(), dynamo.ErrEmptyDataset)

	dup := &Graph{Nodes: []Node{{ID: "a"}, {ID: "a"}}}
	assert.ErrorIs(t, dup.Validate(), dynamo.ErrDuplicateBody)
}

func TestNodeMarshalKeepsPayload(t *testing.T) {
	x, y := 1.5, 2.5
	n := Node{ID: "a", Group: 4, X: &x, Y: &y, Payload: map[string]any{"label": "hi"}}

	data, err := json.Marshal(n)
	require.NoError(t, err)

	var back Node
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, n, back)
}

func TestLoadHTTP(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/graph.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "testdata/chain.json")
	})
	mux.HandleFunc("/graph", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		http.ServeFile(w, r, "testdata/numeric.yaml")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	g, err := Load(context.Background(), srv.URL+"/graph.json")
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 3)

	g, err = Load(context.Background(), srv.URL+"/graph")
	require.NoError(t, err, "content type selects the yaml decoder")
	assert.Len(t, g.Nodes, 2)

	_, err = Load(context.Background(), srv.URL+"/missing")
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.Error(), "404")
}

func TestLoadHTTPCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, srv.URL)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}
