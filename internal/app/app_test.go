package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricofy/catalog-translator/internal/backend"
	"github.com/pricofy/catalog-translator/internal/config"
	"github.com/pricofy/catalog-translator/internal/pipeline"
	"github.com/pricofy/catalog-translator/internal/store"
)

func translateServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req backend.BatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out := make([]string, len(req.Texts))
		for i, text := range req.Texts {
			out[i] = "[" + req.TargetLang + "] " + text
		}
		json.NewEncoder(w).Encode(backend.BatchResponse{TranslatedTexts: out})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(translateURL, lookupURL, outDir string) *config.Config {
	return &config.Config{
		Env: "local",
		Backend: config.Backend{
			Strategy:      config.StrategyBatch,
			TitleStrategy: config.StrategyBatch,
			URL:           translateURL,
			TargetLang:    "vi",
			SourceLang:    "auto",
			Timeout:       5 * time.Second,
			MaxRetries:    2,
			RetryDelay:    time.Millisecond,
		},
		Batch:   config.Batch{Size: 125, MaxRequestBytes: 75000, Concurrency: 7},
		Source:  config.Source{Timeout: 5 * time.Second},
		Product: config.Product{LookupURL: lookupURL, Channel: "default", Locale: "vi_VN"},
		Output:  config.Output{Enabled: outDir != "", Dir: outDir},
	}
}

func TestApp_TranslateDatasetEndToEnd(t *testing.T) {
	var calls atomic.Int32
	tr := translateServer(t, &calls)

	dataset := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"title":"Chair","content":"<p>A</p><p>B</p><p>C</p>","sku":"S1","rating":5},
			{"title":"Table","content":""}
		]`)
	}))
	defer dataset.Close()

	outDir := filepath.Join(t.TempDir(), "backup")
	a, err := New(context.Background(), testConfig(tr.URL, "http://127.0.0.1:1", outDir))
	require.NoError(t, err)

	res := a.Pipeline.TranslateDataset(context.Background(), dataset.URL, pipeline.DatasetOptions{Translate: true, Persist: true})
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Data, 2)

	assert.Equal(t, "[vi] Chair", res.Data[0].Title)
	assert.Equal(t, "<p>[vi] A</p><p>[vi] B</p><p>[vi] C</p>", *res.Data[0].Content)
	assert.JSONEq(t, `5`, string(res.Data[0].Extra["rating"]))
	assert.Equal(t, "[vi] Table", res.Data[1].Title)
	assert.Equal(t, int32(2), calls.Load(), "one batch for titles, one for content")

	require.NotNil(t, res.SavedPaths)
	latest, err := os.ReadFile(filepath.Join(outDir, store.LatestName))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(latest), "[vi] Chair"))
}

func TestApp_TranslateProductsEndToEnd(t *testing.T) {
	var calls atomic.Int32
	tr := translateServer(t, &calls)

	lookup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":[
			{"id":1,"sku":"A","values":"{\"channel_locale_specific\":{\"default\":{\"vi_VN\":{\"name\":\"Lamp\",\"description\":\"Bright\"}}}}"}
		]}`)
	}))
	defer lookup.Close()

	a, err := New(context.Background(), testConfig(tr.URL, lookup.URL, ""))
	require.NoError(t, err)

	res := a.Pipeline.TranslateProducts(context.Background(), []string{"A", "B"})
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "1", res.Data[0].ID)
	assert.Equal(t, "[vi] Lamp", res.Data[0].Name)
	assert.Equal(t, "[vi] Bright", res.Data[0].Description)
	assert.Equal(t, []string{"B"}, res.Missing)
}

func TestNew_UnknownStrategy(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1", "http://127.0.0.1:1", "")
	cfg.Backend.TitleStrategy = "carrier-pigeon"

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title backend")
}

func TestTitleBatch(t *testing.T) {
	cfg := testConfig("", "", "")
	assert.Equal(t, 7, titleBatch(cfg).Concurrency)

	cfg.Backend.TitleStrategy = config.StrategyGenerative
	assert.Equal(t, 1, titleBatch(cfg).Concurrency)
	assert.Equal(t, 125, titleBatch(cfg).Size)
}
