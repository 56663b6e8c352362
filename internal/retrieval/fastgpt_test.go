package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		name         string
		uri          string
		datasetID    string
		collectionID string
		documentID   string
		wantErr      bool
	}{
		{
			name:      "dataset only",
			uri:       "rag://dataset/abc123",
			datasetID: "abc123",
		},
		{
			name:         "dataset and collection",
			uri:          "rag://dataset/abc123/collection/col9",
			datasetID:    "abc123",
			collectionID: "col9",
		},
		{
			name:       "dataset with document fragment",
			uri:        "rag://dataset/abc123#doc77",
			datasetID:  "abc123",
			documentID: "doc77",
		},
		{
			name:      "bare dataset id",
			uri:       "abc123",
			datasetID: "abc123",
		},
		{
			name:      "bare id with leading slash",
			uri:       "/abc123",
			datasetID: "abc123",
		},
		{
			name:    "wrong scheme",
			uri:     "http://dataset/abc",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			datasetID, collectionID, documentID, err := ParseURI(tt.uri)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got none", tt.uri)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if datasetID != tt.datasetID {
				t.Errorf("datasetID = %q, want %q", datasetID, tt.datasetID)
			}
			if collectionID != tt.collectionID {
				t.Errorf("collectionID = %q, want %q", collectionID, tt.collectionID)
			}
			if documentID != tt.documentID {
				t.Errorf("documentID = %q, want %q", documentID, tt.documentID)
			}
		})
	}
}

func testProvider(t *testing.T, handler http.Handler) *FastGPTProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &ProviderConfig{
		APIURL:  server.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	}
	if err := cfg.applyDefaults(); err != nil {
		t.Fatalf("applyDefaults: %v", err)
	}
	return NewFastGPTProvider(cfg)
}

func TestListResources(t *testing.T) {
	provider := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/core/dataset/list" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 200,
			"data": []map[string]interface{}{
				{"_id": "ds1", "name": "Research Notes", "intro": "notes"},
				{"name": "orphan without id"},
				{"_id": "ds2"},
			},
		})
	}))

	resources, err := provider.ListResources(context.Background(), "")
	if err != nil {
		t.Fatalf("ListResources: %v", err)
	}
	if len(resources) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(resources))
	}
	if resources[0].URI != "rag://dataset/ds1" {
		t.Errorf("URI = %q", resources[0].URI)
	}
	if resources[0].Title != "Research Notes" {
		t.Errorf("Title = %q", resources[0].Title)
	}
	if resources[1].Title != "Dataset ds2" {
		t.Errorf("fallback title = %q", resources[1].Title)
	}
}

func TestListResourcesAPIError(t *testing.T) {
	provider := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":    500,
			"message": "internal error",
		})
	}))

	if _, err := provider.ListResources(context.Background(), ""); err == nil {
		t.Fatal("expected error on non-200 API code")
	}
}

func TestQueryRelevantDocumentsGroupsChunks(t *testing.T) {
	provider := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/core/dataset/retrieve" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 200,
			"data": map[string]interface{}{
				"documents": []map[string]interface{}{
					{"doc_id": "d1", "doc_name": "Paper A", "content": "first", "score": 0.9},
					{"doc_id": "d2", "doc_name": "Paper B", "content": "other", "score": 0.5},
					{"doc_id": "d1", "content": "second", "score": 0.7},
					{"content": "no id, dropped"},
				},
			},
		})
	}))

	docs, err := provider.QueryRelevantDocuments(context.Background(), "query", []Resource{
		{URI: "rag://dataset/ds1", Title: "DS"},
	})
	if err != nil {
		t.Fatalf("QueryRelevantDocuments: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != "d1" || len(docs[0].Chunks) != 2 {
		t.Errorf("doc d1 = %+v", docs[0])
	}
	if docs[0].Chunks[1].Similarity != 0.7 {
		t.Errorf("similarity = %v", docs[0].Chunks[1].Similarity)
	}
	if docs[1].Title != "Paper B" {
		t.Errorf("doc d2 title = %q", docs[1].Title)
	}
}

func TestQueryRelevantDocumentsNoResources(t *testing.T) {
	provider := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected when resources are empty")
	}))

	docs, err := provider.QueryRelevantDocuments(context.Background(), "query", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs))
	}
}

func TestQueryRelevantDocumentsSkipsFailingResource(t *testing.T) {
	provider := testProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			DatasetIDs []string `json:"datasetIds"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.DatasetIDs) == 1 && req.DatasetIDs[0] == "bad" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 200,
			"data": map[string]interface{}{
				"documents": []map[string]interface{}{
					{"doc_id": "d1", "doc_name": "Paper A", "content": "ok", "score": 1.0},
				},
			},
		})
	}))

	docs, err := provider.QueryRelevantDocuments(context.Background(), "query", []Resource{
		{URI: "rag://dataset/bad"},
		{URI: "rag://dataset/good"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected the healthy resource's document, got %d", len(docs))
	}
}
