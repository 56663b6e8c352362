package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// FastGPTProvider retrieves documents from a FastGPT deployment
type FastGPTProvider struct {
	cfg     *ProviderConfig
	client  *http.Client
	limiter *rate.Limiter
	log     *logrus.Entry
}

// NewFastGPTProvider creates a provider from loaded config
func NewFastGPTProvider(cfg *ProviderConfig) *FastGPTProvider {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &FastGPTProvider{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		log:     logrus.WithField("provider", "fastgpt"),
	}
}

// apiEnvelope is FastGPT's standard response wrapper
type apiEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (p *FastGPTProvider) do(ctx context.Context, method, path string, query url.Values, body interface{}) (json.RawMessage, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := p.cfg.APIURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, string(raw))
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	if envelope.Code != 200 {
		return nil, fmt.Errorf("%s returned error code %d: %s", path, envelope.Code, envelope.Message)
	}

	return envelope.Data, nil
}

// ListResources lists knowledge bases, optionally filtered by name
func (p *FastGPTProvider) ListResources(ctx context.Context, query string) ([]Resource, error) {
	params := url.Values{}
	params.Set("parentId", "")
	if query != "" {
		params.Set("name", query)
	}

	data, err := p.do(ctx, http.MethodPost, p.cfg.ListPath, params, map[string]interface{}{})
	if err != nil {
		p.log.WithError(err).Error("Failed to list datasets")
		return nil, err
	}

	var datasets []struct {
		ID    string `json:"_id"`
		Name  string `json:"name"`
		Intro string `json:"intro"`
	}
	if err := json.Unmarshal(data, &datasets); err != nil {
		return nil, fmt.Errorf("failed to decode dataset list: %w", err)
	}

	resources := make([]Resource, 0, len(datasets))
	for _, ds := range datasets {
		if ds.ID == "" {
			p.log.Warn("Skipping dataset without ID")
			continue
		}
		title := ds.Name
		if title == "" {
			title = "Dataset " + ds.ID
		}
		resources = append(resources, Resource{
			URI:         fmt.Sprintf("rag://dataset/%s", ds.ID),
			Title:       title,
			Description: ds.Intro,
		})
	}

	p.log.WithField("count", len(resources)).Info("Listed knowledge base resources")
	return resources, nil
}

// QueryRelevantDocuments retrieves documents relevant to a query from the
// given resources. A failure on one resource is logged and skipped so the
// remaining resources still contribute.
func (p *FastGPTProvider) QueryRelevantDocuments(ctx context.Context, query string, resources []Resource) ([]Document, error) {
	if len(resources) == 0 {
		return []Document{}, nil
	}

	var documents []Document
	for _, resource := range resources {
		datasetID, collectionID, documentID, err := ParseURI(resource.URI)
		if err != nil {
			p.log.WithError(err).WithField("uri", resource.URI).Error("Skipping resource with bad URI")
			continue
		}

		var docs []Document
		switch {
		case documentID != "":
			docs, err = p.fetchDataDetail(ctx, documentID, resource)
		case collectionID != "":
			docs, err = p.fetchCollectionData(ctx, collectionID, query, resource)
		default:
			docs, err = p.fetchFromDataset(ctx, datasetID, query, resource)
		}
		if err != nil {
			p.log.WithError(err).WithField("uri", resource.URI).Error("Failed to retrieve from resource")
			continue
		}
		documents = append(documents, docs...)
	}

	p.log.WithFields(logrus.Fields{
		"query": query,
		"count": len(documents),
	}).Info("Retrieved relevant documents")
	return documents, nil
}

// dataItem is a single Q/A record as FastGPT returns it
type dataItem struct {
	ID         string `json:"_id"`
	Q          string `json:"q"`
	A          string `json:"a"`
	Content    string `json:"content"`
	ChunkIndex int    `json:"chunkIndex"`
	SourceName string `json:"sourceName"`
}

func (d dataItem) text() string {
	content := d.Q
	if content == "" {
		content = d.Content
	}
	if d.A != "" {
		content = content + "\n\nAnswer: " + d.A
	}
	return content
}

func (p *FastGPTProvider) fetchDataDetail(ctx context.Context, documentID string, resource Resource) ([]Document, error) {
	params := url.Values{}
	params.Set("id", documentID)

	data, err := p.do(ctx, http.MethodGet, p.cfg.DataDetailPath, params, nil)
	if err != nil {
		return nil, err
	}

	var item dataItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to decode data detail: %w", err)
	}

	content := item.text()
	if content == "" {
		return nil, nil
	}

	title := item.SourceName
	if title == "" {
		title = resource.Title
	}
	if title == "" {
		title = "Document " + documentID
	}

	return []Document{{
		ID:     documentID,
		Title:  title,
		Chunks: []Chunk{{Content: content, Similarity: 1.0}},
	}}, nil
}

func (p *FastGPTProvider) fetchCollectionData(ctx context.Context, collectionID, query string, resource Resource) ([]Document, error) {
	collectionName := resource.Title
	if detail, err := p.do(ctx, http.MethodGet, p.cfg.CollectionDetailPath, url.Values{"id": []string{collectionID}}, nil); err == nil {
		var info struct {
			Name string `json:"name"`
		}
		if json.Unmarshal(detail, &info) == nil && info.Name != "" {
			collectionName = info.Name
		}
	} else {
		p.log.WithError(err).Warn("Failed to get collection detail, keeping resource title")
	}

	payload := map[string]interface{}{
		"offset":       0,
		"pageSize":     p.cfg.PageSize,
		"collectionId": collectionID,
		"searchText":   query,
	}

	data, err := p.do(ctx, http.MethodPost, p.cfg.CollectionDataListPath, nil, payload)
	if err != nil {
		return nil, err
	}

	var page struct {
		List []dataItem `json:"list"`
	}
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("failed to decode collection data list: %w", err)
	}

	var documents []Document
	for _, item := range page.List {
		content := item.text()
		if item.ID == "" || content == "" {
			continue
		}
		documents = append(documents, Document{
			ID:     item.ID,
			Title:  fmt.Sprintf("%s - Item %d", collectionName, item.ChunkIndex),
			Chunks: []Chunk{{Content: content, Similarity: 1.0}},
		})
	}
	return documents, nil
}

func (p *FastGPTProvider) fetchFromDataset(ctx context.Context, datasetID, query string, resource Resource) ([]Document, error) {
	payload := map[string]interface{}{
		"question":   query,
		"datasetIds": []string{datasetID},
		"topK":       p.cfg.PageSize,
	}

	data, err := p.do(ctx, http.MethodPost, p.cfg.RetrievePath, nil, payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		Documents []retrievedChunk `json:"documents"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode retrieve response: %w", err)
	}

	// Group chunks by document, keeping first-seen order
	var order []string
	docs := make(map[string]*Document)
	for _, chunk := range result.Documents {
		if chunk.DocID == "" {
			p.log.Warn("Skipping chunk without document ID")
			continue
		}
		doc, ok := docs[chunk.DocID]
		if !ok {
			title := chunk.DocName
			if title == "" {
				title = resource.Title
			}
			if title == "" {
				title = "Document " + chunk.DocID
			}
			doc = &Document{ID: chunk.DocID, Title: title}
			docs[chunk.DocID] = doc
			order = append(order, chunk.DocID)
		}
		doc.Chunks = append(doc.Chunks, Chunk{Content: chunk.Content, Similarity: chunk.Score})
	}

	documents := make([]Document, 0, len(order))
	for _, id := range order {
		documents = append(documents, *docs[id])
	}
	return documents, nil
}

type retrievedChunk struct {
	DocID   string  `json:"doc_id"`
	DocName string  `json:"doc_name"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}
