package retrieval

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Chunk is a scored piece of retrieved content
type Chunk struct {
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// Document groups retrieved chunks under their source document
type Document struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Chunks []Chunk `json:"chunks"`
}

// Resource identifies a queryable knowledge base, addressed by a rag:// URI
type Resource struct {
	URI         string `json:"uri"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Retriever is a knowledge-base provider for conversation enrichment
type Retriever interface {
	ListResources(ctx context.Context, query string) ([]Resource, error)
	QueryRelevantDocuments(ctx context.Context, query string, resources []Resource) ([]Document, error)
}

var bareIDPattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// ParseURI extracts dataset, collection and document IDs from a resource URI.
// Accepted forms:
//
//	rag://dataset/{datasetID}#documentID
//	rag://dataset/{datasetID}/collection/{collectionID}#documentID
//	a bare dataset ID (with or without a leading slash)
func ParseURI(uri string) (datasetID, collectionID, documentID string, err error) {
	parsed, parseErr := url.Parse(uri)
	if parseErr != nil {
		return "", "", "", fmt.Errorf("invalid resource URI %q: %w", uri, parseErr)
	}

	if parsed.Scheme != "rag" {
		// A bare dataset ID is accepted for convenience
		id := strings.Trim(uri, "/")
		if bareIDPattern.MatchString(id) {
			return id, "", "", nil
		}
		return "", "", "", fmt.Errorf("invalid URI scheme %q, expected rag", parsed.Scheme)
	}

	// url.Parse puts "dataset" in Host for rag://dataset/... URIs
	parts := []string{}
	if parsed.Host != "" {
		parts = append(parts, parsed.Host)
	}
	parts = append(parts, strings.FieldsFunc(parsed.Path, func(r rune) bool { return r == '/' })...)

	switch {
	case len(parts) == 1:
		return parts[0], "", parsed.Fragment, nil
	case len(parts) >= 2 && parts[0] == "dataset":
		datasetID = parts[1]
		if len(parts) >= 4 && parts[2] == "collection" {
			collectionID = parts[3]
		}
		return datasetID, collectionID, parsed.Fragment, nil
	default:
		return "", "", "", fmt.Errorf("invalid URI path %q", parsed.Path)
	}
}
