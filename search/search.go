// Package search maintains the in-memory full-text index over the video
// catalog.
package search

import (
	"context"
	"strings"

	bleve "github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Search is the Bleve-based video search index.
type Search struct {
	index bleve.Index
}

// Document is the document we store in Bleve per video.
type Document struct {
	// Video ID
	ID string `json:"id"`
	// Title of the video
	Title string `json:"title"`
	// TitleExact is a helper field to make exact title matches rank first
	TitleExact  string `json:"title_exact"`
	Description string `json:"description"`
	// Creator name
	Creator string `json:"creator"`
}

// New creates a new in-memory index.
func New() (*Search, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, err
	}
	return &Search{index: idx}, nil
}

// buildIndexMapping builds the Bleve index field mapping configuration.
func buildIndexMapping() mapping.IndexMapping {
	m := bleve.NewIndexMapping()

	doc := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = "en"
	// Only indexing, we retrieve IDs and fetch rows from the store.
	text.Store = false
	text.Index = true

	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"
	keyword.Store = true
	keyword.Index = true

	doc.AddFieldMappingsAt("id", keyword)
	doc.AddFieldMappingsAt("title", text)
	doc.AddFieldMappingsAt("title_exact", keyword)
	doc.AddFieldMappingsAt("description", text)
	doc.AddFieldMappingsAt("creator", text)

	m.DefaultMapping = doc
	return m
}

// Index indexes or updates a video document.
func (b *Search) Index(ctx context.Context, doc Document) error {
	doc.TitleExact = strings.ToLower(doc.Title)
	return b.index.Index(doc.ID, doc)
}

// IndexBatch indexes a slice of documents in a single batch.
func (b *Search) IndexBatch(ctx context.Context, docs []Document) error {
	batch := b.index.NewBatch()
	for _, d := range docs {
		d.TitleExact = strings.ToLower(d.Title)
		if err := batch.Index(d.ID, d); err != nil {
			return err
		}
		if batch.Size() > 1000 {
			if err := b.index.Batch(batch); err != nil {
				return err
			}
			batch = b.index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		return b.index.Batch(batch)
	}
	return nil
}

// Delete removes a video from the index.
func (b *Search) Delete(ctx context.Context, videoID string) error {
	return b.index.Delete(videoID)
}

// Query runs a fuzzy search across title, description and creator and
// returns matching video IDs, best first.
//
// - searchTerm is the raw user input.
// - size is the maximum number of results to return.
func (b *Search) Query(ctx context.Context, searchTerm string, size int) ([]string, error) {
	searchTerm = strings.ToLower(strings.TrimSpace(searchTerm))
	if searchTerm == "" {
		return nil, nil
	}

	// Weights for boosting certain query types and fields.
	const (
		boostTitleExact  = 50.0 // strongest: exact match on title_exact
		boostTitlePhrase = 12.0 // exact phrase in title
		boostTitlePrefix = 6.0  // prefix on whole query against title
		boostTitleField  = 3.0  // fuzzy/prefix on title tokens
		boostOtherFields = 1.0  // default for other fields
	)

	boolQuery := bleve.NewBooleanQuery()

	termExact := bleve.NewTermQuery(searchTerm)
	termExact.SetField("title_exact")
	termExact.SetBoost(boostTitleExact)
	boolQuery.AddShould(termExact)

	matchPhrase := bleve.NewMatchPhraseQuery(searchTerm)
	matchPhrase.SetField("title")
	matchPhrase.SetBoost(boostTitlePhrase)
	boolQuery.AddShould(matchPhrase)

	// Helps when users type the beginning of a title.
	prefixFull := bleve.NewPrefixQuery(searchTerm)
	prefixFull.SetField("title")
	prefixFull.SetBoost(boostTitlePrefix)
	boolQuery.AddShould(prefixFull)

	// Token-wise fuzzy + prefix queries across fields.
	for _, tok := range strings.Fields(searchTerm) {
		fuzz := 1
		if len(tok) >= 6 {
			fuzz = 2
		}

		for _, f := range []string{"title", "description", "creator"} {
			boost := boostOtherFields
			if f == "title" {
				boost = boostTitleField
			}

			fq := bleve.NewFuzzyQuery(tok)
			fq.SetField(f)
			fq.SetFuzziness(fuzz)
			fq.SetBoost(boost)
			boolQuery.AddShould(fq)

			pq := bleve.NewPrefixQuery(tok)
			pq.SetField(f)
			pq.SetBoost(boost)
			boolQuery.AddShould(pq)
		}
	}

	req := bleve.NewSearchRequestOptions(boolQuery, size, 0, false)
	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}
