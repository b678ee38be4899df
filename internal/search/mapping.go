package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for category documents.
//
// Names get full-text treatment with English stemming; codes and structural
// fields stay exact-match keywords so prefix and filter queries behave
// predictably.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// Name - primary search target.
	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = en.AnalyzerName
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	// Code - exact keyword; indexed lowercased for case-insensitive prefix
	// queries.
	codeFieldMapping := bleve.NewTextFieldMapping()
	codeFieldMapping.Analyzer = keyword.Name
	codeFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("code", codeFieldMapping)

	// ID - stored but not analyzed.
	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	// Type - for filtering by category type.
	typeFieldMapping := bleve.NewTextFieldMapping()
	typeFieldMapping.Analyzer = keyword.Name
	typeFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("type", typeFieldMapping)

	// Path - keyword for hierarchical prefix filtering.
	pathFieldMapping := bleve.NewTextFieldMapping()
	pathFieldMapping.Analyzer = keyword.Name
	pathFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("path", pathFieldMapping)

	// Depth - numeric for range filtering.
	depthFieldMapping := bleve.NewNumericFieldMapping()
	depthFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("depth", depthFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
