package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for task documents.
//
// The mapping is designed with these priorities:
//  1. Fast full-text search on titles with English stemming
//  2. Description search without storing the full text
//  3. Exact keyword matching for workspace/board/priority/tag filters
//  4. Numeric timestamps for recency sorting
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// --- Text fields (full-text searchable) ---

	// Title - primary search target, stored for result rendering
	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	// Description - searchable but not stored (can be large)
	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	descFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	// --- Keyword fields (exact match, filterable) ---

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	workspaceFieldMapping := bleve.NewTextFieldMapping()
	workspaceFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("workspace_id", workspaceFieldMapping)

	boardFieldMapping := bleve.NewTextFieldMapping()
	boardFieldMapping.Analyzer = keyword.Name
	boardFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("board_id", boardFieldMapping)

	columnFieldMapping := bleve.NewTextFieldMapping()
	columnFieldMapping.Analyzer = keyword.Name
	columnFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("column_id", columnFieldMapping)

	priorityFieldMapping := bleve.NewTextFieldMapping()
	priorityFieldMapping.Analyzer = keyword.Name
	priorityFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("priority", priorityFieldMapping)

	// Tags - keyword analyzer keeps folded names intact for exact filtering
	tagsFieldMapping := bleve.NewTextFieldMapping()
	tagsFieldMapping.Analyzer = keyword.Name
	tagsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("tags", tagsFieldMapping)

	assigneesFieldMapping := bleve.NewTextFieldMapping()
	assigneesFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("assignees", assigneesFieldMapping)

	// --- Numeric fields (sorting) ---

	createdAtFieldMapping := bleve.NewNumericFieldMapping()
	createdAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdAtFieldMapping)

	updatedAtFieldMapping := bleve.NewNumericFieldMapping()
	updatedAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("updated_at", updatedAtFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
