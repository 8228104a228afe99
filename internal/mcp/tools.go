package mcp

// Tool names in their published order.
const (
	toolSemanticSearch  = "semantic-search"
	toolProcessDocument = "process-document"
	toolListDocuments   = "list-documents"
	toolReadDocument    = "read-document"
	toolPineconeStats   = "pinecone-stats"
)

func toolNames() []string {
	return []string{
		toolSemanticSearch,
		toolProcessDocument,
		toolListDocuments,
		toolReadDocument,
		toolPineconeStats,
	}
}

// toolDefinitions returns the static MCP tool descriptors served by
// tools/list.
func toolDefinitions() []map[string]any {
	return []map[string]any{
		{
			"name":        toolSemanticSearch,
			"description": "Search stored documents by meaning. Returns the closest matches with scores and metadata.",
			"inputSchema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Text to search for",
					},
					"top_k": map[string]any{
						"type":        "integer",
						"description": "Number of results to return (default 10)",
					},
					"namespace": map[string]any{
						"type":        "string",
						"description": "Index namespace to search",
					},
					"filter": map[string]any{
						"type":        "object",
						"description": "Metadata filter applied to matches",
					},
				},
				"required": []string{"query"},
			},
		},
		{
			"name":        toolProcessDocument,
			"description": "Embed a document and store it in the Pinecone index. Generates an id when none is given.",
			"inputSchema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"text": map[string]any{
						"type":        "string",
						"description": "Document content",
					},
					"document_id": map[string]any{
						"type":        "string",
						"description": "Stable id for the document; omit to have one generated",
					},
					"title": map[string]any{
						"type":        "string",
						"description": "Human-readable title",
					},
					"metadata": map[string]any{
						"type":        "object",
						"description": "Additional metadata stored with the document",
					},
					"namespace": map[string]any{
						"type":        "string",
						"description": "Index namespace to store in",
					},
				},
				"required": []string{"text"},
			},
		},
		{
			"name":        toolListDocuments,
			"description": "List ids and titles of stored documents.",
			"inputSchema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"namespace": map[string]any{
						"type":        "string",
						"description": "Index namespace to list",
					},
					"limit": map[string]any{
						"type":        "integer",
						"description": "Maximum documents to return (default 20)",
					},
				},
			},
		},
		{
			"name":        toolReadDocument,
			"description": "Read a stored document by id, including its full text.",
			"inputSchema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"document_id": map[string]any{
						"type":        "string",
						"description": "Id of the document to read",
					},
					"namespace": map[string]any{
						"type":        "string",
						"description": "Index namespace to read from",
					},
				},
				"required": []string{"document_id"},
			},
		},
		{
			"name":        toolPineconeStats,
			"description": "Describe the Pinecone index: dimension, vector counts and namespaces.",
			"inputSchema": map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}
}
