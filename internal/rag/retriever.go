// Package rag retrieves historical incident solutions. The store keeps
// resolved incidents in FalkorDB; retrieval filters by issue type and
// environment, scores similarity by token overlap, and caches results.
package rag

import (
	"context"

	"github.com/moolen/kairos/internal/triage/model"
)

// Retriever finds historical solutions for a problem description.
type Retriever interface {
	// FindSolutions returns the best-matching historical solutions. A run
	// with no matches returns a RAGSolution with SolutionsFound=false, not
	// an error; errors mean the store itself is unreachable.
	FindSolutions(ctx context.Context, problem string, ragCtx *model.RAGContext) (*model.RAGSolution, error)
}

// NopRetriever is used when no historical store is configured.
type NopRetriever struct{}

func (NopRetriever) FindSolutions(ctx context.Context, problem string, ragCtx *model.RAGContext) (*model.RAGSolution, error) {
	return model.NoRAGSolution("Historical solution store not configured"), nil
}
