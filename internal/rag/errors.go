package rag

import "errors"

// Failure classes for the query path. Validation failures are the only ones
// surfaced to the caller as hard errors; the other three are absorbed into
// the fallback response but logged distinctly for operability.
var (
	ErrValidation  = errors.New("invalid query")
	ErrEmbedding   = errors.New("embedding service failure")
	ErrVectorStore = errors.New("vector store failure")
	ErrGeneration  = errors.New("generation failure")
)

// Stage names the states of the query pipeline. A request moves
// Validating -> EmbeddingQuery -> Retrieving -> BuildingPrompt ->
// Generating -> Completed; any of the middle four can transition to
// ErrorFallback instead.
type Stage string

const (
	StageValidating     Stage = "validating"
	StageEmbeddingQuery Stage = "embedding_query"
	StageRetrieving     Stage = "retrieving"
	StageBuildingPrompt Stage = "building_prompt"
	StageGenerating     Stage = "generating"
	StageCompleted      Stage = "completed"
	StageErrorFallback  Stage = "error_fallback"
)

// classify maps a stage to the failure class logged when it fails.
func classify(stage Stage) error {
	switch stage {
	case StageEmbeddingQuery:
		return ErrEmbedding
	case StageRetrieving:
		return ErrVectorStore
	default:
		return ErrGeneration
	}
}
