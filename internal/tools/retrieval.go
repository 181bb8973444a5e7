package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/oraculo-ai/oraculo/internal/domain"
)

const knowledgeSearchName = "knowledge_search"

// NoInternalContext is returned to the model when the knowledge base has
// nothing relevant or the vector store is unreachable.
const NoInternalContext = "Nenhuma informação relevante encontrada nos documentos internos."

// Retriever is implemented by the knowledge retrieval service.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.RetrievedChunk, error)
}

// KnowledgeSearch exposes the internal document store as an agent tool.
type KnowledgeSearch struct {
	retriever Retriever
}

func NewKnowledgeSearch(retriever Retriever) *KnowledgeSearch {
	return &KnowledgeSearch{retriever: retriever}
}

func (k *KnowledgeSearch) Name() string { return knowledgeSearchName }

func (k *KnowledgeSearch) Description() string {
	return "Use para consultar informações de relatórios Focus e COPOM armazenados internamente."
}

func (k *KnowledgeSearch) Parameters() map[string]any {
	return queryParameters("Pergunta a buscar nos documentos internos.")
}

func (k *KnowledgeSearch) Call(ctx context.Context, args json.RawMessage) (string, error) {
	query, err := decodeQuery(knowledgeSearchName, args)
	if err != nil {
		return "", err
	}

	chunks, err := k.retriever.Retrieve(ctx, query)
	if err != nil {
		// A flaky vector store degrades to "nothing found" rather than
		// failing the whole agent turn.
		if errors.Is(err, domain.ErrRetrievalUnavailable) {
			return NoInternalContext, nil
		}
		return "", NewToolError(knowledgeSearchName, KindUnavailable, "retrieval failed", err)
	}

	if len(chunks) == 0 {
		return NoInternalContext, nil
	}

	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Content)
	}
	return strings.Join(parts, "\n\n"), nil
}
