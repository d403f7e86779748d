// Package rag answers questions from retrieved document chunks and an LLM.
package rag

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/ekisa-team/campus-assistant/internal/embedding"
	"github.com/ekisa-team/campus-assistant/internal/vectorstore"
)

// DefaultTopK is the number of chunks placed in the prompt.
const DefaultTopK = 3

const promptTemplate = `
You are a helpful college assistant. Based on the provided context, please answer the question.
If the information is not in the context, state that you don't have enough information to answer.

Context:
{{ join .Context "\n\n" }}

Question:
{{ .Question }}
`

var prompt = template.Must(template.New("rag").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(promptTemplate))

// Completer generates text for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Retriever returns the chunks most similar to a question.
type Retriever struct {
	index    *vectorstore.Index
	embedder embedding.Embedder
	k        int
}

// NewRetriever creates a retriever returning k chunks (DefaultTopK when k <= 0).
func NewRetriever(index *vectorstore.Index, embedder embedding.Embedder, k int) *Retriever {
	if k <= 0 {
		k = DefaultTopK
	}
	return &Retriever{index: index, embedder: embedder, k: k}
}

// Retrieve embeds the question and searches the index.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]vectorstore.Chunk, error) {
	vecs, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	results, err := r.index.Search(vecs[0], r.k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	chunks := make([]vectorstore.Chunk, len(results))
	for i, res := range results {
		chunks[i] = res.Chunk
	}

	return chunks, nil
}

// Chain is retrieval, prompt, completion and trimming in sequence.
type Chain struct {
	retriever *Retriever
	llm       Completer
}

// NewChain creates a chain.
func NewChain(retriever *Retriever, llm Completer) *Chain {
	return &Chain{retriever: retriever, llm: llm}
}

// Invoke answers a question from the knowledge base.
func (c *Chain) Invoke(ctx context.Context, question string) (string, error) {
	chunks, err := c.retriever.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}

	text, err := BuildPrompt(question, chunks)
	if err != nil {
		return "", err
	}

	slog.Debug("Invoking LLM", "chunks", len(chunks), "prompt_bytes", len(text))

	answer, err := c.llm.Complete(ctx, text)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}

	return strings.TrimSpace(answer), nil
}

// BuildPrompt renders the prompt for a question and its context chunks.
func BuildPrompt(question string, chunks []vectorstore.Chunk) (string, error) {
	contents := make([]string, len(chunks))
	for i, ch := range chunks {
		contents[i] = ch.Content
	}

	var buf bytes.Buffer
	if err := prompt.Execute(&buf, map[string]any{
		"Context":  contents,
		"Question": question,
	}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	return buf.String(), nil
}
