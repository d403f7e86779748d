package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ekisa-team/campus-assistant/internal/embedding"
	"github.com/ekisa-team/campus-assistant/internal/vectorstore"
)

const embedBatchSize = 32

// IndexBuilder chunks documents, embeds the chunks and writes a vector index.
type IndexBuilder struct {
	splitter *Splitter
	embedder embedding.Embedder
}

// NewIndexBuilder creates an index builder.
func NewIndexBuilder(splitter *Splitter, embedder embedding.Embedder) *IndexBuilder {
	return &IndexBuilder{splitter: splitter, embedder: embedder}
}

// Build indexes every document under dataDir and saves a fresh index in outDir.
// It returns the number of chunks written.
func (b *IndexBuilder) Build(ctx context.Context, dataDir, outDir string) (int, error) {
	docs, err := LoadDocuments(dataDir)
	if err != nil {
		return 0, err
	}
	slog.Info("Loaded documents", "count", len(docs))

	ix, err := b.Index(ctx, docs)
	if err != nil {
		return 0, err
	}

	if err := ix.Save(ctx, outDir); err != nil {
		return 0, err
	}

	slog.Info("Vector index saved", "dir", outDir, "chunks", ix.Len(), "model", ix.Model)
	return ix.Len(), nil
}

// Index splits and embeds docs into an in-memory index.
func (b *IndexBuilder) Index(ctx context.Context, docs []Document) (*vectorstore.Index, error) {
	var chunks []vectorstore.Chunk
	for _, d := range docs {
		for _, text := range b.splitter.Split(d.Content) {
			chunks = append(chunks, vectorstore.Chunk{Source: d.Source, Page: d.Page, Content: text})
		}
	}
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}
	slog.Info("Split documents", "chunks", len(chunks))

	ix := vectorstore.NewIndex(b.embedder.Model())
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		vecs, err := b.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end, err)
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("embed chunks %d-%d: got %d vectors", start, end, len(vecs))
		}

		for i := range batch {
			batch[i].Embedding = vecs[i]
		}
		if err := ix.Add(batch...); err != nil {
			return nil, err
		}
	}

	return ix, nil
}
