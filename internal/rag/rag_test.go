package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ekisa-team/campus-assistant/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// keywordEmbedder maps text onto three keyword axes.
type keywordEmbedder struct{}

func (keywordEmbedder) Model() string { return "keywords" }

func (keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		t = strings.ToLower(t)
		v := []float32{0.01, 0.01, 0.01}
		for j, kw := range []string{"library", "exam", "canteen"} {
			if strings.Contains(t, kw) {
				v[j] = 1
			}
		}
		out[i] = v
	}
	return out, nil
}

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func testIndex(t *testing.T) *vectorstore.Index {
	t.Helper()

	ix := vectorstore.NewIndex("keywords")
	require.NoError(t, ix.Add(
		vectorstore.Chunk{Source: "a.pdf", Page: 1, Content: "The library opens at 9 AM.", Embedding: []float32{1, 0, 0}},
		vectorstore.Chunk{Source: "a.pdf", Page: 2, Content: "Exams start on 10 March.", Embedding: []float32{0, 1, 0}},
		vectorstore.Chunk{Source: "b.xlsx", Page: 1, Content: "The canteen serves lunch at 1 PM.", Embedding: []float32{0, 0, 1}},
		vectorstore.Chunk{Source: "b.xlsx", Page: 2, Content: "Library fines are 5 rupees a day.", Embedding: []float32{0.9, 0, 0.1}},
	))
	return ix
}

func TestRetriever_TopK(t *testing.T) {
	r := NewRetriever(testIndex(t), keywordEmbedder{}, 2)

	chunks, err := r.Retrieve(context.Background(), "When does the library open?")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "The library opens at 9 AM.", chunks[0].Content)
	assert.Equal(t, "Library fines are 5 rupees a day.", chunks[1].Content)
}

func TestChain_Invoke(t *testing.T) {
	llm := new(MockCompleter)
	llm.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "You are a helpful college assistant.") &&
			strings.Contains(p, "Context:\nExams start on 10 March.") &&
			strings.Contains(p, "Question:\nWhen is the exam?")
	})).Return("\n  Exams start on 10 March.  \n", nil).Once()

	chain := NewChain(NewRetriever(testIndex(t), keywordEmbedder{}, 0), llm)
	answer, err := chain.Invoke(context.Background(), "When is the exam?")

	require.NoError(t, err)
	assert.Equal(t, "Exams start on 10 March.", answer)
	llm.AssertExpectations(t)
}

func TestChain_InvokeLLMError(t *testing.T) {
	llm := new(MockCompleter)
	llm.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded")).Once()

	_, err := NewChain(NewRetriever(testIndex(t), keywordEmbedder{}, 3), llm).Invoke(context.Background(), "canteen?")
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestBuildPrompt(t *testing.T) {
	p, err := BuildPrompt("Q?", []vectorstore.Chunk{{Content: "one"}, {Content: "two"}})
	require.NoError(t, err)
	assert.Contains(t, p, "Context:\none\n\ntwo\n\nQuestion:\nQ?")
	assert.Contains(t, p, "state that you don't have enough information to answer.")
}

type mapStore struct {
	data    map[string]string
	failGet bool
	sets    int
}

func (m *mapStore) Get(_ context.Context, q string) (string, bool, error) {
	if m.failGet {
		return "", false, errors.New("redis down")
	}
	v, ok := m.data[q]
	return v, ok, nil
}

func (m *mapStore) Set(_ context.Context, q, a string) error {
	m.sets++
	m.data[q] = a
	return nil
}

type countingInvoker struct {
	calls int
}

func (c *countingInvoker) Invoke(_ context.Context, q string) (string, error) {
	c.calls++
	return "answer to " + q, nil
}

func TestCachedChain(t *testing.T) {
	next := &countingInvoker{}
	store := &mapStore{data: map[string]string{}}
	c := WithCache(next, store)

	for range 3 {
		a, err := c.Invoke(context.Background(), "library hours")
		require.NoError(t, err)
		assert.Equal(t, "answer to library hours", a)
	}
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, 1, store.sets)

	store.failGet = true
	a, err := c.Invoke(context.Background(), "library hours")
	require.NoError(t, err)
	assert.Equal(t, "answer to library hours", a)
	assert.Equal(t, 2, next.calls)
}
