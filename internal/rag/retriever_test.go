package rag_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"safety-insight/internal/rag"
	"safety-insight/internal/rag/mocks"
	"safety-insight/internal/vectorstore"
	vsmocks "safety-insight/internal/vectorstore/mocks"

	"go.uber.org/mock/gomock"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRetriever_Retrieve(t *testing.T) {
	vector := []float32{0.1, 0.2, 0.3}

	tests := []struct {
		name      string
		mockSetup func(e *mocks.MockEmbedder, idx *vsmocks.MockIndex)
		want      []rag.DocumentReference
	}{
		{
			name: "keeps hits at or above threshold in index order",
			mockSetup: func(e *mocks.MockEmbedder, idx *vsmocks.MockIndex) {
				e.EXPECT().Embed(gomock.Any(), "What is PPE?").Return(vector, nil).Times(1)
				idx.EXPECT().Search(gomock.Any(), vector, 5).Return([]vectorstore.SearchResult{
					{Score: 0.9, DocumentName: "PPE.pdf", PageNumber: 2, SASURL: "https://blob/ppe.pdf"},
					{Score: 0.3, DocumentName: "Noise.pdf", PageNumber: 8, SASURL: "https://blob/noise.pdf"},
					{Score: 0.5, DocumentName: "Gloves.pdf", PageNumber: 1, SASURL: "https://blob/gloves.pdf"},
				}, nil).Times(1)
			},
			want: []rag.DocumentReference{
				{Name: "PPE.pdf", Page: 2, URL: "https://blob/ppe.pdf"},
				{Name: "Gloves.pdf", Page: 1, URL: "https://blob/gloves.pdf"},
			},
		},
		{
			name: "all hits below threshold",
			mockSetup: func(e *mocks.MockEmbedder, idx *vsmocks.MockIndex) {
				e.EXPECT().Embed(gomock.Any(), gomock.Any()).Return(vector, nil)
				idx.EXPECT().Search(gomock.Any(), gomock.Any(), 5).Return([]vectorstore.SearchResult{
					{Score: 0.49, DocumentName: "Noise.pdf"},
				}, nil)
			},
			want: []rag.DocumentReference{},
		},
		{
			name: "embedding failure yields empty list without search",
			mockSetup: func(e *mocks.MockEmbedder, idx *vsmocks.MockIndex) {
				e.EXPECT().Embed(gomock.Any(), gomock.Any()).Return(nil, errors.New("embedding service down"))
			},
			want: []rag.DocumentReference{},
		},
		{
			name: "search failure yields empty list",
			mockSetup: func(e *mocks.MockEmbedder, idx *vsmocks.MockIndex) {
				e.EXPECT().Embed(gomock.Any(), gomock.Any()).Return(vector, nil)
				idx.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("index unreachable"))
			},
			want: []rag.DocumentReference{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			embedder := mocks.NewMockEmbedder(ctrl)
			index := vsmocks.NewMockIndex(ctrl)
			tt.mockSetup(embedder, index)

			r := rag.NewRetriever(embedder, index, 5, 0.5)
			got := r.Retrieve(context.Background(), "What is PPE?")

			if got == nil {
				t.Fatal("Retrieve() returned nil, want non-nil slice")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Retrieve() returned %d refs, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ref[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRetriever_Retrieve_UsesConfiguredTopK(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	embedder := mocks.NewMockEmbedder(ctrl)
	index := vsmocks.NewMockIndex(ctrl)
	embedder.EXPECT().Embed(gomock.Any(), gomock.Any()).Return([]float32{1}, nil)
	index.EXPECT().Search(gomock.Any(), gomock.Any(), 3).Return(nil, nil)

	got := rag.NewRetriever(embedder, index, 3, 0.5).Retrieve(context.Background(), "ladders")
	if len(got) != 0 {
		t.Errorf("Retrieve() = %+v, want empty", got)
	}
}
