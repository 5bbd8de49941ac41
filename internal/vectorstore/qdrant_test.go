package vectorstore

import (
	"context"
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

func TestQdrantAddress(t *testing.T) {
	tests := []struct {
		name     string
		urlStr   string
		wantErr  bool
		wantHost string
		wantPort int
	}{
		{
			name:     "valid URL",
			urlStr:   "http://localhost:6333",
			wantHost: "localhost",
			wantPort: 6334, // gRPC port is HTTP port + 1
		},
		{
			name:     "URL with custom port",
			urlStr:   "http://qdrant.internal:9000",
			wantHost: "qdrant.internal",
			wantPort: 9001,
		},
		{
			name:    "invalid URL",
			urlStr:  "://invalid",
			wantErr: true,
		},
		{
			name:     "URL without port",
			urlStr:   "http://localhost",
			wantHost: "localhost",
			wantPort: 6334,
		},
		{
			name:     "URL without hostname",
			urlStr:   "http://:6333",
			wantHost: "localhost",
			wantPort: 6334,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := qdrantAddress(tt.urlStr)
			if tt.wantErr {
				if err == nil {
					t.Error("qdrantAddress() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("qdrantAddress() unexpected error: %v", err)
			}
			if host != tt.wantHost {
				t.Errorf("Host = %v, want %v", host, tt.wantHost)
			}
			if port != tt.wantPort {
				t.Errorf("Port = %v, want %v", port, tt.wantPort)
			}
		})
	}
}

func TestNewQdrantIndex_InvalidURL(t *testing.T) {
	_, err := NewQdrantIndex("://invalid", "osha-documents")
	if err == nil {
		t.Error("NewQdrantIndex() with invalid URL should return error")
	}
}

func TestQdrantIndex_Search_InvalidK(t *testing.T) {
	index := &QdrantIndex{collection: "osha-documents"}

	ctx := context.Background()
	if _, err := index.Search(ctx, []float32{1.0, 2.0}, 0); err == nil {
		t.Error("Search() with k=0 should return error")
	}
	if _, err := index.Search(ctx, []float32{1.0, 2.0}, -1); err == nil {
		t.Error("Search() with k=-1 should return error")
	}
}

func TestConvertPayloadToMap(t *testing.T) {
	result := convertPayloadToMap(nil)
	if result == nil {
		t.Error("convertPayloadToMap() should return empty map, not nil")
	}
	if len(result) != 0 {
		t.Errorf("convertPayloadToMap() with nil should return empty map, got %d items", len(result))
	}
}

func TestScoredPointToResult(t *testing.T) {
	point := &qdrant.ScoredPoint{
		Id:    &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: "0b0e7f3c-2a51-4b43-9d0c-4f9e0f3d2a11"}},
		Score: 0.82,
		Payload: map[string]*qdrant.Value{
			FieldDocumentName: {Kind: &qdrant.Value_StringValue{StringValue: "Fall Protection.pdf"}},
			FieldPageNumber:   {Kind: &qdrant.Value_IntegerValue{IntegerValue: 12}},
			FieldSASURL:       {Kind: &qdrant.Value_StringValue{StringValue: "https://blob/fall.pdf?sig=abc"}},
		},
	}

	got := scoredPointToResult(point)

	if got.ID != "0b0e7f3c-2a51-4b43-9d0c-4f9e0f3d2a11" {
		t.Errorf("ID = %q", got.ID)
	}
	if got.Score < 0.81 || got.Score > 0.83 {
		t.Errorf("Score = %v, want ~0.82", got.Score)
	}
	if got.DocumentName != "Fall Protection.pdf" {
		t.Errorf("DocumentName = %q", got.DocumentName)
	}
	if got.PageNumber != 12 {
		t.Errorf("PageNumber = %d, want 12", got.PageNumber)
	}
	if got.SASURL != "https://blob/fall.pdf?sig=abc" {
		t.Errorf("SASURL = %q", got.SASURL)
	}
}

func TestScoredPointToResult_NumericID(t *testing.T) {
	point := &qdrant.ScoredPoint{
		Id:    &qdrant.PointId{PointIdOptions: &qdrant.PointId_Num{Num: 42}},
		Score: 0.6,
	}

	got := scoredPointToResult(point)
	if got.ID != "42" {
		t.Errorf("ID = %q, want 42", got.ID)
	}
	if got.DocumentName != "" || got.PageNumber != 0 {
		t.Errorf("missing payload should yield zero fields, got %+v", got)
	}
}
