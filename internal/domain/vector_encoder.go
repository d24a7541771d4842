package domain

import (
	"context"
	"fmt"
)

// VectorEncoder turns text into fixed-length embeddings.
// Encode preserves order and returns exactly one vector per input text.
type VectorEncoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Version() string
}

// EncodeOne embeds a single text through enc.
func EncodeOne(ctx context.Context, enc VectorEncoder, text string) ([]float32, error) {
	vecs, err := enc.Encode(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, NewError(KindConnection, "encode", fmt.Errorf("expected 1 embedding, got %d", len(vecs)))
	}
	return vecs[0], nil
}
