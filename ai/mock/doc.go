// Package mock provides a test double implementation of ai.Embedder.
//
// The mock allows tests to run without external embedding services and
// enables controlled, deterministic behavior. It is safe for concurrent
// use, so single-flight and worker-pool behavior can be asserted with
// call counts.
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//	count := embedder.CallCount()
//
// By default the mock returns deterministic vectors derived from a hash
// of the input text.
package mock
