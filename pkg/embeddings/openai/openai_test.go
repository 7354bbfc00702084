package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/semsearch/pkg/embeddings/openai"
	"github.com/papercomputeco/semsearch/pkg/vector"
)

type embeddingItem struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingResponse struct {
	Object string          `json:"object"`
	Data   []embeddingItem `json:"data"`
	Model  string          `json:"model"`
}

var _ = Describe("Embedder", func() {
	var (
		server  *httptest.Server
		handler http.HandlerFunc
		gotBody map[string]any
		gotAuth string
	)

	BeforeEach(func() {
		gotBody = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newEmbedder := func(dims int) *openai.Embedder {
		e, err := openai.NewEmbedder(openai.Config{
			APIKey:     "test-key",
			BaseURL:    server.URL,
			Model:      "nomic-embed-text-v1.5",
			Dimensions: dims,
		})
		Expect(err).NotTo(HaveOccurred())
		return e
	}

	It("requires a model", func() {
		_, err := openai.NewEmbedder(openai.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("returns embeddings in input order even when the server reorders them", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_ = json.NewEncoder(w).Encode(embeddingResponse{
				Object: "list",
				Model:  "nomic-embed-text-v1.5",
				Data: []embeddingItem{
					{Object: "embedding", Embedding: []float32{0, 1}, Index: 1},
					{Object: "embedding", Embedding: []float32{1, 0}, Index: 0},
				},
			})
		}

		out, err := newEmbedder(2).Embed(context.Background(), []string{"first", "second"})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal([][]float32{{1, 0}, {0, 1}}))
		Expect(gotAuth).To(Equal("Bearer test-key"))
		Expect(gotBody["model"]).To(Equal("nomic-embed-text-v1.5"))
		Expect(gotBody["dimensions"]).To(BeNumerically("==", 2))
	})

	It("rejects short responses", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(embeddingResponse{
				Data: []embeddingItem{{Embedding: []float32{1, 0}, Index: 0}},
			})
		}

		_, err := newEmbedder(0).Embed(context.Background(), []string{"a", "b"})
		Expect(err).To(MatchError(vector.ErrEmbedding))
	})

	It("maps API errors to embedding errors", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"maximum context length exceeded","type":"invalid_request_error"}}`))
		}

		_, err := newEmbedder(0).Embed(context.Background(), []string{"a"})
		Expect(err).To(MatchError(vector.ErrEmbedding))
		Expect(err.Error()).To(ContainSubstring("maximum context length"))
	})
})
