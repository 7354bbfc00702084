package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/semsearch/pkg/embeddings/ollama"
	"github.com/papercomputeco/semsearch/pkg/vector"
)

var _ = Describe("Embedder", func() {
	var (
		server   *httptest.Server
		received map[string]any
		handler  http.HandlerFunc
		embedder *ollama.Embedder
	)

	BeforeEach(func() {
		received = nil
		handler = func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/api/embed"))
			Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())

			inputs, _ := received["input"].([]any)
			embs := make([][]float32, len(inputs))
			for i := range inputs {
				embs[i] = []float32{float32(i + 1), 0}
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": embs})
		}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))

		var err error
		embedder, err = ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	It("sends the whole batch in one request with the default model", func() {
		out, err := embedder.Embed(context.Background(), []string{"a", "b", "c"})
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(3))
		Expect(out[2]).To(Equal([]float32{3, 0}))

		Expect(received["model"]).To(Equal(ollama.DefaultEmbeddingModel))
		Expect(received["input"]).To(Equal([]any{"a", "b", "c"}))
		Expect(received["truncate"]).To(BeFalse())
	})

	It("returns an empty result without calling the server for no input", func() {
		handler = func(http.ResponseWriter, *http.Request) {
			Fail("server should not be called")
		}
		out, err := embedder.Embed(context.Background(), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(BeEmpty())
	})

	It("wraps non-200 responses as embedding errors", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"input length exceeds the context length"}`))
		}
		_, err := embedder.Embed(context.Background(), []string{"too long"})
		Expect(err).To(MatchError(vector.ErrEmbedding))
		Expect(err.Error()).To(ContainSubstring("context length"))
	})

	It("rejects responses with the wrong number of embeddings", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{{1, 0}}})
		}
		_, err := embedder.Embed(context.Background(), []string{"a", "b"})
		Expect(err).To(MatchError(vector.ErrEmbedding))
	})

	It("wraps connection failures as embedding errors", func() {
		server.Close()
		_, err := embedder.Embed(context.Background(), []string{"a"})
		Expect(err).To(MatchError(vector.ErrEmbedding))
	})
})
