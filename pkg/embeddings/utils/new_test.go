package embeddingutils_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/semsearch/pkg/embeddings/ollama"
	"github.com/papercomputeco/semsearch/pkg/embeddings/openai"
	embeddingutils "github.com/papercomputeco/semsearch/pkg/embeddings/utils"
)

var _ = Describe("NewEmbedder", func() {
	It("builds an ollama embedder", func() {
		emb, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: "ollama",
			TargetURL:    "http://localhost:11434",
			Model:        "nomic-embed-text",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(emb).To(BeAssignableToTypeOf(&ollama.Embedder{}))
	})

	It("builds an openai embedder", func() {
		emb, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: "openai",
			Model:        "text-embedding-3-small",
			APIKey:       "sk-test",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(emb).To(BeAssignableToTypeOf(&openai.Embedder{}))
	})

	It("rejects unknown providers", func() {
		_, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{ProviderType: "word2vec"})
		Expect(err).To(MatchError(ContainSubstring("unsupported embedding provider")))
	})
})

var _ = Describe("Shared", func() {
	It("returns one handle per provider, target and model", func() {
		a := embeddingutils.Shared(&embeddingutils.NewEmbedderOpts{ProviderType: "ollama", Model: "m1"})
		b := embeddingutils.Shared(&embeddingutils.NewEmbedderOpts{ProviderType: "ollama", Model: "m1"})
		c := embeddingutils.Shared(&embeddingutils.NewEmbedderOpts{ProviderType: "ollama", Model: "m2"})

		Expect(a).To(BeIdenticalTo(b))
		Expect(a).NotTo(BeIdenticalTo(c))
	})

	DescribeTable("keeps separate handles when any option differs",
		func(change func(o *embeddingutils.NewEmbedderOpts)) {
			o := embeddingutils.NewEmbedderOpts{
				ProviderType: "openai",
				TargetURL:    "http://localhost:8080/v1",
				Model:        "text-embedding-3-small",
				APIKey:       "sk-one",
				Dimensions:   256,
			}
			a := embeddingutils.Shared(&o)
			change(&o)
			Expect(embeddingutils.Shared(&o)).NotTo(BeIdenticalTo(a))
		},
		Entry("api key", func(o *embeddingutils.NewEmbedderOpts) { o.APIKey = "sk-two" }),
		Entry("dimensions", func(o *embeddingutils.NewEmbedderOpts) { o.Dimensions = 512 }),
		Entry("redis target", func(o *embeddingutils.NewEmbedderOpts) { o.RedisTarget = "localhost:6379" }),
		Entry("target", func(o *embeddingutils.NewEmbedderOpts) { o.TargetURL = "http://localhost:9090/v1" }),
	)

	It("hands out fresh handles after CloseShared", func() {
		o := &embeddingutils.NewEmbedderOpts{ProviderType: "ollama", Model: "reopened"}
		a := embeddingutils.Shared(o)
		Expect(embeddingutils.CloseShared()).To(Succeed())
		Expect(embeddingutils.Shared(o)).NotTo(BeIdenticalTo(a))
	})
})
