package vector_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/semsearch/pkg/vector"
)

var _ = Describe("ValidateDocuments", func() {
	It("accepts documents with matching dimensions", func() {
		docs := []vector.NewDocument{
			{Content: "a", Embedding: []float32{1, 0}},
			{Content: "b", Embedding: []float32{0, 1}},
		}
		Expect(vector.ValidateDocuments(docs, 2)).To(Succeed())
	})

	It("accepts documents that are not embedded yet", func() {
		docs := []vector.NewDocument{{Content: "a"}}
		Expect(vector.ValidateDocuments(docs, 2)).To(Succeed())
	})

	It("rejects blank content", func() {
		docs := []vector.NewDocument{{Content: "  ", Embedding: []float32{1, 0}}}
		Expect(vector.ValidateDocuments(docs, 2)).To(MatchError(vector.ErrEmptyContent))
	})

	It("rejects a dimension mismatch", func() {
		docs := []vector.NewDocument{
			{Content: "a", Embedding: []float32{1, 0}},
			{Content: "b", Embedding: []float32{0, 1, 0}},
		}
		err := vector.ValidateDocuments(docs, 2)
		Expect(err).To(MatchError(vector.ErrDimensionMismatch))
		Expect(err.Error()).To(ContainSubstring("document 2"))
	})

	It("skips the length check when dimensions are unset", func() {
		docs := []vector.NewDocument{{Content: "a", Embedding: []float32{1, 0, 0}}}
		Expect(vector.ValidateDocuments(docs, 0)).To(Succeed())
	})
})
