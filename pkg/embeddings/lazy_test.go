package embeddings_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/semsearch/pkg/embeddings"
	testutils "github.com/papercomputeco/semsearch/pkg/utils/test"
	"github.com/papercomputeco/semsearch/pkg/vector"
)

var _ = Describe("Lazy", func() {
	var (
		ctx   context.Context
		inits int
		mock  *testutils.MockEmbedder
		lazy  *embeddings.Lazy
	)

	BeforeEach(func() {
		ctx = context.Background()
		inits = 0
		mock = testutils.NewMockEmbedder()
		lazy = embeddings.NewLazy(func() (embeddings.Embedder, error) {
			inits++
			return mock, nil
		})
	})

	It("does not construct the provider until first use", func() {
		Expect(inits).To(Equal(0))
		_, err := lazy.Embed(ctx, []string{"hello"})
		Expect(err).NotTo(HaveOccurred())
		Expect(inits).To(Equal(1))
	})

	It("reuses the provider across calls", func() {
		for range 3 {
			_, err := lazy.Embed(ctx, []string{"hello"})
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(inits).To(Equal(1))
		Expect(mock.Calls()).To(HaveLen(3))
	})

	It("constructs once under concurrent first use", func() {
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer GinkgoRecover()
				_, err := lazy.Embed(ctx, []string{"x"})
				Expect(err).NotTo(HaveOccurred())
			}()
		}
		wg.Wait()
		Expect(inits).To(Equal(1))
	})

	It("returns the construction error from every call", func() {
		boom := errors.New("model not found")
		failing := embeddings.NewLazy(func() (embeddings.Embedder, error) {
			inits++
			return nil, boom
		})

		_, err := failing.Embed(ctx, []string{"a"})
		Expect(err).To(MatchError(boom))
		_, err = failing.Embed(ctx, []string{"a"})
		Expect(err).To(MatchError(boom))
		Expect(inits).To(Equal(1))
	})

	It("closes the provider once constructed", func() {
		_, err := lazy.Embed(ctx, []string{"a"})
		Expect(err).NotTo(HaveOccurred())
		Expect(lazy.Close()).To(Succeed())
		Expect(mock.Closed()).To(BeTrue())
	})

	It("never constructs the provider after being closed unused", func() {
		Expect(lazy.Close()).To(Succeed())
		_, err := lazy.Embed(ctx, []string{"a"})
		Expect(err).To(MatchError(vector.ErrEmbedding))
		Expect(inits).To(Equal(0))
	})
})
