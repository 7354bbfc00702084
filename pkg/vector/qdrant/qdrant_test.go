package qdrant_test

import (
	"context"
	"fmt"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/semsearch/pkg/logger"
	"github.com/papercomputeco/semsearch/pkg/vector"
	"github.com/papercomputeco/semsearch/pkg/vector/qdrant"
)

// target returns the Qdrant gRPC address from environment or skips the test.
func target() string {
	t := os.Getenv("SEMSEARCH_TEST_QDRANT_TARGET")
	if t == "" {
		Skip("SEMSEARCH_TEST_QDRANT_TARGET not set, skipping Qdrant tests")
	}
	return t
}

var _ = Describe("NewDriver", func() {
	It("requires a target", func() {
		_, err := qdrant.NewDriver(context.Background(), qdrant.Config{Dimensions: 2}, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("target is required")))
	})

	It("requires dimensions", func() {
		_, err := qdrant.NewDriver(context.Background(), qdrant.Config{Target: "localhost"}, logger.Nop())
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Driver", func() {
	var (
		ctx    context.Context
		driver *qdrant.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		addr := target()

		var err error
		driver, err = qdrant.NewDriver(ctx, qdrant.Config{
			Target:     addr,
			Collection: fmt.Sprintf("semsearch_test_%d", time.Now().UnixNano()),
			Dimensions: 2,
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
		}
	})

	It("starts empty", func() {
		n, err := driver.Count(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(0))
	})

	It("round trips documents with IDs 1..N", func() {
		Expect(driver.ReplaceAll(ctx, []vector.NewDocument{
			{Content: "a", Embedding: []float32{1, 0}},
			{Content: "b", Embedding: []float32{0, 1}},
		})).To(Succeed())

		docs, err := driver.ScanAll(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(2))
		Expect(docs[0].ID).To(Equal(int64(1)))
		Expect(docs[0].Content).To(Equal("a"))
		Expect(docs[1].ID).To(Equal(int64(2)))
		Expect(docs[1].Content).To(Equal("b"))
	})

	It("serves the new set after a replace", func() {
		Expect(driver.ReplaceAll(ctx, []vector.NewDocument{
			{Content: "old", Embedding: []float32{1, 0}},
		})).To(Succeed())
		Expect(driver.ReplaceAll(ctx, []vector.NewDocument{
			{Content: "new-1", Embedding: []float32{0, 1}},
			{Content: "new-2", Embedding: []float32{1, 0}},
		})).To(Succeed())

		results, err := driver.Query(ctx, []float32{0, 1}, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].Content).To(Equal("new-1"))
		Expect(results[0].Score).To(BeNumerically("~", 1, 1e-5))
	})

	It("pages through more points than one scroll returns", func() {
		docs := make([]vector.NewDocument, 600)
		for i := range docs {
			docs[i] = vector.NewDocument{Content: fmt.Sprintf("doc-%d", i+1), Embedding: []float32{1, float32(i)}}
		}
		Expect(driver.ReplaceAll(ctx, docs)).To(Succeed())

		got, err := driver.ScanAll(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(600))
		for i, d := range got {
			Expect(d.ID).To(Equal(int64(i + 1)))
		}
	})

	It("scans one complete set while replaces run", func() {
		set := func(n int) []vector.NewDocument {
			docs := make([]vector.NewDocument, n)
			for i := range docs {
				docs[i] = vector.NewDocument{Content: "x", Embedding: []float32{1, 0}}
			}
			return docs
		}
		Expect(driver.ReplaceAll(ctx, set(4))).To(Succeed())

		done := make(chan struct{})
		go func() {
			defer GinkgoRecover()
			defer close(done)
			for i := range 6 {
				Expect(driver.ReplaceAll(ctx, set([]int{10, 4}[i%2]))).To(Succeed())
			}
		}()

	scan:
		for {
			select {
			case <-done:
				break scan
			default:
			}
			docs, err := driver.ScanAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(len(docs)).To(BeElementOf(4, 10))
		}
	})

	It("refuses documents without embeddings", func() {
		err := driver.ReplaceAll(ctx, []vector.NewDocument{{Content: "pending"}})
		Expect(err).To(HaveOccurred())
	})
})
