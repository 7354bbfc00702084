package sqlitevec_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/semsearch/pkg/logger"
	"github.com/papercomputeco/semsearch/pkg/vector"
	"github.com/papercomputeco/semsearch/pkg/vector/sqlitevec"
)

func newDriver(dims uint) *sqlitevec.SQLiteVecDriver {
	driver, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
		DBPath:     ":memory:",
		Dimensions: dims,
	}, logger.Nop())
	Expect(err).NotTo(HaveOccurred())
	return driver
}

var _ = Describe("SQLiteVecDriver", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("NewSQLiteVecDriver", func() {
		It("should return an error when DBPath is empty", func() {
			_, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{DBPath: ""}, logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("database path is required")))
		})

		It("should create a driver with an in-memory database", func() {
			driver := newDriver(4)
			Expect(driver.Close()).To(Succeed())
		})

		It("should error when dimension not specified", func() {
			_, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{DBPath: ":memory:"}, logger.Nop())
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ReplaceAll and ScanAll", func() {
		var driver *sqlitevec.SQLiteVecDriver

		BeforeEach(func() {
			driver = newDriver(2)
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("returns an empty set before anything is stored", func() {
			docs, err := driver.ScanAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(BeEmpty())
		})

		It("assigns IDs 1..N in input order", func() {
			Expect(driver.ReplaceAll(ctx, []vector.NewDocument{
				{Content: "first", Embedding: []float32{1, 0}},
				{Content: "second", Embedding: []float32{0, 1}},
				{Content: "third", Embedding: []float32{0.6, 0.8}},
			})).To(Succeed())

			docs, err := driver.ScanAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(Equal([]vector.Document{
				{ID: 1, Content: "first", Embedding: []float32{1, 0}},
				{ID: 2, Content: "second", Embedding: []float32{0, 1}},
				{ID: 3, Content: "third", Embedding: []float32{0.6, 0.8}},
			}))
		})

		It("discards the previous set and restarts IDs", func() {
			Expect(driver.ReplaceAll(ctx, []vector.NewDocument{
				{Content: "old-1", Embedding: []float32{1, 0}},
				{Content: "old-2", Embedding: []float32{0, 1}},
			})).To(Succeed())
			Expect(driver.ReplaceAll(ctx, []vector.NewDocument{
				{Content: "new", Embedding: []float32{0, 1}},
			})).To(Succeed())

			docs, err := driver.ScanAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].ID).To(Equal(int64(1)))
			Expect(docs[0].Content).To(Equal("new"))
		})

		It("replaces with an empty set", func() {
			Expect(driver.ReplaceAll(ctx, []vector.NewDocument{
				{Content: "x", Embedding: []float32{1, 0}},
			})).To(Succeed())
			Expect(driver.ReplaceAll(ctx, nil)).To(Succeed())

			n, err := driver.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(0))
		})

		It("stores documents without embeddings", func() {
			Expect(driver.ReplaceAll(ctx, []vector.NewDocument{{Content: "pending"}})).To(Succeed())

			docs, err := driver.ScanAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].Embedding).To(BeNil())
		})

		It("rejects wrong dimensions without touching stored data", func() {
			Expect(driver.ReplaceAll(ctx, []vector.NewDocument{
				{Content: "kept", Embedding: []float32{1, 0}},
			})).To(Succeed())

			err := driver.ReplaceAll(ctx, []vector.NewDocument{
				{Content: "bad", Embedding: []float32{1, 0, 0}},
			})
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))

			docs, err := driver.ScanAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].Content).To(Equal("kept"))
		})

		It("rejects empty content", func() {
			err := driver.ReplaceAll(ctx, []vector.NewDocument{{Content: "  ", Embedding: []float32{1, 0}}})
			Expect(err).To(MatchError(vector.ErrEmptyContent))
		})

		It("persists to a database file", func() {
			path := filepath.Join(GinkgoT().TempDir(), "semsearch.db")
			d1, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{DBPath: path, Dimensions: 2}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			Expect(d1.ReplaceAll(ctx, []vector.NewDocument{{Content: "durable", Embedding: []float32{1, 0}}})).To(Succeed())
			Expect(d1.Close()).To(Succeed())

			d2, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{DBPath: path, Dimensions: 2}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			defer d2.Close()

			docs, err := d2.ScanAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].Content).To(Equal("durable"))
		})
	})

	Describe("Query", func() {
		var driver *sqlitevec.SQLiteVecDriver

		BeforeEach(func() {
			driver = newDriver(2)
			Expect(driver.ReplaceAll(ctx, []vector.NewDocument{
				{Content: "east", Embedding: []float32{1, 0}},
				{Content: "north", Embedding: []float32{0, 1}},
				{Content: "north-east", Embedding: []float32{0.70710677, 0.70710677}},
			})).To(Succeed())
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("orders by cosine similarity", func() {
			results, err := driver.Query(ctx, []float32{1, 0}, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(results[0].Content).To(Equal("east"))
			Expect(results[0].Score).To(BeNumerically("~", 1, 1e-5))
			Expect(results[1].Content).To(Equal("north-east"))
			Expect(results[1].Score).To(BeNumerically("~", 0.7071, 1e-4))
			Expect(results[2].Content).To(Equal("north"))
			Expect(results[2].Score).To(BeNumerically("~", 0, 1e-5))
		})

		It("limits results to topK", func() {
			results, err := driver.Query(ctx, []float32{0, 1}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Content).To(Equal("north"))
		})

		It("returns every document when topK exceeds the count", func() {
			results, err := driver.Query(ctx, []float32{0, 1}, 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
		})

		It("returns nothing from an empty store", func() {
			Expect(driver.ReplaceAll(ctx, nil)).To(Succeed())
			results, err := driver.Query(ctx, []float32{0, 1}, 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("breaks distance ties by ascending ID", func() {
			dupes := make([]vector.NewDocument, 50)
			for i := range dupes {
				dupes[i] = vector.NewDocument{Content: "same", Embedding: []float32{0.6, 0.8}}
			}
			Expect(driver.ReplaceAll(ctx, dupes)).To(Succeed())

			results, err := driver.Query(ctx, []float32{0.6, 0.8}, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			for i, r := range results {
				Expect(r.ID).To(Equal(int64(i + 1)))
				Expect(r.Score).To(BeNumerically("~", 1, 1e-5))
			}
		})

		It("rejects a query of the wrong dimension", func() {
			_, err := driver.Query(ctx, []float32{1, 0, 0}, 1)
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
		})
	})
})
