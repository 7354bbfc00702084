package vectorutils_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/semsearch/pkg/logger"
	"github.com/papercomputeco/semsearch/pkg/vector/inmemory"
	"github.com/papercomputeco/semsearch/pkg/vector/sqlitevec"
	vectorutils "github.com/papercomputeco/semsearch/pkg/vector/utils"
)

var _ = Describe("NewVectorDriver", func() {
	ctx := context.Background()

	It("builds the in-memory driver", func() {
		d, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
			ProviderType: vectorutils.ProviderMemory,
			Dimensions:   2,
			Logger:       logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(BeAssignableToTypeOf(&inmemory.Driver{}))
	})

	It("builds the sqlite-vec driver", func() {
		d, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
			ProviderType: vectorutils.ProviderSQLite,
			Target:       ":memory:",
			Dimensions:   2,
			Logger:       logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(BeAssignableToTypeOf(&sqlitevec.SQLiteVecDriver{}))
		Expect(d.Close()).To(Succeed())
	})

	It("rejects unknown providers", func() {
		_, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{ProviderType: "chroma"})
		Expect(err).To(MatchError(ContainSubstring("unsupported vector store provider")))
	})
})
