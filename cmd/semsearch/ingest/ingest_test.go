package ingestcmder

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/semsearch/cmd/semsearch/setup"
	"github.com/papercomputeco/semsearch/pkg/config"
	testutils "github.com/papercomputeco/semsearch/pkg/utils/test"
	"github.com/papercomputeco/semsearch/pkg/vector"
)

var vocabulary = []string{"capital", "france", "paris", "japan", "tokyo", "sushi"}

// loadEnv resolves configuration against dir the way the root command would.
func loadEnv(dir string) *setup.Env {
	cmd := &cobra.Command{Use: "ingest"}
	cmd.Flags().String("config-dir", "", "")
	cmd.Flags().Bool("debug", false, "")
	config.AddRegisteredFlags(cmd, config.Flags, ingestFlags)
	cmd.SetErr(io.Discard)

	Expect(cmd.Flags().Set("config-dir", dir)).To(Succeed())
	Expect(cmd.Flags().Set("embedding-dimensions", "6")).To(Succeed())

	env, err := setup.Load(cmd, ingestFlags)
	Expect(err).NotTo(HaveOccurred())
	return env
}

func storedDocuments(env *setup.Env) []vector.Document {
	built, err := env.Open(context.Background(), testutils.NewVocabularyEmbedder(vocabulary...))
	Expect(err).NotTo(HaveOccurred())
	defer built.Close()

	docs, err := built.Documents(context.Background())
	Expect(err).NotTo(HaveOccurred())
	return docs
}

func writeLines(path string, lines ...string) {
	Expect(os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600)).To(Succeed())
}

var _ = Describe("ingest", func() {
	var (
		dir      string
		out      *bytes.Buffer
		embedder *testutils.MockEmbedder
		cmder    *ingestCommander
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		out = &bytes.Buffer{}
		embedder = testutils.NewVocabularyEmbedder(vocabulary...)
		cmder = &ingestCommander{
			embedder: embedder,
			out:      out,
			env:      loadEnv(dir),
		}
	})

	It("stores the sample corpus with sequential identities", func() {
		cmder.sample = true
		Expect(cmder.run(context.Background(), nil)).To(Succeed())

		docs := storedDocuments(cmder.env)
		Expect(docs).To(HaveLen(4))
		for i, doc := range docs {
			Expect(doc.ID).To(Equal(int64(i + 1)))
		}
		Expect(docs[2].Content).To(Equal("The capital of Japan is Tokyo"))
		Expect(out.String()).To(ContainSubstring("4 documents"))
	})

	It("embeds documents with the document prefix", func() {
		cmder.sample = true
		Expect(cmder.run(context.Background(), nil)).To(Succeed())

		calls := embedder.Calls()
		Expect(calls).To(HaveLen(1))
		Expect(calls[0][0]).To(Equal("search_document: The capital of France is Paris"))
	})

	It("records the ingest state", func() {
		cmder.sample = true
		Expect(cmder.run(context.Background(), nil)).To(Succeed())

		state, err := cmder.env.Dotdir.LoadIngestState(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(state).NotTo(BeNil())
		Expect(state.Documents).To(Equal(4))
		Expect(state.Dimensions).To(Equal(uint(6)))
		Expect(state.StorageProvider).To(Equal("sqlite"))
		Expect(state.MatchesModel("ollama", "nomic-embed-text")).To(BeTrue())
	})

	It("reads one document per line from files", func() {
		a := filepath.Join(dir, "a.txt")
		b := filepath.Join(dir, "b.txt")
		writeLines(a, "Paris is in France", "", "  Tokyo is in Japan  ")
		writeLines(b, "Sushi comes from Japan")

		Expect(cmder.run(context.Background(), []string{a, b})).To(Succeed())

		docs := storedDocuments(cmder.env)
		Expect(docs).To(HaveLen(3))
		Expect(docs[1].Content).To(Equal("Tokyo is in Japan"))
		Expect(docs[2].Content).To(Equal("Sushi comes from Japan"))
	})

	It("reads documents from piped input", func() {
		cmder.in = strings.NewReader("Paris\nTokyo\n")
		Expect(cmder.run(context.Background(), nil)).To(Succeed())
		Expect(storedDocuments(cmder.env)).To(HaveLen(2))
	})

	It("replaces the previous corpus", func() {
		cmder.sample = true
		Expect(cmder.run(context.Background(), nil)).To(Succeed())

		cmder.sample = false
		cmder.in = strings.NewReader("Tokyo is famous for sushi\n")
		Expect(cmder.run(context.Background(), nil)).To(Succeed())

		docs := storedDocuments(cmder.env)
		Expect(docs).To(HaveLen(1))
		Expect(docs[0].ID).To(Equal(int64(1)))
	})

	It("keeps the previous corpus when embedding fails", func() {
		cmder.sample = true
		Expect(cmder.run(context.Background(), nil)).To(Succeed())

		embedder.FailOn = "search_document: Tokyo is famous for sushi"
		err := cmder.run(context.Background(), nil)
		Expect(err).To(MatchError(vector.ErrEmbedding))

		Expect(storedDocuments(cmder.env)).To(HaveLen(4))
	})

	It("rejects conflicting inputs", func() {
		cmder.sample = true
		Expect(cmder.run(context.Background(), []string{"a.txt"})).To(MatchError(ContainSubstring("--sample")))

		cmder.sample = false
		cmder.watch = true
		Expect(cmder.run(context.Background(), nil)).To(MatchError(ContainSubstring("--watch")))
	})

	It("fails for a missing file", func() {
		err := cmder.run(context.Background(), []string{filepath.Join(dir, "missing.txt")})
		Expect(err).To(MatchError(ContainSubstring("missing.txt")))
	})

	It("re-ingests watched files when they change", func() {
		path := filepath.Join(dir, "corpus.txt")
		writeLines(path, "Paris")

		cmder.watch = true
		cmder.out = io.Discard

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			defer GinkgoRecover()
			done <- cmder.run(ctx, []string{path})
		}()

		documents := func() int {
			state, err := cmder.env.Dotdir.LoadIngestState(dir)
			if err != nil || state == nil {
				return 0
			}
			return state.Documents
		}
		Eventually(documents, 5*time.Second, 50*time.Millisecond).Should(Equal(1))

		// The watcher may not be registered yet, so keep rewriting at an
		// interval longer than the debounce.
		Eventually(func() int {
			writeLines(path, "Paris", "Tokyo", "Sushi")
			return documents()
		}, 10*time.Second, 500*time.Millisecond).Should(Equal(3))

		cancel()
		Eventually(done, 5*time.Second).Should(Receive(BeNil()))
	})
})
