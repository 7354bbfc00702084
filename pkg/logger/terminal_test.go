package logger_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/semsearch/pkg/logger"
)

var _ = Describe("IsTerminal", func() {
	It("is false for buffers", func() {
		Expect(logger.IsTerminal(&bytes.Buffer{})).To(BeFalse())
	})

	It("is false for regular files", func() {
		f, err := os.Create(filepath.Join(GinkgoT().TempDir(), "log.txt"))
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		Expect(logger.IsTerminal(f)).To(BeFalse())
	})
})

var _ = Describe("ForCLI", func() {
	It("writes plain text records when not on a terminal", func() {
		var buf bytes.Buffer
		l := logger.ForCLI(&buf, false)
		l.Info("ingest complete", "documents", 4)
		l.Debug("hidden")

		Expect(buf.String()).To(ContainSubstring("level=INFO"))
		Expect(buf.String()).To(ContainSubstring("documents=4"))
		Expect(buf.String()).NotTo(ContainSubstring("hidden"))
	})

	It("enables debug records", func() {
		var buf bytes.Buffer
		logger.ForCLI(&buf, true).Debug("shown")
		Expect(buf.String()).To(ContainSubstring("shown"))
	})
})
