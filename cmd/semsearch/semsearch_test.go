package semsearchcmder_test

import (
	"bytes"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	semsearchcmder "github.com/papercomputeco/semsearch/cmd/semsearch"
)

var _ = Describe("semsearch", func() {
	It("registers every subcommand", func() {
		cmd := semsearchcmder.NewSemsearchCmd()

		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("init", "ingest", "query", "serve", "status", "config", "version"))
	})

	It("prints the version", func() {
		cmd := semsearchcmder.NewSemsearchCmd()
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetArgs([]string{"version"})

		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Version:"))
	})

	It("reads status through the global config directory flag", func() {
		dir := GinkgoT().TempDir()
		out := &bytes.Buffer{}
		errOut := &bytes.Buffer{}

		cmd := semsearchcmder.NewSemsearchCmd()
		cmd.SetOut(out)
		cmd.SetErr(errOut)
		cmd.SetArgs([]string{"status", "--config-dir", dir, "--storage", "memory"})

		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("memory"))
		Expect(out.String()).To(ContainSubstring("Nothing ingested yet"))
		Expect(filepath.Join(dir, "semsearch.db")).NotTo(BeAnExistingFile())
	})

	It("requires a query text", func() {
		cmd := semsearchcmder.NewSemsearchCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"query"})

		err := cmd.Execute()
		Expect(err).To(HaveOccurred())
		Expect(strings.ToLower(err.Error())).To(ContainSubstring("arg"))
	})
})
