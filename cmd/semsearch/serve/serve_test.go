package servecmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	apisearch "github.com/papercomputeco/semsearch/api/search"
	"github.com/papercomputeco/semsearch/cmd/semsearch/setup"
	"github.com/papercomputeco/semsearch/pkg/config"
	testutils "github.com/papercomputeco/semsearch/pkg/utils/test"
)

func loadEnv(dir string) *setup.Env {
	cmd := &cobra.Command{Use: "serve"}
	cmd.Flags().String("config-dir", "", "")
	cmd.Flags().Bool("debug", false, "")
	config.AddRegisteredFlags(cmd, config.Flags, serveFlags)
	cmd.SetErr(io.Discard)

	Expect(cmd.Flags().Set("config-dir", dir)).To(Succeed())
	Expect(cmd.Flags().Set("embedding-dimensions", "6")).To(Succeed())

	env, err := setup.Load(cmd, serveFlags)
	Expect(err).NotTo(HaveOccurred())
	return env
}

var _ = Describe("serve", func() {
	var (
		base    string
		logPath string
		cancel  context.CancelFunc
		done    chan error
	)

	BeforeEach(func() {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		base = fmt.Sprintf("http://%s", ln.Addr().String())

		dir := GinkgoT().TempDir()
		logPath = filepath.Join(dir, "serve.log")

		cmder := &serveCommander{
			logFile:  logPath,
			embedder: testutils.NewVocabularyEmbedder("capital", "france", "paris", "japan", "tokyo", "sushi"),
			listener: ln,
			env:      loadEnv(dir),
		}

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
		go func() {
			defer GinkgoRecover()
			done <- cmder.run(ctx)
		}()

		Eventually(func() error {
			resp, err := http.Get(base + "/ping")
			if err != nil {
				return err
			}
			resp.Body.Close()
			return nil
		}, 5*time.Second, 50*time.Millisecond).Should(Succeed())
	})

	AfterEach(func() {
		cancel()
		Eventually(done, 5*time.Second).Should(Receive(BeNil()))
	})

	It("replaces and searches documents over HTTP", func() {
		body := `{"texts": ["The capital of France is Paris", "Tokyo is famous for sushi"]}`
		req, err := http.NewRequest(http.MethodPut, base+"/v1/documents", strings.NewReader(body))
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		resp, err = http.Get(base + "/v1/search?query=" + url.QueryEscape("sushi in Tokyo"))
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var output apisearch.Output
		Expect(json.NewDecoder(resp.Body).Decode(&output)).To(Succeed())
		Expect(output.Count).To(Equal(2))
		Expect(output.Results[0].ID).To(Equal(int64(2)))
	})

	It("exposes metrics", func() {
		resp, err := http.Get(base + "/metrics")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("semsearch_"))
	})

	It("appends JSON records to the log file", func() {
		data, err := os.ReadFile(logPath)
		Expect(err).NotTo(HaveOccurred())

		var messages []string
		for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
			var record map[string]any
			Expect(json.Unmarshal([]byte(line), &record)).To(Succeed())
			Expect(record).To(HaveKey("source"))
			messages = append(messages, fmt.Sprint(record["msg"]))
		}
		Expect(messages).To(ContainElement("serving documents"))
	})
})
