package mcp_test

import (
	"context"
	"encoding/json"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/semsearch/api/mcp"
	"github.com/papercomputeco/semsearch/api/search"
	"github.com/papercomputeco/semsearch/pkg/logger"
	"github.com/papercomputeco/semsearch/pkg/pipeline"
	testutils "github.com/papercomputeco/semsearch/pkg/utils/test"
	"github.com/papercomputeco/semsearch/pkg/vector/inmemory"
)

var _ = Describe("MCP Server", func() {
	var (
		ctx      context.Context
		embedder *testutils.MockEmbedder
		pipe     *pipeline.Pipeline
	)

	BeforeEach(func() {
		ctx = context.Background()
		embedder = testutils.NewVocabularyEmbedder("capital", "france", "paris", "japan", "tokyo", "sushi")

		var err error
		pipe, err = pipeline.New(pipeline.Config{
			Embedder: embedder,
			Driver:   inmemory.NewDriver(6),
			Logger:   logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = pipe.Ingest(ctx, pipeline.SampleTexts())
		Expect(err).NotTo(HaveOccurred())
	})

	// connect wires an in-process client to the server's MCP implementation.
	connect := func(server *mcp.Server) *sdkmcp.ClientSession {
		serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
		serverSession, err := server.MCPServer().Connect(ctx, serverTransport, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(serverSession.Close)

		client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.0"}, nil)
		session, err := client.Connect(ctx, clientTransport, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(session.Close)
		return session
	}

	Describe("NewServer", func() {
		It("returns an error when searcher is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Logger: logger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("searcher is required")))
		})

		It("returns an error when logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{Searcher: pipe})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("allows a noop server without dependencies", func() {
			server, err := mcp.NewServer(mcp.Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(server.Handler()).NotTo(BeNil())

			tools, err := connect(server).ListTools(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(tools.Tools).To(BeEmpty())
		})
	})

	Describe("search tool", func() {
		var session *sdkmcp.ClientSession

		BeforeEach(func() {
			server, err := mcp.NewServer(mcp.Config{Searcher: pipe, Logger: logger.Nop()})
			Expect(err).NotTo(HaveOccurred())
			session = connect(server)
		})

		It("is listed", func() {
			tools, err := session.ListTools(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(tools.Tools).To(HaveLen(1))
			Expect(tools.Tools[0].Name).To(Equal("search"))
		})

		It("returns ranked documents", func() {
			res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
				Name:      "search",
				Arguments: map[string]any{"query": "capital of Japan", "top_k": 2},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(res.Content).To(HaveLen(1))

			text, ok := res.Content[0].(*sdkmcp.TextContent)
			Expect(ok).To(BeTrue())

			var out search.Output
			Expect(json.Unmarshal([]byte(text.Text), &out)).To(Succeed())
			Expect(out.Count).To(Equal(2))
			Expect(out.Results[0].Content).To(Equal("The capital of Japan is Tokyo"))
		})

		It("reports an empty query as a tool error", func() {
			res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
				Name:      "search",
				Arguments: map[string]any{"query": "  "},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(res.Content[0].(*sdkmcp.TextContent).Text).To(Equal("query is required"))
		})

		It("reports embedding failures as a tool error", func() {
			embedder.FailOn = "search_query: tokyo"

			res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
				Name:      "search",
				Arguments: map[string]any{"query": "tokyo"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			text := res.Content[0].(*sdkmcp.TextContent).Text
			Expect(text).To(ContainSubstring("Search failed"))
		})
	})
})
