// Package querycmder provides the query command, which ranks stored
// documents against a query text.
package querycmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	apisearch "github.com/papercomputeco/semsearch/api/search"
	"github.com/papercomputeco/semsearch/cmd/semsearch/setup"
	"github.com/papercomputeco/semsearch/pkg/cliui"
	"github.com/papercomputeco/semsearch/pkg/config"
	"github.com/papercomputeco/semsearch/pkg/embeddings"
	"github.com/papercomputeco/semsearch/pkg/rank"
)

const queryLongDesc string = `Rank stored documents by semantic similarity to a query.

The query is embedded with the query prefix, normalized and compared against
every stored document by cosine similarity. Results are printed best match
first; equal scores are ordered by document ID.

Examples:
  semsearch query "What is the capital of Japan?"
  semsearch query -k 2 "famous food"
  semsearch query --json "Eiffel Tower"
  semsearch query --mode client --strict "sushi"`

const queryShortDesc string = "Rank stored documents against a query"

const previewWidth = 100

type queryCommander struct {
	jsonOutput bool
	markdown   bool

	// embedder overrides the configured provider.
	embedder embeddings.Embedder

	out io.Writer
	env *setup.Env
}

var queryFlags = append(append([]string{}, config.StoreFlags...),
	config.FlagTopK,
	config.FlagSearchMode,
	config.FlagStrict,
)

func NewQueryCmd() *cobra.Command {
	cmder := &queryCommander{}

	cmd := &cobra.Command{
		Use:   "query <text...>",
		Short: queryShortDesc,
		Long:  queryLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.out = cmd.OutOrStdout()

			env, err := setup.Load(cmd, queryFlags)
			if err != nil {
				return err
			}
			cmder.env = env

			return cmder.run(cmd.Context(), strings.Join(args, " "))
		},
	}

	cmd.Flags().BoolVar(&cmder.jsonOutput, "json", false, "Print results as JSON")
	cmd.Flags().BoolVar(&cmder.markdown, "markdown", false, "Render results as markdown")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
	config.AddRegisteredFlags(cmd, config.Flags, queryFlags)

	return cmd
}

func (c *queryCommander) run(ctx context.Context, text string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.env.CheckModel()

	built, err := c.env.Open(ctx, c.embedder)
	if err != nil {
		return err
	}
	defer built.Close()

	results, err := built.Query(ctx, text, c.env.Config.Search.TopK)
	if err != nil {
		return err
	}

	switch {
	case c.jsonOutput:
		return c.printJSON(text, results)
	case c.markdown:
		return c.printMarkdown(text, results)
	default:
		c.printResults(results)
		return nil
	}
}

func (c *queryCommander) printJSON(text string, results []rank.Result) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(apisearch.BuildOutput(text, results))
}

func (c *queryCommander) printMarkdown(text string, results []rank.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "## Results for %q\n\n", text)
	if len(results) == 0 {
		b.WriteString("_No documents stored._\n")
	}
	for i, r := range results {
		fmt.Fprintf(&b, "%d. **%.4f** %s\n", i+1, r.Score, r.Content)
	}

	rendered, err := cliui.RenderMarkdown(b.String())
	if err != nil {
		return err
	}
	fmt.Fprint(c.out, rendered)
	return nil
}

func (c *queryCommander) printResults(results []rank.Result) {
	if len(results) == 0 {
		fmt.Fprintf(c.out, "  %s\n", cliui.WarnStyle.Render("No documents stored. Run \"semsearch ingest\" first."))
		return
	}

	for i, r := range results {
		fmt.Fprintf(c.out, "  %s %s %s %s\n",
			cliui.RankStyle.Render(fmt.Sprintf("%d.", i+1)),
			cliui.ScoreStyle.Render(fmt.Sprintf("%.4f", r.Score)),
			cliui.DimStyle.Render(fmt.Sprintf("#%d", r.ID)),
			cliui.Preview(r.Content, previewWidth),
		)
	}
}
