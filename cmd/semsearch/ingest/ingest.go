// Package ingestcmder provides the ingest command, which replaces the stored
// corpus with freshly embedded documents.
package ingestcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/semsearch/cmd/semsearch/setup"
	"github.com/papercomputeco/semsearch/pkg/cliui"
	"github.com/papercomputeco/semsearch/pkg/config"
	"github.com/papercomputeco/semsearch/pkg/dotdir"
	"github.com/papercomputeco/semsearch/pkg/embeddings"
	"github.com/papercomputeco/semsearch/pkg/logger"
	"github.com/papercomputeco/semsearch/pkg/pipeline"
	pipelineutils "github.com/papercomputeco/semsearch/pkg/pipeline/utils"
)

const ingestLongDesc string = `Embed documents and replace the stored corpus with them.

Each non-empty line of the given files is one document. Without files, lines
are read from stdin. Use --sample to store the built-in sample corpus.

Every run replaces the whole corpus: documents get identities 1..N in input
order, and nothing is written unless every document embeds successfully.

With --watch, the files are re-ingested whenever they change until the
command is interrupted.

Examples:
  semsearch ingest --sample
  semsearch ingest notes.txt faq.txt
  cat notes.txt | semsearch ingest
  semsearch ingest --watch notes.txt`

const ingestShortDesc string = "Replace the stored corpus"

// watchDebounce coalesces the burst of events editors emit on save.
const watchDebounce = 250 * time.Millisecond

type ingestCommander struct {
	sample bool
	watch  bool

	// embedder overrides the configured provider.
	embedder embeddings.Embedder

	in  io.Reader
	out io.Writer

	env   *setup.Env
	built *pipelineutils.Built
}

var ingestFlags = append(append([]string{}, config.StoreFlags...),
	config.FlagBatchSize,
	config.FlagKafkaBrokers,
)

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest [files...]",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()

			env, err := setup.Load(cmd, ingestFlags)
			if err != nil {
				return err
			}
			cmder.env = env

			return cmder.run(cmd.Context(), args)
		},
	}

	cmd.Flags().BoolVar(&cmder.sample, "sample", false, "Ingest the built-in sample corpus")
	cmd.Flags().BoolVar(&cmder.watch, "watch", false, "Re-ingest the files whenever they change")
	config.AddRegisteredFlags(cmd, config.Flags, ingestFlags)

	return cmd
}

func (c *ingestCommander) run(ctx context.Context, files []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if c.sample && len(files) > 0 {
		return errors.New("--sample cannot be combined with files")
	}
	if c.watch && len(files) == 0 {
		return errors.New("--watch requires at least one file")
	}

	built, err := c.env.Open(ctx, c.embedder)
	if err != nil {
		return err
	}
	defer built.Close()
	c.built = built

	texts, err := c.loadTexts(files)
	if err != nil {
		return err
	}

	if err := c.ingest(ctx, texts); err != nil {
		return err
	}

	if !c.watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return c.watchFiles(ctx, files)
}

func (c *ingestCommander) loadTexts(files []string) ([]string, error) {
	switch {
	case c.sample:
		return pipeline.SampleTexts(), nil

	case len(files) > 0:
		return pipeline.LoadFiles(files...)

	case c.in != nil && !isTerminalReader(c.in):
		return pipeline.LoadTexts(c.in)

	default:
		return nil, errors.New("no documents given: pass files, pipe lines on stdin or use --sample")
	}
}

func (c *ingestCommander) ingest(ctx context.Context, texts []string) error {
	var result *pipeline.IngestResult
	msg := fmt.Sprintf("Embedding %d documents", len(texts))

	err := cliui.Step(c.out, msg, func() error {
		var err error
		result, err = c.built.Ingest(ctx, texts)
		return err
	})
	if err != nil {
		return err
	}

	cfg := c.env.Config
	state := &dotdir.IngestState{
		RunID:             result.RunID,
		Documents:         result.Documents,
		Dimensions:        uint(result.Dimensions),
		StorageProvider:   cfg.Storage.Provider,
		EmbeddingProvider: cfg.Embedding.Provider,
		Model:             cfg.Embedding.Model,
		CompletedAt:       result.StartedAt.Add(result.Duration),
	}
	if err := c.env.Dotdir.SaveIngestState(state, c.env.Dir); err != nil {
		c.env.Logger.Warn("could not record ingest state", "error", err)
	}

	fmt.Fprintf(c.out, "  %s %s %s\n",
		cliui.KeyStyle.Render("Stored"),
		cliui.ValueStyle.Render(fmt.Sprintf("%d documents", result.Documents)),
		cliui.DimStyle.Render(fmt.Sprintf("(%d dimensions, run %s)", result.Dimensions, result.RunID)),
	)
	return nil
}

// watchFiles re-ingests files whenever one of them is written or recreated.
// The parent directories are watched so editors that replace the file on
// save are still picked up.
func (c *ingestCommander) watchFiles(ctx context.Context, files []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", f, err)
		}
		watched[filepath.Clean(abs)] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	fmt.Fprintf(c.out, "  %s\n", cliui.DimStyle.Render("Watching for changes, press Ctrl+C to stop"))

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			pending = time.After(watchDebounce)

		case <-pending:
			pending = nil
			texts, err := pipeline.LoadFiles(files...)
			if err != nil {
				c.env.Logger.Warn("could not read documents", "error", err)
				continue
			}
			if err := c.ingest(ctx, texts); err != nil {
				// The previous corpus stays in place.
				c.env.Logger.Error("re-ingest failed", "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.env.Logger.Warn("file watcher error", "error", err)
		}
	}
}

func isTerminalReader(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && logger.IsTerminal(f)
}
