package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ragchat/internal/chunker"
	"ragchat/internal/cli"
	"ragchat/internal/config"
	"ragchat/internal/embedding"
	"ragchat/internal/loader"
	"ragchat/internal/logging"
	"ragchat/internal/service"
	"ragchat/internal/vectorstore"
)

type options struct {
	configPath  string
	writeConfig string
	root        string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "ingest [document.pdf]",
		Short: "Split a PDF, embed its chunks and store them in the vector collection",
		Long: `ingest reads the PDF named by the argument or by PDF_PATH, splits it into
overlapping chunks, embeds them with the configured provider and writes them to
the collection named by PG_VECTOR_COLLECTION_NAME.

Relative paths resolve against --root. Chunks are keyed doc-0, doc-1, ...;
running ingest again on the same collection overwrites those ids.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return runIngest(cmd, opts, path)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to YAML config file (optional; uses ./rag.yaml or ~/.config/ragchat/config.yaml if not provided)")
	cmd.Flags().StringVar(&opts.writeConfig, "write-config", "", "Write the effective tunables to this YAML path and exit without ingesting")
	cmd.Flags().StringVar(&opts.root, "root", "", "Project root for relative document paths (defaults to the working directory)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	return cmd
}

func runIngest(cmd *cobra.Command, opts options, path string) error {
	_ = godotenv.Load()

	log, err := logging.New(opts.verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	cfg, err := cli.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.writeConfig != "" {
		if err := config.Save(opts.writeConfig, cfg); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote config to %s\n", opts.writeConfig)
		return nil
	}
	root := opts.root
	if root == "" {
		if root, err = os.Getwd(); err != nil {
			return err
		}
	}

	pipeline := service.NewPipeline(cfg, root,
		loader.NewPDF(),
		chunker.NewRecursiveChunker(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap),
		embedding.New,
		vectorstore.New,
		log)
	report, err := pipeline.Ingest(cmd.Context(), path)
	if err != nil {
		return err
	}
	log.Info("done", zap.String("path", report.Path), zap.Int("pages", report.Pages), zap.Int("chunks", report.Chunks))
	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d chunks from %d pages into collection %q\n", report.Chunks, report.Pages, report.Collection)
	return nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cli.Report(stderr, "ingest", cmd.Execute())
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
