package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ragchat/internal/chat"
	"ragchat/internal/cli"
	"ragchat/internal/domain"
	"ragchat/internal/embedding"
	"ragchat/internal/llm"
	"ragchat/internal/logging"
	"ragchat/internal/service"
	"ragchat/internal/vectorstore"
)

type options struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask questions answered only from the ingested document",
		Long: `chat reads one question per line, retrieves the closest chunks from the
collection named by PG_VECTOR_COLLECTION_NAME and asks the configured model to
answer using only that context.

Type sair, exit or quit to leave.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to YAML config file (optional; uses ./rag.yaml or ~/.config/ragchat/config.yaml if not provided)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	return cmd
}

func runChat(cmd *cobra.Command, opts options) error {
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

	retriever := service.NewRetriever(cfg, embedding.New, vectorstore.New, log)
	loop := chat.New(retriever,
		func(ctx context.Context) (domain.ChatModel, error) { return llm.New(ctx, cfg) },
		chat.Options{
			In:      cmd.InOrStdin(),
			Out:     cmd.OutOrStdout(),
			Timeout: cfg.QueryTimeout(),
			Logger:  log,
		})
	return loop.Run(cmd.Context())
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cli.Report(stderr, "chat", cmd.Execute())
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
