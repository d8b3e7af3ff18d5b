package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vexec/pkg/config"
	"vexec/pkg/engine"
	"vexec/pkg/engine/executor"
	"vexec/pkg/logging"
	"vexec/pkg/metadata"
	"vexec/pkg/service"
	"vexec/pkg/tomy_file"
)

func newRootCommand() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:           "vexec",
		Short:         "vexec runs a vectorized columnar query server.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	config.RegisterFlags(root.Flags())
	root.AddCommand(newInspectCommand())
	return root
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, closeLog, err := logging.Setup(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	ms, err := metadata.NewMetastore(cfg.DataDir, logger)
	if err != nil {
		return err
	}
	exec, err := executor.NewExecutor(cfg.Executor(), logger)
	if err != nil {
		return err
	}
	qm := engine.NewQueryManager(ms, exec, logger)
	defer qm.Close()

	router := service.NewRouter(service.Services{
		Metadata:  service.NewMetadataAPIService(exec.Parallelism()),
		Schema:    service.NewSchemaAPIService(ms),
		Execution: service.NewExecutionAPIService(qm),
	}, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("starting vexec", "data_dir", cfg.DataDir, "parallelism", exec.Parallelism(), "chunk_size", cfg.ChunkSize)
	return service.Serve(ctx, srv, logger)
}

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Print the layout and column statistics of .tomy files.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if err := inspectFile(cmd.OutOrStdout(), path); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func inspectFile(out io.Writer, path string) error {
	meta, stats, err := tomy_file.CalculateStats(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %d rows, %d columns\n", path, meta.NumRows, meta.NumColumns)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tCOMPRESSED\tSUMMARY")
	for _, s := range stats {
		var summary string
		switch s.Type {
		case tomy_file.TypeInt64:
			summary = fmt.Sprintf("min=%d max=%d mean=%.4f", s.Min, s.Max, s.Mean)
		case tomy_file.TypeVarchar:
			summary = fmt.Sprintf("bytes=%d ascii=%d", s.TotalBytes, s.ASCIIBytes)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.Name, s.Type, s.CompressedSize, summary)
	}
	return tw.Flush()
}
