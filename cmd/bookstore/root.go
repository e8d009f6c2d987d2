package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/R3E-Network/book_catalog/internal/app/httpapi"
	"github.com/R3E-Network/book_catalog/internal/app/runtime"
	"github.com/R3E-Network/book_catalog/internal/config"
	"github.com/R3E-Network/book_catalog/internal/logging"
	"github.com/R3E-Network/book_catalog/pkg/client"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bookstore",
		Short:         "Book catalog and review service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newQueryCmd(), newVersionCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			log := logging.New(runtime.ServiceName, cfg.Logging.Level, cfg.Logging.Format)

			application, err := runtime.NewApplication(cfg, log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := application.Run(ctx); err != nil {
				log.WithError(err).Error("server stopped with error")
				return err
			}
			log.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", "", "dotenv file to load before reading the environment")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), httpapi.Version)
		},
	}
}

type queryOptions struct {
	addr    string
	timeout time.Duration
}

func newQueryCmd() *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query a running catalog server",
	}
	cmd.PersistentFlags().StringVar(&opts.addr, "addr", "http://localhost:5000", "base URL of the catalog server")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "books",
			Short: "List the whole catalog",
			Args:  cobra.NoArgs,
			RunE: opts.run(func(ctx context.Context, c *client.Client, args []string) (any, error) {
				return c.Books(ctx)
			}),
		},
		&cobra.Command{
			Use:   "isbn ISBN...",
			Short: "Show one or more books by ISBN",
			Args:  cobra.MinimumNArgs(1),
			RunE: opts.run(func(ctx context.Context, c *client.Client, args []string) (any, error) {
				if len(args) == 1 {
					return c.Book(ctx, args[0])
				}
				return c.BooksByISBN(ctx, args...)
			}),
		},
		&cobra.Command{
			Use:   "author NAME",
			Short: "Find books by author",
			Args:  cobra.ExactArgs(1),
			RunE: opts.run(func(ctx context.Context, c *client.Client, args []string) (any, error) {
				return c.BooksByAuthor(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "title TITLE",
			Short: "Find books by title",
			Args:  cobra.ExactArgs(1),
			RunE: opts.run(func(ctx context.Context, c *client.Client, args []string) (any, error) {
				return c.BooksByTitle(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "reviews ISBN",
			Short: "Show the reviews of a book",
			Args:  cobra.ExactArgs(1),
			RunE: opts.run(func(ctx context.Context, c *client.Client, args []string) (any, error) {
				return c.Reviews(ctx, args[0])
			}),
		},
	)
	return cmd
}

type queryFunc func(ctx context.Context, c *client.Client, args []string) (any, error)

func (o *queryOptions) run(fn queryFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c := client.New(client.Config{BaseURL: o.addr, Timeout: o.timeout})
		defer c.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
		defer cancel()

		result, err := fn(ctx, c, args)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}
