// libraryctl is the admin CLI: it talks straight to MongoDB to bulk-seed the
// catalog from CSV and to inspect it.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/digital-library/internal/apperr"
	"github.com/ayush/digital-library/internal/config"
	"github.com/ayush/digital-library/internal/models"
	"github.com/ayush/digital-library/internal/store"
)

func main() {
	root := &cobra.Command{
		Use:   "libraryctl",
		Short: "Admin tooling for the digital library catalog",
	}
	root.AddCommand(seedCmd(), listCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openCatalog(ctx context.Context) (*store.MongoStore, func(), error) {
	cfg := config.Load()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	books := store.NewMongoStore(client.Database(cfg.MongoDB))
	if err := books.EnsureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("mongo indexes: %w", err)
	}
	return books, func() { client.Disconnect(ctx) }, nil
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <books.csv>",
		Short: "Bulk-insert books from a CSV of title,author,isbn[,genre] rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			books, closeFn, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			reader := csv.NewReader(f)
			reader.FieldsPerRecord = -1

			var inserted, skipped int
			for {
				record, err := reader.Read()
				if err == io.EOF {
					break
				}
				if err != nil {
					return fmt.Errorf("read csv: %w", err)
				}
				if len(record) < 3 {
					fmt.Printf("skipping malformed row %v\n", record)
					skipped++
					continue
				}

				book := &models.Book{Title: record[0], Author: record[1], ISBN: record[2]}
				if len(record) > 3 {
					book.Genre = record[3]
				}

				if _, err := books.Insert(ctx, book); err != nil {
					if apperr.IsKind(err, apperr.Conflict) {
						fmt.Printf("skipping duplicate isbn %s (%s)\n", book.ISBN, book.Title)
						skipped++
						continue
					}
					return err
				}
				inserted++
			}

			fmt.Printf("\nSeed complete: %d inserted, %d skipped\n", inserted, skipped)
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the whole catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			books, closeFn, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			all, err := books.ListAll(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("%-26s %-30s %-24s %-14s %s\n", "ID", "Title", "Author", "ISBN", "Status")
			for _, b := range all {
				status := "available"
				if !b.Available {
					status = "borrowed by " + b.BorrowedBy
				}
				fmt.Printf("%-26s %-30s %-24s %-14s %s\n",
					b.ID.Hex(), truncate(b.Title, 30), truncate(b.Author, 24), b.ISBN, status)
			}
			return nil
		},
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
