package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdfcast/pdfcast-go/internal/logging"
	"github.com/pdfcast/pdfcast-go/internal/vectorindex"
)

// NewCollectionsCmd constructs the `pdfcast collections` command group for
// vector collection administration.
func NewCollectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collections",
		Short: "Administer Qdrant vector collections",
		Long: `Create, inspect, initialize, and delete the Qdrant collections that
store embedded document chunks.

Examples:
  pdfcast collections init
  pdfcast collections create notes --size 768
  pdfcast collections info podcast_chunks
  pdfcast collections delete notes`,
	}

	cmd.AddCommand(
		newCollectionsInitCmd(),
		newCollectionsCreateCmd(),
		newCollectionsInfoCmd(),
		newCollectionsDeleteCmd(),
	)

	return cmd
}

// newCollectionsInitCmd ensures the default collection exists, inferring the
// vector dimension from the configured embedder.
func newCollectionsInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the default chunk collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			emb, err := buildEmbedder(log)
			if err != nil {
				return fmt.Errorf("collections: %w", err)
			}

			idx, err := buildIndex()
			if err != nil {
				return fmt.Errorf("collections: %w", err)
			}
			defer func() { _ = idx.Close() }()

			name, err := idx.InitializeDefault(ctx, emb)
			if err != nil {
				return fmt.Errorf("collections: %w", err)
			}

			fmt.Printf("collection %s ready\n", name)
			return nil
		},
	}
}

func newCollectionsCreateCmd() *cobra.Command {
	var size uint64
	var metric string

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a new vector collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := buildIndex()
			if err != nil {
				return fmt.Errorf("collections: %w", err)
			}
			defer func() { _ = idx.Close() }()

			err = idx.Create(cmd.Context(), vectorindex.CollectionConfig{
				Name:       args[0],
				VectorSize: size,
				Metric:     vectorindex.Distance(metric),
			})
			if err != nil {
				return fmt.Errorf("collections: %w", err)
			}

			fmt.Printf("collection %s created (dimension %d, %s)\n", args[0], size, metric)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&size, "size", 768, "Embedding dimension for the collection")
	cmd.Flags().StringVar(&metric, "metric", string(vectorindex.DistanceCosine), "Similarity metric: cosine, euclidean, dot")

	return cmd
}

func newCollectionsInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [name]",
		Short: "Show a collection's point count and configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := buildIndex()
			if err != nil {
				return fmt.Errorf("collections: %w", err)
			}
			defer func() { _ = idx.Close() }()

			info, err := idx.Info(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("collections: %w", err)
			}

			fmt.Printf("name:        %s\n", info.Name)
			fmt.Printf("points:      %d\n", info.PointsCount)
			fmt.Printf("vectors:     %d\n", info.VectorsCount)
			fmt.Printf("dimension:   %d\n", info.VectorSize)
			fmt.Printf("metric:      %s\n", info.Metric)
			return nil
		},
	}
}

func newCollectionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a vector collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := buildIndex()
			if err != nil {
				return fmt.Errorf("collections: %w", err)
			}
			defer func() { _ = idx.Close() }()

			if err := idx.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("collections: %w", err)
			}

			fmt.Printf("collection %s deleted\n", args[0])
			return nil
		},
	}
}
