package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/pipeline"
)

const previewLength = 60

func newPageCommand(cc *commandContext) *cobra.Command {
	var (
		query     string
		favorites bool
		page      int
		perPage   int
	)

	cmd := &cobra.Command{
		Use:   "page METATEXT_ID",
		Short: "Print one page of a metatext's chunks after search and favorites filtering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metatextID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || metatextID <= 0 {
				return fmt.Errorf("invalid metatext id %q", args[0])
			}

			cfg, logger, err := cc.ensureConfig()
			if err != nil {
				return err
			}
			if perPage <= 0 {
				perPage = cfg.Pipeline.ChunksPerPage
			}

			ctx := cmd.Context()
			b, err := openBackends(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			chunks, err := b.chunks.ListByMetatext(ctx, metatextID)
			if err != nil {
				return fmt.Errorf("load chunks: %w", err)
			}

			filtered := pipeline.FilterByQuery(chunks, query, cfg.Pipeline.MinQueryLength)
			filtered = pipeline.FilterFavorites(filtered, favorites)
			window := pipeline.Paginate(filtered, perPage, page)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderChunkPage(window))
			fmt.Fprintf(out, "page %d of %d, chunks %d-%d of %d\n",
				window.CurrentPage, window.TotalPages,
				displayIndex(window.StartIndex, window.TotalFilteredChunks), window.EndIndex,
				window.TotalFilteredChunks)
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Only chunks containing this text")
	cmd.Flags().BoolVar(&favorites, "favorites", false, "Only favorited chunks")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number, clamped to the available pages")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "Chunks per page (default from PIPELINE_CHUNKS_PER_PAGE)")
	return cmd
}

func renderChunkPage(window domain.PageWindow) string {
	rows := make([][]string, 0, len(window.DisplayChunks))
	for _, c := range window.DisplayChunks {
		marks := ""
		if c.IsFavorited() {
			marks += "★"
		}
		if c.BookmarkedByUserID != nil {
			marks += "⚑"
		}
		rows = append(rows, []string{
			strconv.FormatInt(c.ID, 10),
			strconv.Itoa(c.Position),
			marks,
			preview(c.Text),
		})
	}
	return renderTable(
		[]string{"ID", "POS", "", "TEXT"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft},
	)
}

// displayIndex converts a zero-based start index to the one-based number shown to users
func displayIndex(start, total int) int {
	if total == 0 {
		return 0
	}
	return start + 1
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= previewLength {
		return s
	}
	return string(r[:previewLength-1]) + "…"
}
