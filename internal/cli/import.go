package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hanyong5/2025book/internal/entrypoint"
	"github.com/hanyong5/2025book/internal/importers"
	"github.com/hanyong5/2025book/internal/services"
	"github.com/hanyong5/2025book/internal/tasks"
)

var (
	importDryRun bool
	importWarm   bool
)

var importCmd = &cobra.Command{
	Use:   "import <manifest>",
	Short: "Import a book manifest (YAML or JSON) into the database",
	Long: `Import a book from a manifest listing its pages in reading order.

A book with the same title and author is replaced, pages included.

Examples:
  # Import a book:
  readalong import moon-rabbit.yaml

  # Check a manifest without saving it:
  readalong import moon-rabbit.yaml --dry-run -v

  # Import and download its narration into the clip cache:
  readalong import moon-rabbit.yaml --warm`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "show what would be imported without making changes")
	importCmd.Flags().BoolVar(&importWarm, "warm", false, "download the book's narration clips into the clip cache after import")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	manifestPath := args[0]
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Book Import")
	fmt.Fprintln(out, "===========")

	if importDryRun {
		fmt.Fprintln(out, "DRY RUN MODE - No changes will be made")
		fmt.Fprintln(out)
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}
	fmt.Fprintf(out, "File: %s\n", manifestPath)

	manifest, err := importers.ParseManifest(data)
	if err != nil {
		return err
	}
	book, err := manifest.Book()
	if err != nil {
		return err
	}

	author := book.Author
	if author == "" {
		author = "(no author)"
	}
	fmt.Fprintf(out, "Found \"%s\" by %s with %d pages\n", book.Title, author, len(book.Pages))

	if verbose {
		fmt.Fprintln(out, "\n=== Pages ===")
		for _, page := range book.Pages {
			fmt.Fprintf(out, "%3d. %s\n", page.PageNo, page.DisplayImageRef())
		}
	}

	if importDryRun {
		fmt.Fprintln(out, "\nDry run complete. Use without --dry-run to import.")
		return nil
	}

	cfg := loadConfig()
	absDBPath, err := filepath.Abs(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	cfg.Database.Path = absDBPath
	fmt.Fprintf(out, "\nSaving to database: %s\n", cfg.Database.Path)

	db, err := entrypoint.OpenDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	result, err := services.NewImportService(db, nil).ImportBook(book)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "\n=== Import Summary ===")
	fmt.Fprintf(out, "Book ID: %d\n", result.BookID)
	fmt.Fprintf(out, "Pages saved: %d (%d timed)\n", result.PagesImported, result.TimedPages)
	fmt.Fprintf(out, "Narration clips: %d\n", result.ClipRefs)

	if importWarm && result.ClipRefs > 0 {
		loader, disk := entrypoint.NewAudioLoader(cfg, nil)
		if disk == nil {
			return fmt.Errorf("--warm needs a clip cache, set AUDIO_CACHE_DIR")
		}
		fmt.Fprintf(out, "\nDownloading clips into %s...\n", disk.Dir())

		warm, err := tasks.WarmBookAudio(context.Background(), db, entrypoint.NewResolver(cfg), loader, result.BookID)
		if err != nil {
			return fmt.Errorf("failed to warm clips: %w", err)
		}
		fmt.Fprintf(out, "Clips cached: %d/%d\n", warm.Fetched, warm.Clips)
		if warm.Failed > 0 {
			fmt.Fprintf(out, "%d clips failed to download\n", warm.Failed)
		}
	}

	fmt.Fprintln(out, "\nImport complete!")
	return nil
}
