package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hanyong5/2025book/internal/captions"
	"github.com/hanyong5/2025book/internal/entrypoint"
)

var captionsCmd = &cobra.Command{
	Use:   "captions <book-id>",
	Short: "Print each page's parsed captions and duration",
	Args:  cobra.ExactArgs(1),
	RunE:  runCaptions,
}

func init() {
	rootCmd.AddCommand(captionsCmd)
}

func parseBookID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid book id %q", arg)
	}
	return uint(id), nil
}

func runCaptions(cmd *cobra.Command, args []string) error {
	bookID, err := parseBookID(args[0])
	if err != nil {
		return err
	}

	db, err := entrypoint.OpenDatabase(loadConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	book, err := db.GetBook(bookID)
	if err != nil {
		return err
	}
	pages, err := db.ListPages(bookID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%d pages)\n", book.Title, len(pages))
	for i, page := range pages {
		set := captions.Parse(page.Text)
		d, timed := set.Duration()

		fmt.Fprintln(out)
		if timed {
			fmt.Fprintf(out, "Page %d (#%d), %.1fs\n", i+1, page.PageNo, d)
		} else {
			fmt.Fprintf(out, "Page %d (#%d), untimed\n", i+1, page.PageNo)
		}
		for _, iv := range set {
			clip := ""
			if iv.ClipRef != "" {
				clip = "  [" + iv.ClipRef + "]"
			}
			fmt.Fprintf(out, "  %6.2f - %6.2f  %s%s\n", iv.Start, iv.End, iv.Text, clip)
		}
	}
	return nil
}
