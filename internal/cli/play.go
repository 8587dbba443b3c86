package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hanyong5/2025book/internal/audio"
	"github.com/hanyong5/2025book/internal/entrypoint"
	"github.com/hanyong5/2025book/internal/playback"
	"github.com/hanyong5/2025book/internal/reader"
)

var (
	playNoAudio bool
	playNow     bool
)

var playCmd = &cobra.Command{
	Use:   "play <book-id>",
	Short: "Read a book in the terminal",
	Long: `Open a reader session and print captions as the narration advances.

Commands (type and press enter):
  s  start now       p  pause / resume
  n  next page       b  previous page
  g <n>  go to page  q  finish`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&playNoAudio, "no-audio", false, "skip narration clips and play captions only")
	playCmd.Flags().BoolVar(&playNow, "now", false, "start as soon as audio is loaded instead of waiting for auto-start")

	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	bookID, err := parseBookID(args[0])
	if err != nil {
		return err
	}

	cfg := loadConfig()
	db, err := entrypoint.OpenDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	var loader audio.Loader
	if !playNoAudio {
		l, _ := entrypoint.NewAudioLoader(cfg, &terminalOutput{w: out})
		loader = l
	}
	readers := reader.NewService(db, loader, entrypoint.NewResolver(cfg), entrypoint.ReaderConfig(cfg))
	defer readers.Shutdown()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := readers.Open(ctx, bookID)
	if err != nil {
		return err
	}
	events, unsubscribe := session.Subscribe()
	defer unsubscribe()

	go readCommands(ctx, cmd.InOrStdin(), out, session)

	printer := &snapshotPrinter{w: out}
	started := false
	for {
		select {
		case snap, ok := <-events:
			if !ok {
				return nil
			}
			printer.Print(snap)
			if snap.Closed {
				return nil
			}
			if playNow && !started && snap.State == playback.AutoStartPending {
				started = true
				if err := session.Start(); err != nil && !errors.Is(err, playback.ErrClosed) {
					return err
				}
			}
		case <-ctx.Done():
			fmt.Fprintln(out, "\nInterrupted")
			session.Close()
			return nil
		}
	}
}

// readCommands applies single-letter commands typed on in to session.
func readCommands(ctx context.Context, in io.Reader, out io.Writer, session *playback.Session) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		if err := applyCommand(session, scanner.Text()); err != nil {
			fmt.Fprintf(out, "  ! %v\n", err)
		}
	}
}

func applyCommand(session *playback.Session, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "s":
		return session.Start()
	case "p":
		return session.TogglePause()
	case "n":
		return session.NextPage()
	case "b":
		return session.PrevPage()
	case "q":
		return session.Finish()
	case "g":
		if len(fields) != 2 {
			return errors.New("usage: g <page>")
		}
		var page int
		if _, err := fmt.Sscanf(fields[1], "%d", &page); err != nil || page < 1 {
			return fmt.Errorf("invalid page %q", fields[1])
		}
		return session.GoToPage(page - 1)
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

// snapshotPrinter writes the parts of each snapshot that changed since the
// previous one.
type snapshotPrinter struct {
	w       io.Writer
	last    playback.Snapshot
	printed bool
}

func (p *snapshotPrinter) Print(snap playback.Snapshot) {
	first := !p.printed
	last := p.last
	p.last = snap
	p.printed = true

	if first {
		fmt.Fprintf(p.w, "Reading \"%s\" (%d pages)\n", snap.BookTitle, snap.PageCount)
	}
	if snap.AudioLoading && (first || snap.AudioProgress != last.AudioProgress) {
		fmt.Fprintf(p.w, "Loading audio... %.0f%%\n", snap.AudioProgress)
	}
	if first || snap.PageIndex != last.PageIndex {
		fmt.Fprintf(p.w, "\n--- Page %d/%d ---\n", snap.PageIndex+1, snap.PageCount)
	}
	if first || snap.State != last.State {
		fmt.Fprintf(p.w, "[%s]\n", snap.State)
	}
	if !snap.Captions.Same(last.Captions) || (len(snap.Captions) > 0 && snap.PageIndex != last.PageIndex) {
		for _, iv := range snap.Captions {
			fmt.Fprintf(p.w, "  %5.1fs  %s\n", snap.ElapsedSeconds, iv.Text)
		}
	}
	if snap.Closed {
		fmt.Fprintf(p.w, "Session closed (%s)\n", snap.CloseReason)
	}
}

// terminalOutput stands in for an audio device and reports clip playback.
type terminalOutput struct {
	w io.Writer
}

func (o *terminalOutput) Start(clip audio.Handle, offset time.Duration) error {
	if offset > 0 {
		fmt.Fprintf(o.w, "  ♪ %s (from %s)\n", clip.Ref(), offset.Round(100*time.Millisecond))
		return nil
	}
	fmt.Fprintf(o.w, "  ♪ %s\n", clip.Ref())
	return nil
}

func (o *terminalOutput) Stop(audio.Handle) {}
