package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/app"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/boardview"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

const shellHelp = `commands:
  show                      render the board
  move <id> <stage>         move one lead
  drag <id> <stage|#id>     drag a card onto a stage or another card
  undo | redo               step through stage history
  history                   list recorded transitions
  mode on|off               enter or leave select mode
  select <id>...            add leads to the selection
  deselect <id>...          remove leads from the selection
  select-all [stage]        select every lead, or every lead in one stage
  clear                     clear the selection
  bulk <action> [args]      status, assign, unassign, bounty, divide, enrich, delete
  sync                      re-check the server now
  quit`

// errQuit ends the shell loop.
var errQuit = errors.New("quit")

// shell is one interactive session over a loaded board.
type shell struct {
	board *app.Board
	out   io.Writer
	view  boardview.Options
}

func newShellCmd(a *cliApp) *cobra.Command {
	var view viewFlags
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Work the board interactively while it polls in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			board, err := a.openBoard(cmd.Context())
			if err != nil {
				return err
			}
			// Keep the prompt readable: runtime logs stay in the dev-file sink.
			a.logger.SetConsoleEnabled(false)
			defer a.logger.SetConsoleEnabled(true)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sh := &shell{board: board, out: cmd.OutOrStdout(), view: view.options()}
			sh.show()
			return sh.run(ctx, readLines(ctx, cmd.InOrStdin()))
		},
	}
	view.bind(cmd)
	return cmd
}

// run serves commands from lines until quit or EOF while the poller runs alongside.
func (s *shell) run(ctx context.Context, lines <-chan string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.board.Poller().Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		for {
			s.prompt()
			select {
			case <-gctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					return nil
				}
				err := s.exec(gctx, line)
				switch {
				case errors.Is(err, errQuit):
					return nil
				case errors.Is(err, app.ErrAuthExpired):
					return err
				case err != nil:
					_, _ = fmt.Fprintf(s.out, "error: %s\n", app.ErrorDetail(err))
				}
			}
		}
	})
	return g.Wait()
}

func (s *shell) prompt() {
	mode := ""
	if s.board.Selection().SelectMode() {
		mode = fmt.Sprintf(" [select %d]", s.board.Selection().Len())
	}
	_, _ = fmt.Fprintf(s.out, "%s%s> ", s.board.Stages().Board(), mode)
}

func (s *shell) show() {
	_, _ = fmt.Fprintln(s.out, boardview.Render(boardview.FromBoard(s.board), s.view))
}

// exec runs one command line.
func (s *shell) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		s.board.Poller().Trigger()
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		_, _ = fmt.Fprintln(s.out, shellHelp)
	case "show", "ls":
		s.show()
	case "sync":
		if err := s.board.Sync(ctx); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(s.out, "synced %d leads\n", s.board.Store().Len())
	case "move":
		if len(args) != 2 {
			return errors.New("usage: move <id> <stage>")
		}
		id, err := domain.ParseLeadID(args[0])
		if err != nil {
			return err
		}
		out, err := s.board.MoveLead(ctx, id, domain.StageID(args[1]))
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(s.out, describeTransition(s.board.Stages(), out))
	case "drag":
		return s.drag(ctx, args)
	case "undo", "redo":
		step := s.board.Undo
		if cmd == "redo" {
			step = s.board.Redo
		}
		entry, ok, err := step(ctx)
		if !ok && err == nil {
			_, _ = fmt.Fprintf(s.out, "nothing to %s\n", cmd)
			return nil
		}
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(s.out, "%s #%d: %s -> %s\n", cmd, entry.LeadID, s.board.Stages().Label(entry.From), s.board.Stages().Label(entry.To))
	case "history":
		s.history()
	case "mode":
		if len(args) != 1 {
			return errors.New("usage: mode on|off")
		}
		s.board.Selection().SetSelectMode(args[0] == "on")
	case "select", "deselect":
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		s.board.Selection().SetSelectMode(true)
		if cmd == "select" {
			s.board.Selection().Select(ids...)
		} else {
			s.board.Selection().Deselect(ids...)
		}
	case "select-all":
		s.board.Selection().SetSelectMode(true)
		if len(args) == 0 {
			s.board.Selection().SelectAll(s.board.Store().IDs())
			return nil
		}
		stage := domain.NormalizeStageID(args[0])
		if !s.board.Stages().Contains(stage) {
			return fmt.Errorf("%w: %q", domain.ErrInvalidStage, args[0])
		}
		s.board.Selection().SelectAll(s.board.Store().IDsInStage(stage))
	case "clear":
		s.board.Selection().Clear()
	case "bulk":
		op, err := parseBulkOperation(args)
		if err != nil {
			return err
		}
		if op.Kind == app.BulkDelete && (len(args) < 2 || args[len(args)-1] != "--yes") {
			return errDeleteNotConfirmed
		}
		return runBulk(ctx, s.out, s.board, op)
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

// drag replays a pointer gesture against the rendered layout.
func (s *shell) drag(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: drag <id> <stage|#id>")
	}
	id, err := domain.ParseLeadID(args[0])
	if err != nil {
		return err
	}
	layout := boardview.ComputeLayout(boardview.FromBoard(s.board), s.view)
	layout.Register(s.board.Drag())

	card, ok := layout.Cards[id]
	if !ok {
		return app.ErrLeadNotFound
	}
	var target app.Rect
	if strings.HasPrefix(args[1], "#") {
		other, err := domain.ParseLeadID(args[1])
		if err != nil {
			return err
		}
		if target, ok = layout.Cards[other]; !ok {
			return app.ErrLeadNotFound
		}
	} else if target, ok = layout.Stages[domain.NormalizeStageID(args[1])]; !ok {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStage, args[1])
	}

	drag := s.board.Drag()
	if err := drag.PointerDown(id, card.Center()); err != nil {
		return err
	}
	drag.PointerMove(target.Center())
	out, err := drag.PointerUp(ctx, target.Center())
	switch out.Kind {
	case app.DropMoved:
		_, _ = fmt.Fprintf(s.out, "Moved #%d: %s -> %s\n", id, s.board.Stages().Label(out.From), s.board.Stages().Label(out.To))
	case app.DropNoOp:
		_, _ = fmt.Fprintf(s.out, "#%d already in %s\n", id, s.board.Stages().Label(out.To))
	case app.DropCancelled:
		_, _ = fmt.Fprintln(s.out, "drag cancelled")
	}
	return err
}

func (s *shell) history() {
	entries := s.board.History().Entries()
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(s.out, "no history")
		return
	}
	cursor := s.board.History().Cursor()
	for idx, entry := range entries {
		marker := "  "
		if idx == cursor {
			marker = "> "
		}
		_, _ = fmt.Fprintf(s.out, "%s#%d %s -> %s\n", marker, entry.LeadID, s.board.Stages().Label(entry.From), s.board.Stages().Label(entry.To))
	}
}

func parseIDs(args []string) ([]domain.LeadID, error) {
	if len(args) == 0 {
		return nil, errors.New("at least one id required")
	}
	ids := make([]domain.LeadID, 0, len(args))
	for _, raw := range args {
		for part := range strings.SplitSeq(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			id, err := domain.ParseLeadID(part)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", err, part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
