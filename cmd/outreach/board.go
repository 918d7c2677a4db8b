package main

import (
	"bufio"
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

// viewFlags are the rendering flags shared by board, watch and shell.
type viewFlags struct {
	stages []string
	width  int
}

func (v *viewFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&v.stages, "stage", nil, "only render these stages")
	cmd.Flags().IntVar(&v.width, "width", 0, "column width in cells")
}

func (v viewFlags) options() boardview.Options {
	opts := boardview.Options{ColumnWidth: v.width}
	for _, stage := range v.stages {
		opts.Stages = append(opts.Stages, domain.StageID(stage))
	}
	return opts
}

func newBoardCmd(a *cliApp) *cobra.Command {
	var view viewFlags
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Render the current board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			board, err := a.openBoard(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), boardview.Render(boardview.FromBoard(board), view.options()))
			return nil
		},
	}
	view.bind(cmd)
	return cmd
}

func newMoveCmd(a *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <stage>",
		Short: "Move one lead to another stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseLeadID(args[0])
			if err != nil {
				return err
			}
			board, err := a.openBoard(cmd.Context())
			if err != nil {
				return err
			}
			out, err := board.MoveLead(cmd.Context(), id, domain.StageID(args[1]))
			if err != nil {
				return errors.New(app.ErrorDetail(err))
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), describeTransition(board.Stages(), out))
			return nil
		},
	}
}

func newUpdateCmd(a *cliApp) *cobra.Command {
	var (
		stage, email, phone, assign, priority, notes string
		bounty                                       bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit one lead; a stage change goes through the same guard as a drag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseLeadID(args[0])
			if err != nil {
				return err
			}
			var patch domain.Patch
			flags := cmd.Flags()
			if flags.Changed("stage") {
				s := domain.StageID(stage)
				patch.Stage = &s
			}
			if flags.Changed("email") {
				patch.Email = &email
			}
			if flags.Changed("phone") {
				patch.Phone = &phone
			}
			if flags.Changed("assign") {
				patch.AssignedTo = &assign
			}
			if flags.Changed("priority") {
				patch.Priority = &priority
			}
			if flags.Changed("notes") {
				patch.Notes = &notes
			}
			if flags.Changed("bounty") {
				patch.IsBounty = &bounty
			}
			if patch.IsEmpty() {
				return domain.ErrEmptyPatch
			}

			board, err := a.openBoard(cmd.Context())
			if err != nil {
				return err
			}
			out, err := board.UpdateLead(cmd.Context(), id, patch)
			if err != nil {
				return errors.New(app.ErrorDetail(err))
			}
			if out.Moved {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), describeTransition(board.Stages(), out))
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated #%d\n", id)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&stage, "stage", "", "target stage")
	flags.StringVar(&email, "email", "", "email address")
	flags.StringVar(&phone, "phone", "", "phone number")
	flags.StringVar(&assign, "assign", "", "assignee roll number; empty clears")
	flags.StringVar(&priority, "priority", "", "outreach priority, e.g. \"Tier 1\"")
	flags.StringVar(&notes, "notes", "", "free-form notes")
	flags.BoolVar(&bounty, "bounty", false, "bounty flag")
	return cmd
}

func newCreateCmd(a *cliApp) *cobra.Command {
	var lead domain.Lead
	var stage string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Add a lead to the board",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lead.Name = strings.Join(args, " ")
			lead.Stage = domain.StageID(stage)
			board, err := a.openBoard(cmd.Context())
			if err != nil {
				return err
			}
			created, err := board.CreateLead(cmd.Context(), lead)
			if err != nil {
				return errors.New(app.ErrorDetail(err))
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created #%d %s in %s\n", created.ID, created.Name, board.Stages().Label(created.Stage))
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&stage, "stage", "", "initial stage (defaults to the board's first stage)")
	flags.StringVar(&lead.Email, "email", "", "email address")
	flags.StringVar(&lead.Phone, "phone", "", "phone number")
	flags.StringVar(&lead.Priority, "priority", "", "outreach priority")
	flags.StringVar(&lead.Notes, "notes", "", "free-form notes")
	return cmd
}

// describeTransition renders one single-lead outcome line.
func describeTransition(stages domain.StageSet, out app.TransitionOutcome) string {
	if !out.Moved {
		return fmt.Sprintf("#%d already in %s", out.LeadID, stages.Label(out.To))
	}
	return fmt.Sprintf("Moved #%d: %s -> %s", out.LeadID, stages.Label(out.From), stages.Label(out.To))
}

func newWatchCmd(a *cliApp) *cobra.Command {
	var view viewFlags
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-render the board on every poll; Enter re-checks now, q quits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			board, err := a.openBoard(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, boardview.Render(boardview.FromBoard(board), view.options()))

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			changed := make(chan struct{}, 1)
			unsubscribe := board.Store().Subscribe(func(ev app.StoreEvent) {
				if ev.Kind != app.StoreReplaced {
					return
				}
				select {
				case changed <- struct{}{}:
				default:
				}
			})
			defer unsubscribe()

			lines := readLines(ctx, cmd.InOrStdin())
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return board.Poller().Run(gctx)
			})
			g.Go(func() error {
				for {
					select {
					case <-gctx.Done():
						return nil
					case line, ok := <-lines:
						if !ok || strings.TrimSpace(line) == "q" {
							cancel()
							return nil
						}
						board.Poller().Trigger()
					case <-changed:
						_, _ = fmt.Fprintln(out, boardview.Render(boardview.FromBoard(board), view.options()))
					}
				}
			})
			return g.Wait()
		},
	}
	view.bind(cmd)
	return cmd
}

// readLines streams lines from r until EOF or ctx is done. A read already blocked on r
// finishes only when r yields.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
