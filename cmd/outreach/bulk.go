package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/app"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

// errDeleteNotConfirmed rejects a bulk delete issued without confirmation.
var errDeleteNotConfirmed = errors.New("bulk delete needs confirmation: pass --yes")

// parseBulkOperation maps "<action> [args...]" onto a bulk operation.
func parseBulkOperation(args []string) (app.BulkOperation, error) {
	if len(args) == 0 {
		return app.BulkOperation{}, errors.New("bulk action required: status, assign, unassign, bounty, divide, enrich or delete")
	}
	action, rest := strings.ToLower(args[0]), args[1:]
	switch action {
	case "status", "move":
		if len(rest) != 1 {
			return app.BulkOperation{}, errors.New("usage: status <stage>")
		}
		return app.PatchOperation(domain.StagePatch(domain.NormalizeStageID(rest[0]))), nil
	case "assign":
		if len(rest) != 1 || strings.TrimSpace(rest[0]) == "" {
			return app.BulkOperation{}, errors.New("usage: assign <user>")
		}
		return app.PatchOperation(domain.AssignPatch(rest[0])), nil
	case "unassign":
		return app.PatchOperation(domain.AssignPatch("")), nil
	case "bounty":
		flag := true
		if len(rest) == 1 {
			switch strings.ToLower(rest[0]) {
			case "on", "true", "yes":
			case "off", "false", "no":
				flag = false
			default:
				return app.BulkOperation{}, errors.New("usage: bounty [on|off]")
			}
		}
		return app.PatchOperation(domain.BountyPatch(flag)), nil
	case "divide":
		if len(rest) == 0 {
			return app.BulkOperation{}, app.ErrNoTargetUsers
		}
		return app.DivideOperation(rest...), nil
	case "enrich":
		return app.EnrichOperation(), nil
	case "delete":
		return app.DeleteOperation(), nil
	default:
		return app.BulkOperation{}, fmt.Errorf("unknown bulk action %q", action)
	}
}

// checkDivideUsers rejects division targets missing from the loaded user list.
// An empty list means the caller may not read users, so names go unchecked.
func checkDivideUsers(board *app.Board, op app.BulkOperation) error {
	if op.Kind != app.BulkDivide {
		return nil
	}
	users := board.Users()
	if len(users) == 0 {
		return nil
	}
	known := make([]string, 0, len(users))
	for _, user := range users {
		known = append(known, user.RollNumber)
	}
	for _, target := range domain.NormalizeUserIDs(op.Users) {
		if !slices.Contains(known, target) {
			return fmt.Errorf("unknown user %q", target)
		}
	}
	return nil
}

// runBulk executes op over the current selection and prints the accounting.
func runBulk(ctx context.Context, out io.Writer, board *app.Board, op app.BulkOperation) error {
	if err := checkDivideUsers(board, op); err != nil {
		return err
	}
	res, err := board.RunBulk(ctx, op)
	if res.Message != "" {
		_, _ = fmt.Fprintln(out, res.Message)
	}
	if report := res.FailureReport(); report != "" {
		_, _ = fmt.Fprintln(out, report)
	}
	if err != nil {
		return errors.New(app.ErrorDetail(err))
	}
	return nil
}

// bulkFlags select the leads a bulk subcommand acts on.
type bulkFlags struct {
	ids        []int64
	allInStage string
	yes        bool
}

// selectTargets fills the board selection from the flags.
func (f bulkFlags) selectTargets(board *app.Board) error {
	sel := board.Selection()
	sel.SetSelectMode(true)
	if stage := strings.TrimSpace(f.allInStage); stage != "" {
		id := domain.NormalizeStageID(stage)
		if !board.Stages().Contains(id) {
			return fmt.Errorf("%w: %q", domain.ErrInvalidStage, stage)
		}
		sel.SelectAll(board.Store().IDsInStage(id))
	}
	for _, raw := range f.ids {
		sel.Select(domain.LeadID(raw))
	}
	if sel.Len() == 0 {
		return app.ErrEmptySelection
	}
	return nil
}

func newBulkCmd(a *cliApp) *cobra.Command {
	var flags bulkFlags
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Apply one action to many leads",
	}
	cmd.PersistentFlags().Int64SliceVar(&flags.ids, "ids", nil, "lead ids to act on")
	cmd.PersistentFlags().StringVar(&flags.allInStage, "all-in-stage", "", "act on every lead in this stage")
	cmd.PersistentFlags().BoolVar(&flags.yes, "yes", false, "confirm destructive actions")

	sub := func(use, short string, args cobra.PositionalArgs) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, args []string) error {
				op, err := parseBulkOperation(append([]string{cmd.Name()}, args...))
				if err != nil {
					return err
				}
				if op.Kind == app.BulkDelete && !flags.yes {
					return errDeleteNotConfirmed
				}
				board, err := a.openBoard(cmd.Context())
				if err != nil {
					return err
				}
				if err := flags.selectTargets(board); err != nil {
					return err
				}
				return runBulk(cmd.Context(), cmd.OutOrStdout(), board, op)
			},
		}
	}
	cmd.AddCommand(
		sub("status <stage>", "Move the leads to one stage; leads without contact are skipped", cobra.ExactArgs(1)),
		sub("assign <user>", "Assign the leads to one user", cobra.ExactArgs(1)),
		sub("unassign", "Clear the assignment", cobra.NoArgs),
		sub("bounty [on|off]", "Set or clear the bounty flag", cobra.MaximumNArgs(1)),
		sub("divide <user>...", "Split the leads evenly across users", cobra.MinimumNArgs(1)),
		sub("enrich", "Look up an email for each lead", cobra.NoArgs),
		sub("delete", "Delete the leads (admin only)", cobra.NoArgs),
	)
	return cmd
}
