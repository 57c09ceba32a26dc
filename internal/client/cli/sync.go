package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/careerkeeper/internal/timex"
)

// Pending lists the writes waiting in the outbox.
func (a *App) Pending(ctx context.Context, _ []string) error {
	ops, err := a.outbox.Pending(ctx)
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		fmt.Fprintln(a.out, "Nothing to sync.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTITY\tOP\tKEY\tQUEUED\tATTEMPTS\tLAST ERROR")
	for _, op := range ops {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			op.Entity, op.Kind, op.Key, timex.ToISO(op.CreatedAt), op.Attempts, op.LastError)
	}
	return tw.Flush()
}

// Sync replays the outbox and then refreshes every collection from the
// remote store.
func (a *App) Sync(ctx context.Context, _ []string) error {
	userID, ok := a.userID(ctx)
	if !ok || a.pinger == nil {
		fmt.Fprintln(a.out, "Local-only: no remote store or no signed-in user.")
		return nil
	}

	res, err := a.outbox.Replay(ctx, userID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Sent %d, failed %d, pending %d\n", res.Sent, res.Failed, res.Pending)

	if _, err := a.jobs.List(ctx); err != nil {
		return err
	}
	if _, err := a.resumes.List(ctx); err != nil {
		return err
	}
	if _, err := a.skills.List(ctx); err != nil {
		return err
	}
	if _, err := a.coach.ListRoleModels(ctx); err != nil {
		return err
	}
	if _, err := a.coach.ListTargetJobs(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Synced.")
	return nil
}
