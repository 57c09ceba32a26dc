package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/careerkeeper/internal/client/models"
)

func (a *App) RoleModels(ctx context.Context, _ []string) error {
	rms, err := a.coach.ListRoleModels(ctx)
	if err != nil {
		return err
	}
	if len(rms) == 0 {
		fmt.Fprintln(a.out, "No role models.")
		return nil
	}
	for _, rm := range rms {
		fmt.Fprintf(a.out, "%s  %s", rm.ID, rm.Name)
		if rm.Headline != "" {
			fmt.Fprintf(a.out, " - %s", rm.Headline)
		}
		fmt.Fprintln(a.out)
	}
	return nil
}

func (a *App) AddRoleModel(ctx context.Context, _ []string) error {
	name, err := getSimpleText(a.reader, "Name", a.out)
	if err != nil {
		return err
	}
	headline, err := getSimpleText(a.reader, "Headline", a.out)
	if err != nil {
		return err
	}

	rm, res, err := a.coach.AddRoleModel(ctx, models.RoleModel{Name: name, Headline: headline})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added role model %s\n", rm.ID)
	a.printSync(res)
	return nil
}

func (a *App) Targets(ctx context.Context, _ []string) error {
	tjs, err := a.coach.ListTargetJobs(ctx)
	if err != nil {
		return err
	}
	if len(tjs) == 0 {
		fmt.Fprintln(a.out, "No target jobs.")
		return nil
	}
	for _, tj := range tjs {
		done, total := tj.Progress()
		fmt.Fprintf(a.out, "%s  %s (%d/%d)\n", tj.ID, tj.Title, done, total)
		for _, m := range tj.Milestones {
			mark := " "
			if m.Completed {
				mark = "x"
			}
			fmt.Fprintf(a.out, "  [%s] %s %s %s\n", mark, m.ID, m.TargetMonth, m.Title)
		}
	}
	return nil
}

// parseMilestone reads "YYYY-MM title" or just "title".
func parseMilestone(line string) models.Milestone {
	month, rest, _ := strings.Cut(line, " ")
	if _, err := time.Parse("2006-01", month); err == nil && strings.TrimSpace(rest) != "" {
		return models.Milestone{Title: strings.TrimSpace(rest), TargetMonth: month}
	}
	return models.Milestone{Title: line}
}

// AddTarget prompts for a target job and its milestones, one per line.
func (a *App) AddTarget(ctx context.Context, _ []string) error {
	title, err := getSimpleText(a.reader, "Target title", a.out)
	if err != nil {
		return err
	}
	goal, err := getSimpleText(a.reader, "Goal", a.out)
	if err != nil {
		return err
	}
	roleModelID, err := getSimpleText(a.reader, "Role model id (optional)", a.out)
	if err != nil {
		return err
	}
	text, err := getMultiline(a.reader, "Milestones, one per line as \"YYYY-MM title\"", a.out)
	if err != nil {
		return err
	}

	tj := models.TargetJob{Title: title, Goal: goal, RoleModelID: roleModelID, Milestones: []models.Milestone{}}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			tj.Milestones = append(tj.Milestones, parseMilestone(line))
		}
	}

	tj, res, err := a.coach.SaveTargetJob(ctx, tj)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added target job %s\n", tj.ID)
	a.printSync(res)
	return nil
}

// Milestone marks a milestone done (the default) or not done ("undo").
func (a *App) Milestone(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return usage("milestone <target-id> <ms-id> [done|undo]")
	}
	completed := true
	if len(args) == 3 {
		switch args[2] {
		case "done":
		case "undo":
			completed = false
		default:
			return usage("milestone <target-id> <ms-id> [done|undo]")
		}
	}

	res, err := a.coach.SetMilestoneStatus(ctx, args[0], args[1], completed)
	if err != nil {
		return err
	}
	a.printSync(res)
	return nil
}
