package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/careerkeeper/internal/client/models"
	"github.com/dmitrijs2005/careerkeeper/internal/client/services"
	"github.com/fatih/color"
)

var errUsage = errors.New("usage")

func usage(format string) error {
	return fmt.Errorf("%w: %s", errUsage, format)
}

var syncColors = map[services.SyncStatus]*color.Color{
	services.SyncOK:        color.New(color.FgGreen),
	services.SyncLocalOnly: color.New(color.FgCyan),
	services.SyncQueued:    color.New(color.FgYellow),
	services.SyncFailed:    color.New(color.FgRed, color.Bold),
}

func (a *App) printSync(res services.SyncResult) {
	c, ok := syncColors[res.Status]
	if !ok {
		c = color.New(color.Reset)
	}
	fmt.Fprintf(a.out, "sync: %s\n", c.Sprint(res))
}

// Jobs prints the saved jobs, newest first.
func (a *App) Jobs(ctx context.Context, _ []string) error {
	jobs, err := a.jobs.List(ctx)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Fprintln(a.out, "No saved jobs.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOMPANY\tPOSITION\tSTATUS\tMATCH")
	for _, j := range jobs {
		match := "-"
		if !j.Analysis.IsEmpty() {
			match = fmt.Sprintf("%d%%", j.Analysis.MatchScore)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", j.ID, j.Company, j.Position, j.Status, match)
	}
	return tw.Flush()
}

// AddJob prompts for the job fields and saves it with status "saved".
func (a *App) AddJob(ctx context.Context, _ []string) error {
	company, err := getSimpleText(a.reader, "Company", a.out)
	if err != nil {
		return err
	}
	position, err := getSimpleText(a.reader, "Position", a.out)
	if err != nil {
		return err
	}
	location, err := getSimpleText(a.reader, "Location", a.out)
	if err != nil {
		return err
	}
	url, err := getSimpleText(a.reader, "Posting URL", a.out)
	if err != nil {
		return err
	}
	description, err := getMultiline(a.reader, "Job description", a.out)
	if err != nil {
		return err
	}

	job, res, err := a.jobs.Add(ctx, models.Job{
		Company:     company,
		Position:    position,
		Location:    location,
		URL:         url,
		Description: description,
		Status:      models.JobStatusSaved,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added job %s\n", job.ID)
	a.printSync(res)
	return nil
}

// SetStatus moves a job to another pipeline stage.
func (a *App) SetStatus(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("status <job-id> <status>")
	}
	status, err := models.ParseJobStatus(args[1])
	if err != nil {
		return err
	}
	res, err := a.jobs.SetStatus(ctx, args[0], status)
	if err != nil {
		return err
	}
	a.printSync(res)
	return nil
}

func (a *App) DeleteJob(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("deljob <job-id>")
	}
	res, err := a.jobs.Delete(ctx, args[0])
	if err != nil {
		return err
	}
	a.printSync(res)
	return nil
}
