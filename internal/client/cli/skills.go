package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/careerkeeper/internal/client/models"
)

func (a *App) Skills(ctx context.Context, _ []string) error {
	skills, err := a.skills.List(ctx)
	if err != nil {
		return err
	}
	if len(skills) == 0 {
		fmt.Fprintln(a.out, "No custom skills.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPROFICIENCY\tEVIDENCE")
	for _, s := range skills {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, s.Proficiency, s.Evidence)
	}
	return tw.Flush()
}

// AddSkill prompts for a skill; an existing skill with the same name is
// updated in place.
func (a *App) AddSkill(ctx context.Context, _ []string) error {
	name, err := getSimpleText(a.reader, "Skill name", a.out)
	if err != nil {
		return err
	}
	level, err := getSimpleText(a.reader, "Proficiency (learning, comfortable, expert)", a.out)
	if err != nil {
		return err
	}
	proficiency, err := models.ParseProficiency(level)
	if err != nil {
		return err
	}
	evidence, err := getSimpleText(a.reader, "Evidence (optional)", a.out)
	if err != nil {
		return err
	}

	skill, res, err := a.skills.Save(ctx, models.CustomSkill{Name: name, Proficiency: proficiency, Evidence: evidence})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved skill %s\n", skill.Name)
	a.printSync(res)
	return nil
}

// DeleteSkill takes the rest of the line as the name, so names may contain
// spaces.
func (a *App) DeleteSkill(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("delskill <name>")
	}
	res, err := a.skills.Delete(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	a.printSync(res)
	return nil
}
