package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/careerkeeper/internal/client/models"
)

// Resumes prints each profile with its blocks.
func (a *App) Resumes(ctx context.Context, _ []string) error {
	profiles, err := a.resumes.List(ctx)
	if err != nil {
		return err
	}
	for _, p := range profiles {
		fmt.Fprintf(a.out, "%s  %s (%d blocks)\n", p.ID, p.Name, len(p.Blocks))
		for _, b := range p.Blocks {
			fmt.Fprintf(a.out, "  [%s] %s", b.Type, b.Title)
			if b.Organization != "" {
				fmt.Fprintf(a.out, " @ %s", b.Organization)
			}
			fmt.Fprintln(a.out)
			for _, bullet := range b.Bullets {
				fmt.Fprintf(a.out, "    - %s\n", bullet)
			}
		}
	}
	return nil
}

// Import reads a resume profile from a JSON file and merges its blocks into
// the first profile.
func (a *App) Import(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("import <file.json>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var imported models.ResumeProfile
	if err := json.Unmarshal(data, &imported); err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	merged, res, err := a.resumes.Import(ctx, imported)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported into %q, now %d blocks\n", merged.Name, len(merged.Blocks))
	a.printSync(res)
	return nil
}
