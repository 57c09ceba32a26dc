package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App implements it;
// tests provide a lightweight stub. args are the tokens after the command.
type execIface interface {
	Jobs(ctx context.Context, args []string) error
	AddJob(ctx context.Context, args []string) error
	SetStatus(ctx context.Context, args []string) error
	DeleteJob(ctx context.Context, args []string) error
	Resumes(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
	Skills(ctx context.Context, args []string) error
	AddSkill(ctx context.Context, args []string) error
	DeleteSkill(ctx context.Context, args []string) error
	RoleModels(ctx context.Context, args []string) error
	AddRoleModel(ctx context.Context, args []string) error
	Targets(ctx context.Context, args []string) error
	AddTarget(ctx context.Context, args []string) error
	Milestone(ctx context.Context, args []string) error
	Pending(ctx context.Context, args []string) error
	Sync(ctx context.Context, args []string) error
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	Wipe(ctx context.Context, args []string) error
}

const helpText = `Available commands:
  jobs                              list saved jobs
  addjob                            add a job
  status <job-id> <status>          change a job's status
  deljob <job-id>                   delete a job
  resumes                           list resume profiles
  import <file.json>                merge a resume into the first profile
  skills                            list custom skills
  addskill                          add or update a skill
  delskill <name>                   delete a skill
  rolemodels                        list role models
  addrolemodel                      add a role model
  targets                           list target jobs with milestones
  addtarget                         add a target job
  milestone <target-id> <ms-id> [done|undo]
  pending                           show writes waiting to be synced
  sync                              push pending writes and pull remote data
  login [token]                     sign in with an access token
  logout                            sign out, keeping local data
  wipe                              erase all local data on this device
  exit | quit                       leave the program`

// runREPL reads commands line by line from reader and dispatches them to a
// until EOF or "exit"/"quit". Command errors are printed and the loop goes
// on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	commands := map[string]func(context.Context, []string) error{
		"jobs":         a.Jobs,
		"addjob":       a.AddJob,
		"status":       a.SetStatus,
		"deljob":       a.DeleteJob,
		"resumes":      a.Resumes,
		"import":       a.Import,
		"skills":       a.Skills,
		"addskill":     a.AddSkill,
		"delskill":     a.DeleteSkill,
		"rolemodels":   a.RoleModels,
		"addrolemodel": a.AddRoleModel,
		"targets":      a.Targets,
		"addtarget":    a.AddTarget,
		"milestone":    a.Milestone,
		"pending":      a.Pending,
		"sync":         a.Sync,
		"login":        a.Login,
		"logout":       a.Logout,
		"wipe":         a.Wipe,
	}

	for {
		printlnFn(fmt.Sprintf("ck %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		parts := strings.Fields(line)
		if len(parts) == 0 {
			if err != nil {
				return
			}
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpText)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			run, ok := commands[cmd]
			if !ok {
				printlnFn("Unknown command:", cmd)
				break
			}
			if cerr := run(ctx, args); cerr != nil {
				printlnFn("Error:", cerr)
			}
		}

		if err != nil {
			return
		}
	}
}
