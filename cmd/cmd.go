// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// serveCommand runs the HTTP server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the site, functions and checklist API",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Override server.host",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Override server.port",
			},
			&cli.BoolFlag{
				Name:  "pwa",
				Usage: "Route / as an installed app (login or dashboard)",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for configuration and the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config.toml template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Where to write the template",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the SQLite database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupRollback,
			},
			{
				Name:   "migrations",
				Usage:  "List applied migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupMigrations,
			},
		},
	}
}

// authCommand handles account and session operations against a running server
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your Second Brain account session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in and store the session locally",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Usage:    "Account password",
						Sources:  cli.EnvVars("BRAIN_PASSWORD"),
						Required: true,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account and sign in",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Username (3+ characters)", Required: true},
					&cli.StringFlag{Name: "full-name", Usage: "Full name", Required: true},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Account password", Sources: cli.EnvVars("BRAIN_PASSWORD"), Required: true},
					&cli.BoolFlag{Name: "accept-terms", Usage: "Accept the terms and conditions"},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and forget the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Resolve the stored session with a loading timeout",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// tasksCommand handles the daily checklist
func tasksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tasks",
		Aliases: []string{"checklist"},
		Usage:   "Daily checklist operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List today's tasks ordered by due time",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.TasksList,
			},
			{
				Name:  "add",
				Usage: "Add a task",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "task"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "due", Aliases: []string{"d"}, Usage: "Due time, e.g. 09:00", Required: true},
					&cli.StringFlag{Name: "category", Usage: "Category, e.g. morning", Value: "general"},
				},
				Action: r.TasksAdd,
			},
			{
				Name:      "toggle",
				Usage:     "Toggle a task's completion",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.TasksToggle,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a task",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.TasksDelete,
			},
			{
				Name:  "export",
				Usage: "Export the checklist to CSV, Markdown or text",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv, md or txt",
						Value:   "md",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (base name for csv, directory for md)",
					},
				},
				Action: r.TasksExport,
			},
		},
	}
}

// checkoutCommand starts a lifetime-access purchase
func checkoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "checkout",
		Usage: "Start a Brain+ checkout for the signed-in user",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "intent",
				Usage: "Create a payment intent and print its client secret instead",
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the checkout URL without opening it",
			},
		},
		Action: r.Checkout,
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the server's HTTP API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:  "dump",
				Usage: "Server state dump (health, session, breaker, tasks, video progress)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Save dump to api_dump.json",
					},
				},
				Action: r.APIDump,
			},
		},
	}
}

// breakerCommand inspects the auth circuit breaker
func breakerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "breaker",
		Usage: "Inspect or reset the auth circuit breaker",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show breaker state, failures and time until reset",
				Action: r.BreakerStatus,
			},
			{
				Name:   "reset",
				Usage:  "Force the breaker closed",
				Action: r.BreakerReset,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for the interactive checklist.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive daily checklist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI owns the terminal",
				Value: "./tmp/brain-tui.log",
			},
		},
		Action: r.TUI,
	}
}
