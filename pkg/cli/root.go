package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
)

// Version is set at build time
var Version = "dev"

// stdout and stderr are swapped out by tests
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// NewRootCommand creates the root command
func NewRootCommand() *Command {
	root := &Command{
		Name:        "depcollect",
		Description: "depcollect - transitive dependency graph collector",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("depcollect", flag.ExitOnError),
	}

	root.Subcommands["collect"] = newCollectCommand()
	root.Subcommands["inspect"] = newInspectCommand()
	root.Subcommands["publish"] = newPublishCommand()
	root.Subcommands["version"] = newVersionCommand()

	return root
}

// Execute runs the command with the process arguments
func (c *Command) Execute() error {
	return c.ExecuteArgs(os.Args[1:])
}

// ExecuteArgs runs the command with args
func (c *Command) ExecuteArgs(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		return c.usage()
	}

	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command usage
func (c *Command) usage() error {
	fmt.Fprintf(stdout, "Usage: %s <command> [args]\n\n", c.Name)
	fmt.Fprintf(stdout, "Commands:\n")
	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(stdout, "  %-15s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}

func newVersionCommand() *Command {
	return &Command{
		Name:        "version",
		Description: "Print the version",
		Flags:       flag.NewFlagSet("version", flag.ContinueOnError),
		Run: func([]string) error {
			fmt.Fprintf(stdout, "depcollect %s\n", Version)
			return nil
		},
	}
}
