package cli

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/repository"
)

func newInspectCommand() *Command {
	cmd := &Command{
		Name:        "inspect",
		Description: "Print the descriptor of an artifact",
		Flags:       flag.NewFlagSet("inspect", flag.ContinueOnError),
		Run:         runInspect,
	}
	cmd.Flags.SetOutput(stderr)

	cmd.Flags.String("repo", "", "Filesystem repository directory")
	cmd.Flags.String("server", "", "Read from a depcollect server")

	return cmd
}

func runInspect(args []string) error {
	cmd := newInspectCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}
	repo := cmd.Flags.Lookup("repo").Value.String()
	server := strings.TrimSuffix(cmd.Flags.Lookup("server").Value.String(), "/")

	if cmd.Flags.NArg() != 1 {
		return fmt.Errorf("usage: inspect [-repo dir | -server url] <coordinates>")
	}
	a, err := artifact.Parse(cmd.Flags.Arg(0))
	if err != nil {
		return err
	}

	ctx := context.Background()
	var doc repository.DescriptorDocument
	switch {
	case server != "" && repo == "":
		if err := doJSON(ctx, "GET", server+"/v1/descriptors/"+url.PathEscape(cmd.Flags.Arg(0)), nil, &doc); err != nil {
			return err
		}
	case repo != "" && server == "":
		fs, err := repository.NewFileSystem(repo, nil)
		if err != nil {
			return err
		}
		d, err := fs.ReadDescriptor(ctx, repository.DescriptorRequest{Artifact: a})
		if err != nil {
			return err
		}
		doc = repository.NewDescriptorDocument(d)
	default:
		return fmt.Errorf("exactly one of -repo and -server is required")
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = stdout.Write(out)
	return err
}
