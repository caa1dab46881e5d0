package cli

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/observability"
	"github.com/platinummonkey/depcollect/pkg/repository"
)

func newPublishCommand() *Command {
	cmd := &Command{
		Name:        "publish",
		Description: "Store a descriptor in a repository",
		Flags:       flag.NewFlagSet("publish", flag.ContinueOnError),
		Run:         runPublish,
	}
	cmd.Flags.SetOutput(stderr)

	cmd.Flags.String("file", "", "YAML descriptor file")
	cmd.Flags.String("artifact", "", "Artifact coordinates, when the file does not name them")
	cmd.Flags.String("repo", "", "Filesystem repository directory")
	cmd.Flags.String("server", "", "Publish to a depcollect server")
	cmd.Flags.String("sql-driver", repository.DriverPostgres, "Version index driver: postgres or sqlite3")
	cmd.Flags.String("sql-dsn", "", "Version index to record the new version in")

	return cmd
}

func runPublish(args []string) error {
	cmd := newPublishCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}
	get := func(name string) string { return cmd.Flags.Lookup(name).Value.String() }

	if get("file") == "" {
		return fmt.Errorf("-file is required")
	}
	data, err := os.ReadFile(get("file"))
	if err != nil {
		return fmt.Errorf("failed to read descriptor: %w", err)
	}

	var a artifact.Artifact
	if coords := get("artifact"); coords != "" {
		if a, err = artifact.Parse(coords); err != nil {
			return err
		}
	}
	d, err := repository.DecodeDescriptor(data, a)
	if err != nil {
		return err
	}
	if d.Artifact.IsZero() {
		return fmt.Errorf("descriptor names no artifact, use -artifact")
	}

	ctx := context.Background()
	repo, server := get("repo"), strings.TrimSuffix(get("server"), "/")
	switch {
	case server != "" && repo == "":
		doc := repository.NewDescriptorDocument(d)
		if err := doJSON(ctx, "PUT", server+"/v1/descriptors/"+url.PathEscape(d.Artifact.Key()), doc, nil); err != nil {
			return err
		}
	case repo != "" && server == "":
		stack, err := repository.Open(ctx, repository.Config{
			Type:           repository.TypeFileSystem,
			FilesystemRoot: repo,
			SQLDriver:      get("sql-driver"),
			SQLDSN:         get("sql-dsn"),
		}, observability.NewLogger(logrus.WarnLevel, stderr))
		if err != nil {
			return err
		}
		defer stack.Close()
		if err := stack.Publish(ctx, d); err != nil {
			return err
		}
	default:
		return fmt.Errorf("exactly one of -repo and -server is required")
	}

	fmt.Fprintf(stdout, "Published %s\n", d.Artifact)
	return nil
}
