package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/depcollect/pkg/api"
	"github.com/platinummonkey/depcollect/pkg/collection"
	"github.com/platinummonkey/depcollect/pkg/collector"
	"github.com/platinummonkey/depcollect/pkg/config"
	"github.com/platinummonkey/depcollect/pkg/graph"
	"github.com/platinummonkey/depcollect/pkg/observability"
	"github.com/platinummonkey/depcollect/pkg/repository"
)

// FormatText renders the tree as indented text
const FormatText = "text"

func newCollectCommand() *Command {
	cmd := &Command{
		Name:        "collect",
		Description: "Collect the transitive dependencies of an artifact",
		Flags:       flag.NewFlagSet("collect", flag.ContinueOnError),
		Run:         runCollect,
	}
	cmd.Flags.SetOutput(stderr)

	cmd.Flags.String("request", "", "YAML request file")
	cmd.Flags.String("root", "", "Root dependency coordinates (groupId:artifactId[:extension[:classifier]]:version)")
	cmd.Flags.String("scope", "", "Scope of the root dependency")
	cmd.Flags.String("repo", "", "Filesystem repository directory")
	cmd.Flags.String("server", "", "Collect on a depcollect server instead of locally")
	cmd.Flags.String("format", FormatText, "Output format: text, tree, cytoscape, flat or order")
	cmd.Flags.String("manager", "", "Dependency manager: classic, transitive, default or none")
	cmd.Flags.String("selector", "", "Dependency selector, e.g. default, all, scope:test,provided")
	cmd.Flags.String("traverser", "", "Dependency traverser: fat or all")
	cmd.Flags.String("filter", "", "Version filter: none, highest, snapshot or highest+snapshot")
	cmd.Flags.String("cycle-policy", "", "Cycle identity: coordinate or versionless")
	cmd.Flags.Bool("verbose", false, "Record premanaged values")
	cmd.Flags.Int("parallelism", 4, "Concurrent descriptor reads")
	cmd.Flags.String("log-level", "warn", "Log level")
	cmd.Flags.Bool("fail-on-error", true, "Exit non-zero when any dependency failed")

	return cmd
}

// collectOptions are the parsed collect flags
type collectOptions struct {
	body        api.CollectRequest
	repo        string
	server      string
	format      string
	parallelism int
	failOnError bool
	log         *logrus.Logger
}

func runCollect(args []string) error {
	cmd := newCollectCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	opts, err := parseCollectFlags(cmd.Flags)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if opts.server != "" {
		return collectRemote(ctx, opts)
	}
	return collectLocal(ctx, opts)
}

func parseCollectFlags(fs *flag.FlagSet) (*collectOptions, error) {
	get := func(name string) string { return fs.Lookup(name).Value.String() }

	level, err := observability.ParseLevel(get("log-level"))
	if err != nil {
		return nil, err
	}
	opts := &collectOptions{
		repo:        get("repo"),
		server:      strings.TrimSuffix(get("server"), "/"),
		format:      get("format"),
		failOnError: get("fail-on-error") == "true",
		log:         observability.NewLogger(level, stderr),
	}
	if _, err := fmt.Sscan(get("parallelism"), &opts.parallelism); err != nil || opts.parallelism < 1 {
		return nil, fmt.Errorf("invalid parallelism %q", get("parallelism"))
	}
	if opts.format != FormatText && !api.ValidFormat(opts.format) {
		return nil, fmt.Errorf("unknown format %q", opts.format)
	}
	if (opts.repo == "") == (opts.server == "") {
		return nil, fmt.Errorf("exactly one of -repo and -server is required")
	}

	switch {
	case get("request") != "" && get("root") != "":
		return nil, fmt.Errorf("-request and -root are mutually exclusive")
	case get("request") != "":
		data, err := os.ReadFile(get("request"))
		if err != nil {
			return nil, fmt.Errorf("failed to read request: %w", err)
		}
		if err := yaml.Unmarshal(data, &opts.body); err != nil {
			return nil, fmt.Errorf("failed to parse request: %w", err)
		}
	case get("root") != "":
		opts.body.Root = &repository.DependencyEntry{Coords: get("root"), Scope: get("scope")}
	default:
		return nil, fmt.Errorf("-request or -root is required")
	}

	// flags given explicitly override the request file
	overrides := opts.body.Session
	if overrides == nil {
		overrides = &api.SessionOptions{}
	}
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		switch f.Name {
		case "manager":
			overrides.Manager = v
		case "selector":
			overrides.Selector = v
		case "traverser":
			overrides.Traverser = v
		case "filter":
			overrides.Filter = v
		case "cycle-policy":
			overrides.CyclePolicy = v
		case "verbose":
			verbose := v == "true"
			overrides.Verbose = &verbose
		}
	})
	opts.body.Session = overrides

	return opts, nil
}

func collectLocal(ctx context.Context, opts *collectOptions) error {
	fs, err := repository.NewFileSystem(opts.repo, opts.log)
	if err != nil {
		return err
	}

	req, err := opts.body.ToRequest(nil)
	if err != nil {
		return err
	}
	cfg := opts.body.Session.Overlay(config.CollectorConfig{Parallelism: opts.parallelism})
	session, err := cfg.Session()
	if err != nil {
		return err
	}

	c := collector.New(fs, fs, collector.WithLogger(opts.log), collector.WithParallelism(opts.parallelism))
	start := time.Now()
	res, err := c.Collect(ctx, session, req)
	took := time.Since(start)

	var partial *collection.CollectionError
	if err != nil && !errors.As(err, &partial) {
		return err
	}

	if opts.format == FormatText {
		if err := graph.WriteTree(stdout, res.Root); err != nil {
			return err
		}
		for _, cycle := range res.Cycles() {
			fmt.Fprintf(stdout, "cycle: %s\n", cycle)
		}
	} else {
		resp, err := api.NewCollectResponse(res, opts.format, took)
		if err != nil {
			return err
		}
		if err := writeJSON(resp); err != nil {
			return err
		}
	}

	return reportErrors(opts, errorStrings(res.Exceptions()))
}

func collectRemote(ctx context.Context, opts *collectOptions) error {
	format := opts.format
	if format == FormatText {
		format = api.FormatTree
	}

	var resp api.CollectResponse
	if err := doJSON(ctx, "POST", opts.server+"/v1/collect?format="+format, opts.body, &resp); err != nil {
		return err
	}

	if opts.format == FormatText {
		writeNodeView(resp.Root, 0)
		for _, c := range resp.Cycles {
			fmt.Fprintf(stdout, "cycle: %s\n", strings.Join(c.Cyclic, " -> "))
		}
	} else if err := writeJSON(resp); err != nil {
		return err
	}

	return reportErrors(opts, resp.Errors)
}

func reportErrors(opts *collectOptions, errs []string) error {
	for _, e := range errs {
		fmt.Fprintf(stderr, "error: %s\n", e)
	}
	if len(errs) > 0 && opts.failOnError {
		return fmt.Errorf("collection finished with %d errors", len(errs))
	}
	return nil
}

func errorStrings(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}

func writeNodeView(v *api.NodeView, depth int) {
	if v == nil {
		return
	}
	name := v.Artifact
	if name == "" {
		name = "(root)"
	}
	line := strings.Repeat("  ", depth) + name
	if v.Scope != "" {
		line += " (" + v.Scope + ")"
	}
	if len(v.Managed) > 0 {
		line += " [managed: " + strings.Join(v.Managed, ",") + "]"
	}
	fmt.Fprintln(stdout, line)
	for _, c := range v.Children {
		writeNodeView(c, depth+1)
	}
}

func writeJSON(v interface{}) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
