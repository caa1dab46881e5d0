package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/platinummonkey/depcollect/pkg/artifact"
	"github.com/platinummonkey/depcollect/pkg/collection"
	"github.com/platinummonkey/depcollect/pkg/config"
	"github.com/platinummonkey/depcollect/pkg/graph"
	"github.com/platinummonkey/depcollect/pkg/repository"
)

// Response formats
const (
	FormatTree      = "tree"
	FormatCytoscape = "cytoscape"
	FormatFlat      = "flat"
	FormatOrder     = "order"
)

// Formats lists every supported response format
var Formats = []string{FormatTree, FormatCytoscape, FormatFlat, FormatOrder}

// ErrInvalidRequest wraps every problem with a CollectRequest
var ErrInvalidRequest = errors.New("invalid collect request")

// CollectRequest is the body of POST /v1/collect. The same document, in
// YAML, is accepted by the CLI.
//
// Set Root for a rooted collection, RootArtifact plus Dependencies for a
// rootless one, or only Dependencies for several independent roots.
type CollectRequest struct {
	Root                *repository.DependencyEntry  `json:"root,omitempty" yaml:"root,omitempty"`
	RootArtifact        string                       `json:"rootArtifact,omitempty" yaml:"rootArtifact,omitempty"`
	Dependencies        []repository.DependencyEntry `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	ManagedDependencies []repository.DependencyEntry `json:"managedDependencies,omitempty" yaml:"managedDependencies,omitempty"`
	Repositories        []repository.Remote          `json:"repositories,omitempty" yaml:"repositories,omitempty"`
	Context             string                       `json:"context,omitempty" yaml:"context,omitempty"`
	Session             *SessionOptions              `json:"session,omitempty" yaml:"session,omitempty"`
}

// SessionOptions override the server's collection defaults. Empty fields
// keep the default.
type SessionOptions struct {
	Manager     string `json:"manager,omitempty" yaml:"manager,omitempty"`
	Selector    string `json:"selector,omitempty" yaml:"selector,omitempty"`
	Traverser   string `json:"traverser,omitempty" yaml:"traverser,omitempty"`
	Filter      string `json:"filter,omitempty" yaml:"filter,omitempty"`
	CyclePolicy string `json:"cyclePolicy,omitempty" yaml:"cyclePolicy,omitempty"`
	Verbose     *bool  `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Overlay applies the options on top of base
func (o *SessionOptions) Overlay(base config.CollectorConfig) config.CollectorConfig {
	if o == nil {
		return base
	}
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&base.Manager, o.Manager)
	override(&base.Selector, o.Selector)
	override(&base.Traverser, o.Traverser)
	override(&base.Filter, o.Filter)
	override(&base.CyclePolicy, o.CyclePolicy)
	if o.Verbose != nil {
		base.Verbose = *o.Verbose
	}
	return base
}

// ToRequest converts the document into a collection request. defaultRepos
// are used when the document lists no repositories.
func (r CollectRequest) ToRequest(defaultRepos []repository.Remote) (*collection.Request, error) {
	deps, err := toDependencies("dependencies", r.Dependencies)
	if err != nil {
		return nil, err
	}
	managed, err := toDependencies("managedDependencies", r.ManagedDependencies)
	if err != nil {
		return nil, err
	}

	repos := r.Repositories
	if len(repos) == 0 {
		repos = defaultRepos
	}

	var req *collection.Request
	switch {
	case r.Root != nil && r.RootArtifact != "":
		return nil, fmt.Errorf("%w: root and rootArtifact are mutually exclusive", ErrInvalidRequest)
	case r.Root != nil:
		root, err := r.Root.ToDependency()
		if err != nil {
			return nil, fmt.Errorf("%w: root: %v", ErrInvalidRequest, err)
		}
		req = collection.NewRequest(root, repos)
		req.Dependencies = deps
	case r.RootArtifact != "":
		a, err := artifact.Parse(r.RootArtifact)
		if err != nil {
			return nil, fmt.Errorf("%w: rootArtifact: %v", ErrInvalidRequest, err)
		}
		req = collection.NewRootlessRequest(a, deps, repos)
	case len(deps) > 0:
		req = collection.NewMultiRootRequest(deps, repos)
	default:
		return nil, fmt.Errorf("%w: nothing to collect", ErrInvalidRequest)
	}

	req.RequestContext = r.Context
	return req.WithManaged(managed...), nil
}

func toDependencies(field string, entries []repository.DependencyEntry) ([]artifact.Dependency, error) {
	out := make([]artifact.Dependency, 0, len(entries))
	for i, e := range entries {
		d, err := e.ToDependency()
		if err != nil {
			return nil, fmt.Errorf("%w: %s[%d]: %v", ErrInvalidRequest, field, i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// NodeView is the JSON form of a collected node
type NodeView struct {
	Artifact     string            `json:"artifact"`
	Scope        string            `json:"scope,omitempty"`
	Optional     bool              `json:"optional,omitempty"`
	Constraint   string            `json:"constraint,omitempty"`
	Managed      []string          `json:"managed,omitempty"`
	Premanaged   map[string]string `json:"premanaged,omitempty"`
	Repositories []string          `json:"repositories,omitempty"`
	Children     []*NodeView       `json:"children,omitempty"`
}

// NewNodeView converts a collected tree
func NewNodeView(n *graph.Node) *NodeView {
	if n == nil {
		return nil
	}
	v := &NodeView{Constraint: n.VersionConstraint}
	if !n.Synthetic() {
		v.Artifact = n.Artifact().Key()
	}
	if n.Dependency != nil {
		v.Scope = n.Dependency.Scope
		v.Optional = n.Dependency.Optional
	}
	if n.Managed != 0 {
		v.Managed = strings.Split(n.Managed.String(), ",")
	}
	if version, ok := n.PremanagedVersion(); ok {
		v.premanaged("version", version)
	}
	if scope, ok := n.PremanagedScope(); ok {
		v.premanaged("scope", scope)
	}
	if optional, ok := n.PremanagedOptional(); ok {
		v.premanaged("optional", fmt.Sprint(optional))
	}
	for _, r := range n.Repositories {
		v.Repositories = append(v.Repositories, r.ID)
	}
	for _, c := range n.Children {
		v.Children = append(v.Children, NewNodeView(c))
	}
	return v
}

func (v *NodeView) premanaged(field, value string) {
	if v.Premanaged == nil {
		v.Premanaged = map[string]string{}
	}
	v.Premanaged[field] = value
}

// CycleView is the JSON form of a cycle
type CycleView struct {
	Preceding []string `json:"preceding,omitempty"`
	Cyclic    []string `json:"cyclic"`
}

// Stats summarises a collection
type Stats struct {
	Nodes      int   `json:"nodes"`
	Cycles     int   `json:"cycles"`
	Errors     int   `json:"errors"`
	DurationMS int64 `json:"durationMs"`
}

// CollectResponse is the body returned by POST /v1/collect. Exactly one of
// Root, Graph, Artifacts and BuildOrder is set, depending on the format.
type CollectResponse struct {
	Format     string                       `json:"format"`
	Root       *NodeView                    `json:"root,omitempty"`
	Graph      *graph.CytoscapeGraph        `json:"graph,omitempty"`
	Artifacts  []repository.DependencyEntry `json:"artifacts,omitempty"`
	BuildOrder []string                     `json:"buildOrder,omitempty"`
	Cycles     []CycleView                  `json:"cycles,omitempty"`
	Errors     []string                     `json:"errors,omitempty"`
	Stats      Stats                        `json:"stats"`
}

// ValidFormat reports whether format is one of Formats
func ValidFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// NewCollectResponse renders res in the given format
func NewCollectResponse(res *collection.Result, format string, took time.Duration) (*CollectResponse, error) {
	resp := &CollectResponse{Format: format}

	switch format {
	case FormatTree, "":
		resp.Format = FormatTree
		resp.Root = NewNodeView(res.Root)
	case FormatCytoscape:
		g := graph.ToCytoscape(res.Root)
		resp.Graph = &g
	case FormatFlat:
		for _, d := range graph.Flatten(res.Root) {
			resp.Artifacts = append(resp.Artifacts, repository.NewDependencyEntry(d))
		}
	case FormatOrder:
		dag, err := graph.BuildDAG(res.Root)
		if err != nil {
			return nil, err
		}
		if resp.BuildOrder, err = dag.BuildOrder(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown format %q (must be one of %s)", format, strings.Join(Formats, ", "))
	}

	cycles := res.Cycles()
	for _, c := range cycles {
		resp.Cycles = append(resp.Cycles, CycleView{Preceding: keys(c.Preceding), Cyclic: keys(c.Cyclic)})
	}
	exceptions := res.Exceptions()
	for _, err := range exceptions {
		resp.Errors = append(resp.Errors, err.Error())
	}
	resp.Stats = Stats{
		Nodes:      graph.Count(res.Root),
		Cycles:     len(cycles),
		Errors:     len(exceptions),
		DurationMS: took.Milliseconds(),
	}
	return resp, nil
}

func keys(deps []artifact.Dependency) []string {
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		out = append(out, d.Artifact.Key())
	}
	return out
}
