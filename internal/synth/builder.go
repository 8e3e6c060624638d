package synth

import (
	"log/slog"

	"github.com/lex00/wetwire-fargate-go/internal/config"
	"github.com/lex00/wetwire-fargate-go/internal/tags"
	"github.com/lex00/wetwire-fargate-go/internal/topology"
)

// builder carries the shared state of one synthesis pass. The first
// construction error sticks; later adds become no-ops.
type builder struct {
	cfg    config.EnvConfig
	topo   *topology.Topology
	common tags.TagSet
	log    *slog.Logger
	err    error
}

func newBuilder(cfg config.EnvConfig, log *slog.Logger) *builder {
	return &builder{
		cfg:  cfg,
		topo: topology.New(),
		common: tags.Common(tags.Inputs{
			Project:     cfg.Tags.Project,
			Environment: cfg.Tags.Environment,
			AppName:     cfg.Tags.AppName,
			Owner:       cfg.Tags.Owner,
			CostCenter:  cfg.Tags.CostCenter,
		}),
		log: log,
	}
}

// add declares a node and returns it so callers can take references.
func (b *builder) add(n topology.ResourceNode) topology.ResourceNode {
	if b.err != nil {
		return n
	}
	if _, err := b.topo.Add(n); err != nil {
		b.err = err
	}
	return n
}

// tagged returns the common tags with a Name tag.
func (b *builder) tagged(name string) tags.TagSet {
	return tags.WithName(b.common, name)
}

// output declares a named output.
func (b *builder) output(name, description string, value any) {
	if b.err != nil {
		return
	}
	if err := b.topo.AddOutput(topology.Output{Name: name, Description: description, Value: value}); err != nil {
		b.err = err
	}
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
