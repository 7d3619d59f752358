// Package registry provides a concrete, file-backed implementation of the
// lineage engine's Registry port so getLineage has something real to run
// against in local and test deployments.
package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	domain "github.com/turtacn/keyip-lineage/internal/domain/lineage"
	"github.com/turtacn/keyip-lineage/pkg/errors"
)

// edgeSpec is the YAML shape of one registered edge leaving an entity
// type, in one traversal direction.
type edgeSpec struct {
	RelationType   string `mapstructure:"relationType"`
	Direction      string `mapstructure:"direction"`
	OppositeEntity string `mapstructure:"oppositeEntity"`
}

// entitySpec groups the edges registered for one entity type, split by
// the traversal direction (UPSTREAM/DOWNSTREAM) they apply to.
type entitySpec struct {
	Upstream   []edgeSpec `mapstructure:"upstream"`
	Downstream []edgeSpec `mapstructure:"downstream"`
}

// schemaFile is the root shape of configs/edge-schema.yaml: a map from
// entity type (case-insensitive) to its registered edges.
type schemaFile struct {
	Entities map[string]entitySpec `mapstructure:"entities"`
}

// StaticRegistry implements domain.Registry by reading a fixed edge
// schema loaded once at construction, the same viper-based YAML loading
// idiom internal/config uses for the rest of the platform's
// configuration. Registry content is deliberately out of scope for the
// traversal engine itself — this is a thin, swappable adapter, not
// authoritative schema storage.
type StaticRegistry struct {
	entities map[string]entitySpec
}

// LoadStaticRegistry reads and parses the YAML edge schema at path.
func LoadStaticRegistry(path string) (*StaticRegistry, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("registry: failed to read edge schema %q: %w", path, err)
	}

	var file schemaFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("registry: failed to unmarshal edge schema: %w", err)
	}

	normalized := make(map[string]entitySpec, len(file.Entities))
	for entityType, spec := range file.Entities {
		normalized[strings.ToLower(entityType)] = spec
	}
	return &StaticRegistry{entities: normalized}, nil
}

// GetLineageRelationships implements domain.Registry: it returns the
// EdgeInfo set registered for entityType in direction, or an empty slice
// (not an error) when entityType is absent from the schema — an unknown
// entity type simply has no outgoing edges, per spec.md's
// empty-registry-is-not-an-error invariant.
func (r *StaticRegistry) GetLineageRelationships(ctx context.Context, entityType string, direction domain.Direction) ([]domain.EdgeInfo, error) {
	spec, ok := r.entities[strings.ToLower(entityType)]
	if !ok {
		return nil, nil
	}

	var edges []edgeSpec
	switch direction {
	case domain.Upstream:
		edges = spec.Upstream
	case domain.Downstream:
		edges = spec.Downstream
	default:
		return nil, errors.InvalidFilterCondition("unknown traversal direction " + string(direction))
	}

	out := make([]domain.EdgeInfo, 0, len(edges))
	for _, e := range edges {
		dir, err := parseEdgeDirection(e.Direction)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.EdgeInfo{
			RelationType:   e.RelationType,
			Direction:      dir,
			OppositeEntity: e.OppositeEntity,
		})
	}
	return out, nil
}

func parseEdgeDirection(s string) (domain.EdgeDirection, error) {
	switch strings.ToUpper(s) {
	case string(domain.Outgoing):
		return domain.Outgoing, nil
	case string(domain.Incoming):
		return domain.Incoming, nil
	default:
		return "", errors.InvalidFilterCondition("unknown edge direction " + s + " in edge schema")
	}
}
