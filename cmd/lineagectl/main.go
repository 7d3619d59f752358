// Command lineagectl issues a single getLineage call against a running
// (or locally wired) lineage engine and prints the result, following the
// platform's single-command-CLI pattern.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	applineage "github.com/turtacn/keyip-lineage/internal/application/lineage"
	"github.com/turtacn/keyip-lineage/internal/config"
	domain "github.com/turtacn/keyip-lineage/internal/domain/lineage"
	"github.com/turtacn/keyip-lineage/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/keyip-lineage/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/keyip-lineage/internal/infrastructure/registry"
	"github.com/turtacn/keyip-lineage/internal/infrastructure/search/opensearch"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

type options struct {
	configPath string
	rootUrn    string
	rootType   string
	direction  string
	allowed    []string
	maxHops    int
	offset     int
	count      int
	startMs    int64
	endMs      int64
	explain    bool
	outputJSON bool
}

func main() {
	opts := &options{}

	cmd := &cobra.Command{
		Use:     "lineagectl",
		Short:   "Run one getLineage traversal and print the result",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
		SilenceUsage: true,
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "configs/config.yaml", "config file path")
	flags.StringVar(&opts.rootUrn, "root-urn", "", "root entity urn (required)")
	flags.StringVar(&opts.rootType, "root-type", "", "root entity type (required)")
	flags.StringVar(&opts.direction, "direction", "DOWNSTREAM", "UPSTREAM or DOWNSTREAM")
	flags.StringSliceVar(&opts.allowed, "allowed-entity-types", nil, "restrict traversal to these entity types")
	flags.IntVar(&opts.maxHops, "max-hops", 3, "maximum hop count")
	flags.IntVar(&opts.offset, "offset", 0, "result offset")
	flags.IntVar(&opts.count, "count", 0, "result count (0 means unbounded)")
	flags.Int64Var(&opts.startMs, "start-ms", 0, "inclusive start of the time-range filter, epoch millis (0 means unset)")
	flags.Int64Var(&opts.endMs, "end-ms", 0, "inclusive end of the time-range filter, epoch millis (0 means unset)")
	flags.BoolVar(&opts.explain, "explain", false, "render discovered paths as an ASCII tree instead of JSON")
	flags.BoolVar(&opts.outputJSON, "json", true, "has no effect: the result is printed as JSON whenever --explain is not set")
	cmd.MarkFlagRequired("root-urn")
	cmd.MarkFlagRequired("root-type")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, opts *options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		cfg, err = config.LoadFromEnv()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
	}

	logger, err := logging.NewLogger(logging.LogConfig{Level: cfg.Log.Level, Format: "console", OutputPaths: []string{"stderr"}, ErrorOutputPaths: []string{"stderr"}})
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}

	metrics, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: cfg.Metrics.Namespace}, logger)
	if err != nil {
		return fmt.Errorf("building metrics collector: %w", err)
	}

	osClient, err := opensearch.NewClient(opensearch.ClientConfig{
		Addresses: cfg.OpenSearch.Addresses,
		Username:  cfg.OpenSearch.User,
		Password:  cfg.OpenSearch.Password,
	}, logger)
	if err != nil {
		return fmt.Errorf("connecting to opensearch: %w", err)
	}
	searcher := opensearch.NewSearcher(osClient, opensearch.SearcherConfig{
		DefaultPageSize: cfg.Lineage.BatchSize,
		MaxPageSize:     cfg.Lineage.MaxResultWindow,
		SearchTimeout:   cfg.Lineage.Timeout,
	}, logger)
	searchClient := opensearch.NewLineageSearchAdapter(searcher)

	reg, err := registry.LoadStaticRegistry(cfg.Lineage.RegistrySchema)
	if err != nil {
		return fmt.Errorf("loading edge schema: %w", err)
	}

	service := applineage.NewService(cfg.Lineage.IndexName, searchClient, reg, metrics, logger, cfg.Lineage.Timeout)

	req, err := toRequest(opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Lineage.Timeout+5*time.Second)
	defer cancel()

	result, err := service.GetLineage(ctx, req)
	if err != nil {
		return fmt.Errorf("getLineage failed: %w", err)
	}

	if opts.explain {
		fmt.Fprint(cmd.OutOrStdout(), renderExplainTree(req.Root, result))
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func toRequest(opts *options) (applineage.Request, error) {
	if opts.rootUrn == "" || opts.rootType == "" {
		return applineage.Request{}, fmt.Errorf("--root-urn and --root-type are required")
	}
	var direction domain.Direction
	switch strings.ToUpper(opts.direction) {
	case string(domain.Upstream):
		direction = domain.Upstream
	case string(domain.Downstream):
		direction = domain.Downstream
	default:
		return applineage.Request{}, fmt.Errorf("--direction must be UPSTREAM or DOWNSTREAM, got %q", opts.direction)
	}

	req := applineage.Request{
		Root:      domain.NewUrn(opts.rootUrn, opts.rootType),
		Direction: direction,
		Filters:   domain.GraphFilters{AllowedEntityTypes: opts.allowed},
		MaxHops:   opts.maxHops,
		Offset:    opts.offset,
		Count:     opts.count,
	}
	if opts.startMs != 0 {
		req.StartMs = &opts.startMs
	}
	if opts.endMs != 0 {
		req.EndMs = &opts.endMs
	}
	return req, nil
}

// renderExplainTree draws every discovered path as an indented ASCII tree
// rooted at root, one branch per path, per relationship.
func renderExplainTree(root domain.Urn, result *domain.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", root.Value, root.EntityType())
	if result.TimedOut {
		sb.WriteString("  ! traversal hit its deadline before exhausting the frontier\n")
	}
	fmt.Fprintf(&sb, "total=%d\n", result.Total)

	for _, rel := range result.Relationships {
		for _, path := range rel.Paths {
			// Outgoing paths keep the root at the tail; draw every path
			// root-first.
			if len(path) > 0 && path[0] != root {
				reversed := make(domain.Path, len(path))
				for i, u := range path {
					reversed[len(path)-1-i] = u
				}
				path = reversed
			}
			writePathBranch(&sb, path, rel)
		}
	}
	return sb.String()
}

func writePathBranch(sb *strings.Builder, path domain.Path, rel *domain.LineageRelationship) {
	for i, u := range path {
		if i == 0 {
			continue // root already printed at depth 0
		}
		indent := strings.Repeat("  ", i)
		marker := "-> "
		label := u.Value + " (" + u.EntityType() + ")"
		if i == len(path)-1 {
			label += " [" + rel.Type + ", degree=" + strconv.Itoa(rel.Degree) + "]"
			if rel.IsManual {
				label += " [manual]"
			}
		}
		fmt.Fprintf(sb, "%s%s%s\n", indent, marker, label)
	}
}

//Personal.AI order the ending
