package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/libklein/pypi-dependency-analysis/pkg/communities"
)

// maxListed caps the package names shown per community.
const maxListed = 8

// communitiesCommand creates the communities command.
func (c *CLI) communitiesCommand() *cobra.Command {
	var (
		o          runOpts
		resolution float64
		seed       uint64
		top        int
	)

	cmd := &cobra.Command{
		Use:   "communities <snapshot>",
		Short: "Detect clusters of packages that depend on each other",
		Long: `Communities partitions the dependency graph into clusters of packages
that depend on each other more densely than on the rest of the index,
using Louvain modularity optimization. Typical clusters mirror real
ecosystems: the AWS stack, the scientific stack, the web stack.

Raising --resolution splits the graph into more, smaller communities;
lowering it merges them. The same seed always produces the same
partition.`,
		Example: `  pypigraph communities snapshot.jsonl
  pypigraph communities snapshot.jsonl --resolution 1.5 --top 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, _, err := c.execute(cmd.Context(), args[0], o)
			if err != nil {
				return err
			}

			res := communities.Detect(result.Graph, communities.Options{
				Resolution: resolution,
				Seed:       seed,
			})

			printKeyValue("Communities", strconv.Itoa(len(res.Communities)))
			printKeyValue("Modularity", fmt.Sprintf("%.3f", res.Modularity))

			shown := res.Communities
			if top > 0 && top < len(shown) {
				shown = shown[:top]
			}
			for _, com := range shown {
				fmt.Println()
				fmt.Println(StyleTitle.Render(fmt.Sprintf("Community %d", com.ID)) +
					StyleDim.Render(fmt.Sprintf(" · %d packages", len(com.Packages))))
				fmt.Println("  " + formatPackageList(com.Packages))
			}
			if rest := len(res.Communities) - len(shown); rest > 0 {
				fmt.Println()
				printDetail("%d smaller communities not shown (raise --top)", rest)
			}
			return nil
		},
	}

	addRunFlags(cmd, &o)
	cmd.Flags().Float64Var(&resolution, "resolution", communities.DefaultResolution, "cluster granularity")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for the partition heuristic")
	cmd.Flags().IntVar(&top, "top", 0, "show only the N largest communities (0 = all)")

	return cmd
}

// formatPackageList renders a community's members, truncating long lists.
func formatPackageList(packages []string) string {
	if len(packages) <= maxListed {
		return highlightNames(packages)
	}
	rest := len(packages) - maxListed
	return highlightNames(packages[:maxListed]) + StyleDim.Render(fmt.Sprintf(" +%d more", rest))
}

func highlightNames(packages []string) string {
	styled := make([]string, len(packages))
	for i, name := range packages {
		styled[i] = StyleHighlight.Render(name)
	}
	return strings.Join(styled, StyleDim.Render(", "))
}
