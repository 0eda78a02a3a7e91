package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/libklein/pypi-dependency-analysis/pkg/export"
	"github.com/libklein/pypi-dependency-analysis/pkg/normalize"
	"github.com/libklein/pypi-dependency-analysis/pkg/reach"
)

// graphCommand creates the graph command for structural queries and exports.
func (c *CLI) graphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Inspect and export the dependency graph",
	}

	cmd.AddCommand(c.graphInfoCommand())
	cmd.AddCommand(c.graphReachCommand())
	cmd.AddCommand(c.graphExportCommand())

	return cmd
}

// graphInfoCommand creates the "graph info" subcommand.
func (c *CLI) graphInfoCommand() *cobra.Command {
	var o runOpts

	cmd := &cobra.Command{
		Use:   "info <snapshot>",
		Short: "Print structural statistics for a snapshot's graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, _, err := c.execute(cmd.Context(), args[0], o)
			if err != nil {
				return err
			}

			printKeyValue("Packages", strconv.Itoa(result.Stats.Packages))
			printKeyValue("Superseded", strconv.Itoa(result.Stats.Superseded))
			printKeyValue("Nodes", strconv.Itoa(result.Stats.NodeCount))
			printKeyValue("Edges", strconv.Itoa(result.Stats.EdgeCount))
			if gaps := result.Stats.NodeCount - result.Stats.Packages; gaps > 0 {
				printKeyValue("Without metadata", strconv.Itoa(gaps))
			}

			type degree struct {
				name string
				n    int
			}
			g := result.Graph
			rows := make([]degree, 0, g.NodeCount())
			for _, name := range g.Nodes() {
				rows = append(rows, degree{name: name, n: g.InDegree(name)})
			}
			slices.SortFunc(rows, func(a, b degree) int {
				if a.n != b.n {
					return b.n - a.n
				}
				return strings.Compare(a.name, b.name)
			})

			if len(rows) > 0 && rows[0].n > 0 {
				fmt.Println()
				fmt.Println(StyleTitle.Render("Most direct dependents"))
				for _, row := range rows[:min(5, len(rows))] {
					if row.n == 0 {
						break
					}
					fmt.Printf("  %-40s %s\n", row.name, StyleNumber.Render(strconv.Itoa(row.n)))
				}
			}
			return nil
		},
	}

	addRunFlags(cmd, &o)
	return cmd
}

// graphReachCommand creates the "graph reach" subcommand.
func (c *CLI) graphReachCommand() *cobra.Command {
	var (
		o       runOpts
		reverse bool
	)

	cmd := &cobra.Command{
		Use:   "reach <snapshot> <package>",
		Short: "List everything transitively reachable from a package",
		Long: `Reach lists the transitive dependency closure of a package: every
package that would be pulled in by installing it. With --reverse it
lists the dependents instead, every package that would be affected if
this one broke.`,
		Example: `  pypigraph graph reach snapshot.jsonl flask
  pypigraph graph reach snapshot.jsonl urllib3 --reverse`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, _, err := c.execute(cmd.Context(), args[0], o)
			if err != nil {
				return err
			}

			pkg := normalize.Name(args[1])
			g := result.Graph
			if reverse {
				g = result.Reverse
			}
			if !g.HasNode(pkg) {
				printWarning("Package not in graph: %s", pkg)
				return nil
			}

			q, err := reach.NewQuerier(g, 0)
			if err != nil {
				return err
			}
			names := q.Reachable(pkg)

			if reverse {
				fmt.Println(StyleTitle.Render(fmt.Sprintf("%d packages depend on %s", len(names), pkg)))
			} else {
				fmt.Println(StyleTitle.Render(fmt.Sprintf("%d packages reachable from %s", len(names), pkg)))
			}
			for _, name := range names {
				fmt.Println("  " + name)
			}
			return nil
		},
	}

	addRunFlags(cmd, &o)
	cmd.Flags().BoolVar(&reverse, "reverse", false, "walk dependents instead of dependencies")
	return cmd
}

// graphExportCommand creates the "graph export" subcommand.
func (c *CLI) graphExportCommand() *cobra.Command {
	var (
		o       runOpts
		root    string
		depth   int
		reverse bool
		format  string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "export <snapshot>",
		Short: "Export the graph, or a package neighborhood, for visualization",
		Long: `Export writes the dependency graph as JSON, Graphviz DOT, or a rendered
SVG. With --root only the neighborhood within --depth hops of that
package is exported, which keeps renders of large snapshots readable.`,
		Example: `  pypigraph graph export snapshot.jsonl --format json -o graph.json
  pypigraph graph export snapshot.jsonl --root flask --depth 2 --format svg -o flask.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if format != "json" && format != "dot" && format != "svg" {
				return fmt.Errorf("invalid format: %q (must be one of: json, dot, svg)", format)
			}

			result, _, err := c.execute(ctx, args[0], o)
			if err != nil {
				return err
			}

			g := result.Graph
			if root != "" {
				root = normalize.Name(root)
				sub, err := export.Neighborhood(g, root, depth, reverse)
				if err != nil {
					return err
				}
				g = sub
			}

			var data []byte
			switch format {
			case "json":
				data, err = export.GraphJSON(g)
				if err != nil {
					return err
				}
			case "dot":
				data = []byte(export.ToDOT(g, export.DOTOptions{Root: root}))
			case "svg":
				sp := newSpinnerWithContext(ctx, "Laying out graph")
				sp.Start()
				dot := export.ToDOT(g, export.DOTOptions{Root: root})
				sp.UpdateMessage("Rendering SVG")
				data, err = export.RenderSVG(dot)
				if err != nil {
					sp.StopWithError("Render failed")
					return err
				}
				sp.Stop()
			}

			out, err := openOutput(output)
			if err != nil {
				return err
			}
			defer out.Close()

			if _, err := out.Write(data); err != nil {
				return err
			}
			if output != "" {
				printSuccess("Exported %d nodes, %d edges", g.NodeCount(), g.EdgeCount())
				printFile(output)
			}
			return nil
		},
	}

	addRunFlags(cmd, &o)
	cmd.Flags().StringVar(&root, "root", "", "restrict the export to this package's neighborhood")
	cmd.Flags().IntVar(&depth, "depth", 2, "neighborhood radius in hops (with --root)")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "walk dependents instead of dependencies (with --root)")
	cmd.Flags().StringVar(&format, "format", "dot", "output format: json, dot, or svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: stdout)")

	return cmd
}
