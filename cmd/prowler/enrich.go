package main

import (
	"github.com/spf13/cobra"

	"prowler/adapters/excel"
	"prowler/app"
	"prowler/domain/interaction"
	"prowler/ports"
)

func newEnrichCmd(e *env) *cobra.Command {
	var (
		selector     interaction.Selector
		dmf, process string
		profiles     string
		column       string
		out, label   string
		persist      bool
		gisMin       float64
		gisMax       float64
		threshold    float64
	)

	cmd := &cobra.Command{
		Use:   "enrich [table]",
		Short: "Score a selection of a screen for enrichment in one column",
		Long: `Select rows of an interaction table and score every category of a column
against its rate in the whole table.

Example: prowler enrich screen.tsv --smf-below-one --dmf positive --column BSS --out bss.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			selector.DMF = interaction.DMFFilter(dmf)
			selector.Process = interaction.ProcessFilter(process)
			selector.Profiles = interaction.ProfileFilter(profiles)
			if cmd.Flags().Changed("gis-min") {
				selector.GISMin = &gisMin
			}
			if cmd.Flags().Changed("gis-max") {
				selector.GISMax = &gisMax
			}
			if cmd.Flags().Changed("threshold") {
				selector.Threshold = &threshold
			}

			table, err := excel.NewTableReader(e.logger).ReadInteractions(ctx, args[0])
			if err != nil {
				return err
			}

			var repo ports.RunRepository
			if persist {
				r, err := e.openStore(ctx)
				if err != nil {
					return err
				}
				defer r.Close()
				repo = r
			}

			res, err := app.NewEnrichmentService(repo, e.logger).Analyze(ctx, app.EnrichmentRequest{
				Table:    table,
				Selector: selector,
				Column:   interaction.Column(column),
				Label:    label,
			})
			if err != nil {
				return err
			}
			if out != "" {
				if err := excel.NewReportWriter().WriteEnrichment(out, res.Enrichment); err != nil {
					return err
				}
				e.logger.Info("wrote enrichment report to %s", out)
			}
			return printJSON(res)
		},
	}

	f := cmd.Flags()
	f.StringVar(&dmf, "dmf", "", "keep only positive or negative DMF rows")
	f.BoolVar(&selector.SMFBelowOne, "smf-below-one", false, "keep rows whose single mutants both have SMF < 1")
	f.Float64Var(&gisMin, "gis-min", 0, "keep rows with GIS above this value")
	f.Float64Var(&gisMax, "gis-max", 0, "keep rows with GIS below this value")
	f.BoolVar(&selector.NoFlatPlus, "no-flat-plus", false, "drop rows with an all-plus profile")
	f.BoolVar(&selector.NoFlatMinus, "no-flat-minus", false, "drop rows with an all-minus profile")
	f.StringVar(&process, "process", "", "keep identical or different bioprocess rows")
	f.StringVar(&profiles, "profiles", "", "keep similar or unsimilar profile pairs (needs --threshold)")
	f.Float64Var(&threshold, "threshold", 0, "PSS threshold for --profiles")
	f.StringVar(&column, "column", string(interaction.ColumnPSS), "column to bin by")
	f.StringVarP(&out, "out", "o", "", "write the enrichment table to an .xlsx, .csv or .tsv file")
	f.StringVar(&label, "label", "", "label stored with the table")
	f.BoolVar(&persist, "store", false, "save the table in the run store")

	return cmd
}
