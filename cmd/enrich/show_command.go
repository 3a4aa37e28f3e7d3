package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"video-enrich-go/internal/store"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "List stored enrichments or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.DBPath == "" {
				return errors.New("persistence disabled (DB_PATH=off)")
			}
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			if len(args) == 1 {
				rec, err := st.Get(cmd.Context(), args[0])
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("no enrichment with id %s", args[0])
				}
				if err != nil {
					return err
				}
				return writeJSON(cmd, rec)
			}

			records, err := st.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No enrichments stored")
				return nil
			}
			rows := make([][]string, len(records))
			for i, r := range records {
				rows[i] = []string{
					r.ID,
					r.CreatedAt.Local().Format("2006-01-02 15:04"),
					r.Metadata.Title,
					r.Metadata.DifficultyLevel,
					strconv.FormatInt(r.DurationMs/1000, 10) + "s",
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable("", []string{"ID", "Created", "Title", "Level", "Took"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight}))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of records to list")
	return cmd
}
