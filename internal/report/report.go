// Package report renders rewards, products and recalculation results as
// plain text tables.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"itch-rewards/internal/model"
	"itch-rewards/internal/service"
)

// NoData is printed in place of an empty table.
const NoData = "No data"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// oneLine keeps multi-line descriptions on a single table row.
func oneLine(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", `\n`)
}

// Products writes a product table.
func Products(w io.Writer, products []model.Product) error {
	if len(products) == 0 {
		_, err := fmt.Fprintln(w, NoData)
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\n", p.ID, p.Name)
	}
	return tw.Flush()
}

// Rewards writes a reward table for one product.
func Rewards(w io.Writer, product model.Product, rewards []model.RewardState) error {
	if _, err := fmt.Fprintf(w, "Rewards for %s (id: %s)\n", product.Name, product.ID); err != nil {
		return err
	}
	if len(rewards) == 0 {
		_, err := fmt.Fprintln(w, NoData)
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tAMOUNT\tCLAIMED\tREMAINING\tPRICE\tARCHIVED\tDESCRIPTION")
	for _, r := range rewards {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
			r.ID, r.Title, r.Amount, r.Claimed, r.Remaining(), r.Price,
			strconv.FormatBool(r.Archived), oneLine(r.Description))
	}
	return tw.Flush()
}

// Change renders a single change the way the recalculation reports it.
func Change(c model.Change) string {
	switch c.Kind {
	case model.ChangeQuantity:
		return fmt.Sprintf("Changing %s reward %d quantity from %s to %s", c.ProductName, c.RewardID, c.Old, c.New)
	case model.ChangeDescription:
		return fmt.Sprintf("Changing %s reward %d description to:\n%s", c.ProductName, c.RewardID, c.New)
	default:
		return fmt.Sprintf("Changing %s reward %d %s from %q to %q", c.ProductName, c.RewardID, c.Kind, c.Old, c.New)
	}
}

// Run writes the outcome of a recalculation run.
func Run(w io.Writer, r *service.RunReport) error {
	if !r.Committed {
		if _, err := fmt.Fprintln(w, "Dry run, results will not be saved"); err != nil {
			return err
		}
	}
	for _, warning := range r.Warnings {
		if _, err := fmt.Fprintln(w, "WARN "+warning); err != nil {
			return err
		}
	}
	for _, c := range r.Changes {
		if _, err := fmt.Fprintln(w, Change(c)); err != nil {
			return err
		}
	}
	if !r.HasChanges() {
		if _, err := fmt.Fprintln(w, "All rewards are up to date"); err != nil {
			return err
		}
	}
	if len(r.Results) == 0 {
		return nil
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "GAME\tREWARD\tCLAIMED\tOLD\tNEW\tRAW")
	for _, res := range r.Results {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n",
			res.Rule.ProductName, res.Rule.RewardID, res.Previous.Claimed,
			res.Previous.Amount, res.Result.TruncatedAmount, res.Result.RawAmount.StringFixed(2))
	}
	return tw.Flush()
}
