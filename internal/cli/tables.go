package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/soulaudio/soul-player-sub002/dsp/effectchain"
	"github.com/soulaudio/soul-player-sub002/dsp/resample"
)

// WriteEffects lists the effects reg can build.
func WriteEffects(w io.Writer, reg *effectchain.Registry) error {
	if reg == nil {
		reg = effectchain.DefaultRegistry()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tHOT UPDATE\tDESCRIPTION")

	for _, id := range reg.IDs() {
		info, ok := effectchain.BuiltinInfo(id)
		if !ok {
			fmt.Fprintf(tw, "%s\t-\t-\t-\n", id)
			continue
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id, info.Name, yesNo(info.SupportsInPlaceUpdate), info.Description)
	}

	return tw.Flush()
}

// WriteBackends lists the registered resampler backends, best first.
func WriteBackends(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BACKEND\tPRIORITY")

	for _, b := range resample.Backends() {
		fmt.Fprintf(tw, "%s\t%d\n", b.Kind, b.Priority)
	}

	fmt.Fprintf(tw, "\nSIMD\t%s\n", resample.SIMDLevel())

	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}

	return "no"
}
