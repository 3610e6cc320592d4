package output

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"appimagefinder/internal/services/finder/domain"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
	badColor  = color.New(color.FgRed, color.Bold)
)

// PrintSummary renders records per architecture, then what the scan skipped
func PrintSummary(w io.Writer, res domain.Result, files []string) error {
	archs, groups := res.ByArch()

	byArch := tablewriter.NewWriter(w)
	byArch.Header([]string{"Architecture", "Records", "Repos"})
	byArch.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var rows [][]string
	for _, a := range archs {
		repos := map[string]struct{}{}
		for _, r := range groups[a] {
			repos[r.Repo] = struct{}{}
		}
		rows = append(rows, []string{a, strconv.Itoa(len(groups[a])), strconv.Itoa(len(repos))})
	}
	if err := byArch.Bulk(rows); err != nil {
		return err
	}
	if err := byArch.Render(); err != nil {
		return err
	}

	st := res.Stats
	skips := tablewriter.NewWriter(w)
	skips.Header([]string{"Counter", "Value"})
	skips.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := skips.Bulk([][]string{
		{"hours ok", strconv.Itoa(st.ShardsOK)},
		{"hours unavailable", strconv.Itoa(st.ShardsUnavailable)},
		{"hours failed", strconv.Itoa(st.ShardsFailed)},
		{"cache hits", strconv.Itoa(st.CacheHits)},
		{"lines", strconv.Itoa(st.Lines)},
		{"malformed lines", strconv.Itoa(st.Malformed)},
		{"release events", strconv.Itoa(st.ReleaseEvents)},
		{"continuous releases", strconv.Itoa(st.ContinuousDropped)},
		{"malformed repos", strconv.Itoa(st.MalformedRepos)},
		{"older duplicates", strconv.Itoa(st.Collapsed)},
	}); err != nil {
		return err
	}
	if err := skips.Render(); err != nil {
		return err
	}

	switch {
	case res.Partial:
		_, err := warnColor.Fprintf(w, "Interrupted after %d of the requested hours; %d records kept\n", st.Shards, len(res.Records))
		return err
	case res.Empty:
		_, err := badColor.Fprintln(w, "No AppImage releases found in the window")
		return err
	}
	for _, f := range files {
		if _, err := fmt.Fprintf(w, "Wrote %s\n", f); err != nil {
			return err
		}
	}
	_, err := okColor.Fprintf(w, "Found %d AppImage records in %s\n", len(res.Records), st.Elapsed.Round(time.Millisecond))
	return err
}
