package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rhyrak/allston-schedule/internal/slots"
	"github.com/rhyrak/allston-schedule/pkg/model"
)

func runCatalog(cmd *cobra.Command, opts *options) error {
	campus, err := model.ParseCampus(opts.campus)
	if err != nil {
		return err
	}

	patterns := slots.Supported
	if opts.frequency != 0 {
		patterns = []model.Pattern{{Frequency: opts.frequency, Duration: opts.duration}}
	}

	w := cmd.OutOrStdout()
	for _, p := range patterns {
		legal, err := slots.LegalMeetingTimes(p, campus)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "---------- %s %s: %d meeting times ----------\n", campus, p, len(legal))
		for _, mt := range legal {
			ct := slots.ToCourseTime(mt)
			fmt.Fprintf(w, "%-16s %-8s %s-%s\n", mt, ct.DayString(","), ct.Start, ct.End)
		}
	}
	return nil
}
