package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/fenrir-sec/fenrir/pkg/campaign"
	"github.com/fenrir-sec/fenrir/pkg/payloads"
	"github.com/fenrir-sec/fenrir/pkg/smuggling"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	alertStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	payloadStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// signalContext derives a context cancelled by SIGINT or the deadline.
func signalContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func printCampaignReport(report *campaign.Report) {
	fmt.Println(titleStyle.Render("Campaign " + report.RunID))
	fmt.Println(labelStyle.Render("target:    ") + report.Target)
	fmt.Println(labelStyle.Render("duration:  ") + report.Duration.Round(time.Millisecond).String())
	fmt.Println(labelStyle.Render("categories:") + fmt.Sprintf(" %d", report.TotalCategories))
	fmt.Println(labelStyle.Render("requests:  ") + fmt.Sprintf(" %d", report.TotalRequests))

	switch {
	case report.TotalVulnerabilities > 0:
		fmt.Println(alertStyle.Render(fmt.Sprintf("vulnerabilities: %d", report.TotalVulnerabilities)))
	default:
		fmt.Println(okStyle.Render("vulnerabilities: 0"))
	}

	for _, r := range report.Results {
		if !r.Vulnerable {
			continue
		}
		fmt.Printf("  %s %s %s %s\n",
			alertStyle.Render(string(r.Kind)),
			r.Method,
			r.TargetURL,
			payloadStyle.Render(truncatePayload(r.Payload)))
	}

	for _, f := range report.Failures {
		fmt.Println(warnStyle.Render("failed: "+f.Category) + labelStyle.Render(" ("+f.Err+")"))
	}
}

func printSmugglingReport(report *smuggling.Report) {
	fmt.Println(titleStyle.Render("Smuggling probes: " + report.Target))
	for family, s := range report.Families {
		fmt.Printf("  %s tested=%d successful=%d suspicious=%d errors=%d\n",
			labelStyle.Render(string(family)), s.Tested, s.Successful, s.Suspicious, s.Errors)
	}
	if len(report.Successful) == 0 {
		fmt.Println(okStyle.Render("no potential desync detected"))
	}
	for _, out := range report.Successful {
		fmt.Println(alertStyle.Render(fmt.Sprintf("POTENTIAL DESYNC %s score=%d status=%d",
			out.Name, out.SuccessScore, out.StatusCode)))
		for name, hit := range out.Indicators {
			if hit {
				fmt.Println("    " + warnStyle.Render(name))
			}
		}
	}
	for _, out := range report.Suspicious {
		fmt.Println(warnStyle.Render(fmt.Sprintf("suspicious %s score=%d status=%d",
			out.Name, out.SuccessScore, out.StatusCode)))
	}
}

func printPayloadSets(sets []payloads.Set) {
	for _, set := range sets {
		fmt.Println(titleStyle.Render(set.Name) + labelStyle.Render(" ("+set.Category+")"))
		for _, p := range set.Payloads {
			fmt.Println("  " + payloadStyle.Render(truncatePayload(p)))
		}
	}
}

func truncatePayload(p string) string {
	const max = 80
	if len(p) <= max {
		return p
	}
	return p[:max] + "..."
}
