package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/1broseidon/tilewm/internal/ipc"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")

	styleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleLabel = lipgloss.NewStyle().Foreground(colorGray).Width(16)
	styleValue = lipgloss.NewStyle().Bold(true)
	styleOK    = lipgloss.NewStyle().Foreground(colorGreen)
	styleDim   = lipgloss.NewStyle().Foreground(colorDim)
	styleBox   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

// isTerminal reports whether w is a terminal; anything else gets JSON.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (c *cli) statusCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the daemon's layout state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := c.client().GetStatus()
			if err != nil {
				return err
			}
			if asJSON || !isTerminal(c.stdout) {
				return writeJSON(c.stdout, status)
			}
			c.printf("%s\n", renderStatus(status))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON even on a terminal")
	return cmd
}

func field(label, value string) string {
	return styleLabel.Render(label) + styleValue.Render(value)
}

func renderStatus(s *ipc.StatusData) string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("tilewm"))
	if s.DaemonRunning {
		b.WriteString(" " + styleOK.Render("running"))
	}
	b.WriteString("\n\n")

	lines := []string{
		field("workspace", fmt.Sprintf("%d / %d", s.ActiveWorkspace, s.Workspaces)),
		field("layout", s.Layout),
		field("windows", fmt.Sprintf("%d (%d tiled)", s.WindowCount, s.TiledCount)),
		field("gaps", fmt.Sprintf("in %d, out %d", s.GapsIn, s.GapsOut)),
		field("master", fmt.Sprintf("%d @ %.2f", s.MasterCount, s.MasterFactor)),
		field("uptime", (time.Duration(s.UptimeSeconds) * time.Second).String()),
	}
	if s.Tiling {
		lines = append(lines, field("tiling", "in progress"))
	}
	b.WriteString(strings.Join(lines, "\n"))

	for _, m := range s.Monitors {
		b.WriteString("\n\n")
		b.WriteString(renderMonitor(m))
	}
	return b.String()
}

func renderMonitor(m ipc.MonitorStatus) string {
	title := fmt.Sprintf("monitor %d", m.Index)
	if m.Name != "" {
		title += " " + m.Name
	}
	header := styleTitle.Render(title) + " " +
		styleDim.Render(fmt.Sprintf("%s  %dx%d+%d+%d", m.Layout, m.Width, m.Height, m.X, m.Y))

	rows := []string{header}
	if len(m.Placements) == 0 {
		rows = append(rows, styleDim.Render("no tiled windows"))
	}
	for _, p := range m.Placements {
		rows = append(rows, fmt.Sprintf("%-10s %s",
			fmt.Sprintf("0x%x", p.Window),
			styleDim.Render(fmt.Sprintf("%dx%d+%d+%d", p.Width, p.Height, p.X, p.Y))))
	}
	return styleBox.Render(strings.Join(rows, "\n"))
}

func renderWindows(data *ipc.WindowsData) string {
	if len(data.Windows) == 0 {
		return styleDim.Render("no managed windows") + "\n"
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render(fmt.Sprintf("%-10s %-10s %-4s %-4s %s", "ID", "STATE", "WS", "MON", "CLASS")))
	b.WriteString("\n")
	for _, w := range data.Windows {
		fmt.Fprintf(&b, "%-10s %-10s %-4d %-4d %s %s\n",
			fmt.Sprintf("0x%x", w.ID), w.State, w.Workspace, w.Monitor, w.Class, styleDim.Render(w.Title))
	}
	return b.String()
}
