// Package display paints status snapshots. The shipped device carries a 20×4
// character LCD; CharLCD reproduces that layout on any io.Writer so the same
// four lines show up on a console or a serial-attached panel.
package display

import (
	"fmt"
	"io"

	"coolerctl/internal/models"
)

// Renderer receives a read-only snapshot once per control cycle.
type Renderer interface {
	Render(snap models.Snapshot)
}

const (
	columns = 20
	rows    = 4
)

// CharLCD renders the 20×4 panel layout to a writer.
type CharLCD struct {
	w io.Writer
}

func NewCharLCD(w io.Writer) *CharLCD {
	return &CharLCD{w: w}
}

func (d *CharLCD) Render(snap models.Snapshot) {
	lines := [rows]string{
		fmt.Sprintf("T:%.1fC H:%.1f%%", snap.TemperatureC, snap.HumidityPct),
		fmt.Sprintf("P:%.1f hPa", snap.PressureHPa),
		coolerLine(snap),
		fmt.Sprintf("Uptime: %ds", snap.UptimeSeconds),
	}
	for _, line := range lines {
		fmt.Fprintln(d.w, pad(line))
	}
}

// coolerLine mirrors the device panel: mode and current-run seconds while
// running, mode and total elapsed seconds once stopped, READY before the
// first start.
func coolerLine(snap models.Snapshot) string {
	if !snap.EverStarted {
		return "Cooler: READY"
	}
	if snap.CoolerRunning {
		return fmt.Sprintf("%s: ON %ds", modeLabel(snap.Mode), snap.RuntimeSec)
	}
	return fmt.Sprintf("%s: OFF %ds", modeLabel(snap.Mode), snap.ElapsedSec)
}

func modeLabel(mode string) string {
	switch mode {
	case models.ModeManual:
		return "Manual"
	case models.ModePID:
		return "PID"
	default:
		return "Auto"
	}
}

// pad clips or right-pads to the panel width so every repaint fully
// overwrites the previous one.
func pad(s string) string {
	if len(s) > columns {
		return s[:columns]
	}
	return fmt.Sprintf("%-*s", columns, s)
}
