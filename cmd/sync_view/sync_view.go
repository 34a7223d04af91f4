package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AarC10/GSW-Sync/lib/logger"
	"github.com/AarC10/GSW-Sync/lib/stats"
	"github.com/AarC10/GSW-Sync/proc"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

var shmDir = flag.String("shm", "/dev/shm", "directory to use for shared memory")

// sampleTable keeps one row per scenario, in the order samples first arrive.
type sampleTable struct {
	table *tview.Table
	names map[uint32]string
	rows  map[uint32]int
}

func newSampleTable(names map[uint32]string) *sampleTable {
	t := &sampleTable{
		table: tview.NewTable().SetBorders(false).SetFixed(1, 1),
		names: names,
		rows:  make(map[uint32]int),
	}
	t.table.SetCell(0, 0, tview.NewTableCell("scenario").SetTextColor(tcell.ColorYellow).SetSelectable(false))
	for i, m := range stats.SampleLayout[1:] {
		t.table.SetCell(0, i+1, tview.NewTableCell(m.Name).SetTextColor(tcell.ColorYellow).SetSelectable(false))
	}
	return t
}

func (t *sampleTable) scenarioName(id uint32) string {
	if name, ok := t.names[id]; ok {
		return name
	}
	return fmt.Sprintf("%08x", id)
}

// update writes a sample packet into its scenario's row.
func (t *sampleTable) update(data []byte) error {
	sample, err := stats.DecodeSample(data)
	if err != nil {
		return err
	}

	row, ok := t.rows[sample.ScenarioID]
	if !ok {
		row = len(t.rows) + 1
		t.rows[sample.ScenarioID] = row
		t.table.SetCell(row, 0, tview.NewTableCell(t.scenarioName(sample.ScenarioID)))
	}

	// Skip the timestamp, the header row is keyed by scenario.
	for i, field := range stats.DecodeFields(stats.SampleLayout, data)[1:] {
		text := "err"
		if field.Value != nil {
			text = fmt.Sprintf("%v", field.Value)
		}
		if field.Name == "scenario_id" {
			text = field.Hex
		}
		t.table.SetCell(row, i+1, tview.NewTableCell(text).SetAlign(tview.AlignRight))
	}
	return nil
}

// clear drops every scenario row, keeping the header.
func (t *sampleTable) clear() {
	for row := t.table.GetRowCount() - 1; row > 0; row-- {
		t.table.RemoveRow(row)
	}
	clear(t.rows)
}

func main() {
	flag.Parse()
	logger.InitLogger()
	defer logger.Sync()

	names := map[uint32]string{}
	config, err := proc.ReadScenarioConfigFromShm(*shmDir)
	if err != nil {
		logger.Warn("Scenario config not found in shared memory, showing scenario IDs", zap.Error(err))
	} else {
		names = config.ScenarioNames()
	}

	reader, err := proc.NewSampleReader(*shmDir)
	if err != nil {
		fmt.Println("*** Error accessing sample ring. Make sure sync_bench is running with -loop. ***")
		fmt.Printf("(%v)\n", err)
		return
	}
	defer reader.Cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := tview.NewApplication()
	samples := newSampleTable(names)

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyEscape, event.Rune() == 'q':
			app.Stop()
			return nil
		case event.Rune() == 'c':
			samples.clear()
			return nil
		}
		return event
	})

	go func() {
		for {
			message, err := reader.Read(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.Error("Error reading sample", zap.Error(err))
				}
				app.Stop()
				return
			}
			data := message.Data()
			app.QueueUpdateDraw(func() {
				if err := samples.update(data); err != nil {
					logger.Error("Error decoding sample", zap.Error(err))
				}
			})
		}
	}()

	if err := app.SetRoot(samples.table, true).Run(); err != nil {
		logger.Error("Error running sync_view", zap.Error(err))
		os.Exit(1)
	}
}
