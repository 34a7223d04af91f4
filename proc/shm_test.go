//go:build linux || freebsd

package proc

import (
	"context"
	"testing"
	"time"

	"github.com/AarC10/GSW-Sync/lib/ipc"
	"github.com/AarC10/GSW-Sync/lib/stats"
	"github.com/google/go-cmp/cmp"
)

func TestScenarioConfigThroughShm(t *testing.T) {
	shmDir := t.TempDir()

	cleanup, err := WriteScenarioConfigToShm(shmDir, []byte(validConfig))
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	config, err := ReadScenarioConfigFromShm(shmDir)
	if err != nil {
		t.Fatal(err)
	}
	if config.Name != "futex_suite" || len(config.Scenarios) != 4 {
		t.Errorf("unexpected config read back: %s with %d scenarios", config.Name, len(config.Scenarios))
	}
}

func TestPublisherWritesSamples(t *testing.T) {
	shmDir := t.TempDir()
	config, err := ParseConfigBytes([]byte("name: x\ninterval: 1h\nscenarios:\n  - name: one\n    kind: wake\n    iterations: 5\n"))
	if err != nil {
		t.Fatal(err)
	}

	writer, err := NewSampleWriter(shmDir)
	if err != nil {
		t.Fatal(err)
	}
	defer writer.Cleanup()

	reader, err := NewSampleReader(shmDir)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Cleanup()

	output := make(chan stats.Sample, 1)
	publisher := &Publisher{Config: config, Writer: writer, Outputs: []chan<- stats.Sample{output}}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	errs := make(chan error, 1)
	go func() { errs <- publisher.Run(ctx) }()

	message, err := reader.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	fromShm, err := stats.DecodeSample(message.Data())
	if err != nil {
		t.Fatal(err)
	}
	fromChannel := <-output

	cancel()
	if err := <-errs; err != context.Canceled {
		t.Errorf("expected publisher to stop with context.Canceled, got %v", err)
	}

	if fromShm.ScenarioID != stats.ScenarioID("one") || fromShm.Iterations != 5 {
		t.Errorf("unexpected sample %+v", fromShm)
	}
	if diff := cmp.Diff(fromChannel, fromShm); diff != "" {
		t.Errorf("shm and channel samples differ (-channel +shm):\n%s", diff)
	}
	if _, ok := message.(*ipc.ShmReaderMessage); !ok {
		t.Errorf("unexpected message type %T", message)
	}
}
