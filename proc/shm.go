//go:build linux || freebsd

package proc

import (
	"fmt"

	"github.com/AarC10/GSW-Sync/lib/ipc"
	"github.com/AarC10/GSW-Sync/lib/stats"
)

const (
	scenarioConfigKey = "scenario-config"
	samplesKey        = "samples"
)

// WriteScenarioConfigToShm writes the raw scenario config to SHM,
// returning a cleanup function to remove it.
func WriteScenarioConfigToShm(shmDir string, data []byte) (cleanup func(), err error) {
	configWriter, err := ipc.NewShmHandler(scenarioConfigKey, len(data), true, shmDir)
	if err != nil {
		return nil, fmt.Errorf("creating shm handler: %w", err)
	}
	if err := configWriter.Write(data); err != nil {
		configWriter.Cleanup()
		return nil, fmt.Errorf("writing to shm handler: %w", err)
	}
	return configWriter.Cleanup, nil
}

// ReadScenarioConfigFromShm reads the scenario config from SHM and parses it.
func ReadScenarioConfigFromShm(shmDir string) (*Configuration, error) {
	configReader, err := ipc.CreateShmReader(scenarioConfigKey, shmDir)
	if err != nil {
		return nil, fmt.Errorf("creating shm handler: %w", err)
	}
	defer configReader.Cleanup()

	data, err := configReader.ReadRaw()
	if err != nil {
		return nil, fmt.Errorf("reading from shm handler: %w", err)
	}
	return ParseConfigBytes(data)
}

// NewSampleWriter creates the SHM ring samples are published to.
func NewSampleWriter(shmDir string) (ipc.Writer, error) {
	writer, err := ipc.NewShmHandler(samplesKey, stats.SampleSize, true, shmDir)
	if err != nil {
		return nil, fmt.Errorf("creating sample writer: %w", err)
	}
	return writer, nil
}

// NewSampleReader attaches to the SHM ring created by NewSampleWriter.
func NewSampleReader(shmDir string) (ipc.Reader, error) {
	reader, err := ipc.NewShmHandler(samplesKey, stats.SampleSize, false, shmDir)
	if err != nil {
		return nil, fmt.Errorf("creating sample reader: %w", err)
	}
	return reader, nil
}
