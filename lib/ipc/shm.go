//go:build linux || freebsd

package ipc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unsafe"

	"github.com/AarC10/GSW-Sync/lib/futex"
	"github.com/AarC10/GSW-Sync/lib/logger"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

type shmFileHeader struct {
	futex futex.Shared
}

type shmMessageHeader struct {
	timestamp   uint64
	targetFutex uint32
}

// ShmHandler is a shared memory handler for inter-process communication
type ShmHandler struct {
	file            *os.File       // File backing the shared memory
	data            []byte         // Mapped shared memory
	header          *shmFileHeader // Header at the start of data
	messageSize     int            // size of an individual message, including the header
	size            int            // Size of shared memory
	mode            handlerMode    // handler mode: reader or writer
	readerLastFutex uint32         // Last futex word value consumed by the reader
	pollInterval    time.Duration  // Longest single futex wait inside Read
}

type handlerMode int

const (
	handlerModeReader handlerMode = iota
	handlerModeWriter
)

const (
	shmFilePrefix        = "gsw-sync-"
	shmFileHeaderSize    = int(unsafe.Sizeof(shmFileHeader{}))
	shmMessageHeaderSize = int(unsafe.Sizeof(shmMessageHeader{}))
	ringSize             = 256

	// DefaultPollInterval bounds how long Read sleeps before re-checking its
	// context.
	DefaultPollInterval = 100 * time.Millisecond
)

// ErrWrongMode is returned when a reader writes or a writer reads.
var ErrWrongMode = errors.New("operation not supported in this handler mode")

// ShmPath returns the file backing the ring called identifier in shmDir.
func ShmPath(identifier string, shmDir string) string {
	return filepath.Join(shmDir, shmFilePrefix+identifier)
}

// NewShmHandler creates a shared memory handler for inter-process communication
func NewShmHandler(identifier string, packetSize int, isWriter bool, shmDir string) (*ShmHandler, error) {
	if packetSize <= 0 {
		return nil, fmt.Errorf("invalid packet size %d", packetSize)
	}
	messageSize := packetSize + shmMessageHeaderSize
	handler := &ShmHandler{
		messageSize:  messageSize,
		size:         (messageSize * ringSize) + shmFileHeaderSize,
		mode:         handlerModeReader,
		pollInterval: DefaultPollInterval,
	}

	filename := ShmPath(identifier, shmDir)

	var file *os.File
	var err error
	if isWriter {
		handler.mode = handlerModeWriter
		file, err = os.Create(filename)
		if err != nil {
			return nil, fmt.Errorf("creating file: %w", err)
		}
		if err := file.Truncate(int64(handler.size)); err != nil {
			file.Close()
			return nil, fmt.Errorf("truncating file: %w", err)
		}
	} else {
		file, err = os.OpenFile(filename, os.O_RDWR, 0666)
		if err != nil {
			return nil, fmt.Errorf("opening file: %w", err)
		}
	}
	handler.file = file

	// Readers map the header writable too: futex waits on it.
	data, err := unix.Mmap(int(file.Fd()), 0, handler.size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		handler.Cleanup()
		return nil, fmt.Errorf("memory mapping file: %w", err)
	}
	handler.data = data

	handler.header = (*shmFileHeader)(unsafe.Pointer(&handler.data[0]))
	handler.readerLastFutex = handler.header.futex.Load()

	return handler, nil
}

// CreateShmReader creates a shared memory reader, deriving the packet size
// from the size of the existing ring file.
func CreateShmReader(identifier string, shmDir string) (*ShmHandler, error) {
	fileinfo, err := os.Stat(ShmPath(identifier, shmDir))
	if err != nil {
		return nil, fmt.Errorf("getting shm file info: %w", err)
	}
	filesize := int(fileinfo.Size())

	packetSize := ((filesize - shmFileHeaderSize) / ringSize) - shmMessageHeaderSize
	return NewShmHandler(identifier, packetSize, false, shmDir)
}

// SetPollInterval changes how long a single wait inside Read may last.
func (handler *ShmHandler) SetPollInterval(interval time.Duration) {
	handler.pollInterval = interval
}

// PacketSize is the payload size of one message.
func (handler *ShmHandler) PacketSize() int {
	return handler.messageSize - shmMessageHeaderSize
}

// Cleanup unmaps the shared memory. A writer also removes the file.
func (handler *ShmHandler) Cleanup() {
	log := logger.Log().Named("ipc")
	if handler.data != nil {
		if err := unix.Munmap(handler.data); err != nil {
			log.Error("failed to unmap memory", zap.Error(err))
		}
		handler.data = nil
		handler.header = nil
	}
	if handler.file != nil {
		if err := handler.file.Close(); err != nil {
			log.Error("failed to close file", zap.Error(err))
		}

		if handler.mode == handlerModeWriter {
			if err := os.Remove(handler.file.Name()); err != nil {
				log.Error("failed to remove file", zap.Error(err))
			} else {
				log.Debug("removed shm file", zap.String("file", handler.file.Name()))
			}
		}

		handler.file = nil
	}
}

func (handler *ShmHandler) messagePosition(futexValue uint32) int {
	return shmFileHeaderSize + int(futexValue%ringSize)*handler.messageSize
}

// Write publishes a message and wakes every reader.
func (handler *ShmHandler) Write(data []byte) error {
	if handler.mode != handlerModeWriter {
		return fmt.Errorf("writing: %w", ErrWrongMode)
	}
	if len(data) > handler.PacketSize() {
		return fmt.Errorf("data size %d exceeds allocated message size %d", len(data), handler.PacketSize())
	}

	targetFutex := handler.header.futex.Load() + 1
	messagePosition := handler.messagePosition(targetFutex)

	dataPosition := messagePosition + shmMessageHeaderSize
	n := copy(handler.data[dataPosition:dataPosition+handler.PacketSize()], data)
	clear(handler.data[dataPosition+n : dataPosition+handler.PacketSize()])

	messageHeader := (*shmMessageHeader)(unsafe.Pointer(&handler.data[messagePosition]))
	*messageHeader = shmMessageHeader{
		timestamp:   uint64(time.Now().UnixNano()),
		targetFutex: targetFutex,
	}

	handler.header.futex.Store(targetFutex)
	handler.header.futex.WakeAll()
	return nil
}

// ShmReaderMessage is a message read by an ShmHandler
type ShmReaderMessage struct {
	timestamp uint64
	futex     uint32
	data      []byte
}

// ReceiveTimestamp returns the unix timestamp when the message was written
// (nanoseconds since epoch).
func (m *ShmReaderMessage) ReceiveTimestamp() uint64 {
	return m.timestamp
}

// Futex returns the message futex value (an incrementing counter).
// Gaps between consecutive values are messages the reader missed.
func (m *ShmReaderMessage) Futex() uint32 {
	return m.futex
}

// Data returns the message data.
func (m *ShmReaderMessage) Data() []byte {
	return m.data
}

// Read blocks until a message newer than the last one read is available.
// It returns ctx.Err() once ctx is done.
func (handler *ShmHandler) Read(ctx context.Context) (ReaderMessage, error) {
	if handler.mode != handlerModeReader {
		return nil, fmt.Errorf("reading: %w", ErrWrongMode)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Returns at once if the writer moved past readerLastFutex.
		handler.header.futex.Wait(handler.readerLastFutex, futex.After(handler.pollInterval))

		newMessageFutex := handler.header.futex.Load()
		if newMessageFutex == handler.readerLastFutex {
			// Timed out or woke spuriously.
			continue
		}

		messagePosition := handler.messagePosition(newMessageFutex)
		shmData := make([]byte, handler.messageSize)
		copy(shmData, handler.data[messagePosition:messagePosition+handler.messageSize])

		messageHeader := (*shmMessageHeader)(unsafe.Pointer(&shmData[0]))
		if messageHeader.targetFutex != newMessageFutex {
			// The writer lapped us while copying; take the next message.
			handler.readerLastFutex = newMessageFutex
			continue
		}

		handler.readerLastFutex = newMessageFutex
		return &ShmReaderMessage{
			timestamp: messageHeader.timestamp,
			futex:     newMessageFutex,
			data:      shmData[shmMessageHeaderSize:],
		}, nil
	}
}

// ReadRaw returns a copy of the latest packet without waiting.
func (handler *ShmHandler) ReadRaw() ([]byte, error) {
	if handler.mode != handlerModeReader {
		return nil, fmt.Errorf("reading: %w", ErrWrongMode)
	}

	messagePosition := handler.messagePosition(handler.header.futex.Load())

	shmData := make([]byte, handler.PacketSize())
	copy(shmData, handler.data[messagePosition+shmMessageHeaderSize:])

	return shmData, nil
}

var (
	_ Reader = (*ShmHandler)(nil)
	_ Writer = (*ShmHandler)(nil)
)
