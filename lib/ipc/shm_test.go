//go:build linux || freebsd

package ipc

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func newTestRing(t *testing.T, packetSize int) (writer *ShmHandler, reader *ShmHandler) {
	t.Helper()
	dir := t.TempDir()

	writer, err := NewShmHandler("test", packetSize, true, dir)
	if err != nil {
		t.Fatalf("creating writer: %v", err)
	}
	t.Cleanup(writer.Cleanup)

	reader, err = CreateShmReader("test", dir)
	if err != nil {
		t.Fatalf("creating reader: %v", err)
	}
	t.Cleanup(reader.Cleanup)
	reader.SetPollInterval(10 * time.Millisecond)
	return writer, reader
}

func TestCreateShmReaderDerivesPacketSize(t *testing.T) {
	for _, size := range []int{1, 8, 23, 1024} {
		_, reader := newTestRing(t, size)
		if got := reader.PacketSize(); got != size {
			t.Errorf("expected packet size %d, got %d", size, got)
		}
	}
}

func TestWriteThenRead(t *testing.T) {
	writer, reader := newTestRing(t, 8)

	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := writer.Write(payload); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	msg, err := reader.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(msg.Data(), payload) {
		t.Errorf("expected %v, got %v", payload, msg.Data())
	}
	shmMsg := msg.(*ShmReaderMessage)
	if shmMsg.Futex() != 1 {
		t.Errorf("expected futex value 1, got %d", shmMsg.Futex())
	}
	if shmMsg.ReceiveTimestamp() == 0 {
		t.Error("expected a write timestamp")
	}

	raw, err := reader.ReadRaw()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw, payload) {
		t.Errorf("ReadRaw: expected %v, got %v", payload, raw)
	}
}

func TestShortWriteIsZeroPadded(t *testing.T) {
	writer, reader := newTestRing(t, 4)

	if err := writer.Write([]byte{9, 9, 9, 9}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < ringSize-1; i++ {
		if err := writer.Write([]byte{0}); err != nil {
			t.Fatal(err)
		}
	}
	// This lands in the slot of the first message.
	if err := writer.Write([]byte{7}); err != nil {
		t.Fatal(err)
	}

	raw, err := reader.ReadRaw()
	if err != nil {
		t.Fatal(err)
	}
	if expected := []byte{7, 0, 0, 0}; !bytes.Equal(raw, expected) {
		t.Errorf("expected %v, got %v", expected, raw)
	}
}

func TestReadBlocksUntilWrite(t *testing.T) {
	writer, reader := newTestRing(t, 4)

	got := make(chan []byte)
	go func() {
		msg, err := reader.Read(context.Background())
		if err != nil {
			t.Error(err)
			close(got)
			return
		}
		got <- msg.Data()
	}()

	time.Sleep(30 * time.Millisecond)
	if err := writer.Write([]byte("ping")); err != nil {
		t.Fatal(err)
	}

	select {
	case data := <-got:
		if string(data) != "ping" {
			t.Errorf("expected ping, got %q", data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reader was not woken by the write")
	}
}

func TestReadHonorsContext(t *testing.T) {
	_, reader := newTestRing(t, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := reader.Read(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Read took %v to notice its context", elapsed)
	}
}

func TestWrongMode(t *testing.T) {
	writer, reader := newTestRing(t, 4)

	if err := reader.Write([]byte{1}); !errors.Is(err, ErrWrongMode) {
		t.Errorf("reader Write: expected ErrWrongMode, got %v", err)
	}
	if _, err := writer.Read(context.Background()); !errors.Is(err, ErrWrongMode) {
		t.Errorf("writer Read: expected ErrWrongMode, got %v", err)
	}
	if _, err := writer.ReadRaw(); !errors.Is(err, ErrWrongMode) {
		t.Errorf("writer ReadRaw: expected ErrWrongMode, got %v", err)
	}
	if err := writer.Write(make([]byte, 5)); err == nil {
		t.Error("expected an error for an oversized write")
	}
}

func TestWriterCleanupRemovesFile(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewShmHandler("cleanup", 4, true, dir)
	if err != nil {
		t.Fatal(err)
	}
	writer.Cleanup()
	if _, err := os.Stat(ShmPath("cleanup", dir)); !os.IsNotExist(err) {
		t.Errorf("expected the ring file to be removed, stat returned %v", err)
	}
	// A second cleanup is harmless.
	writer.Cleanup()
}

func TestInvalidPacketSize(t *testing.T) {
	if _, err := NewShmHandler("bad", 0, true, t.TempDir()); err == nil {
		t.Error("expected an error for a zero packet size")
	}
}
