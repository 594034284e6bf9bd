package netio

import (
	"net"
	"testing"
	"time"
)

func TestSendReceiveLoopback(t *testing.T) {
	server, err := Listen(0)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer server.Close()

	client, err := Listen(0)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer client.Close()

	serverAddr := server.LocalAddr().(*net.UDPAddr)
	payload := []byte("hello ubilog")

	if err := client.Send(payload, serverAddr); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	select {
	case dgram := <-server.Incoming():
		if string(dgram.Data) != string(payload) {
			t.Fatalf("received %q; want %q", dgram.Data, payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for datagram")
	}
}

func TestCloseTerminatesReaderLoop(t *testing.T) {
	s, err := Listen(0)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	select {
	case _, ok := <-s.Incoming():
		if ok {
			t.Fatalf("expected closed channel, got a value")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for Incoming() to close")
	}
}
