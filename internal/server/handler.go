package server

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
)

const (
	StatusOK       = "HTTP/1.1 200 OK"
	StatusNotFound = "HTTP/1.1 404 NOT FOUND"
)

var indexRequestLine = []byte("GET / HTTP/1.1\r\n")

// ConnHandler serves a single accepted connection. The caller owns conn and
// closes it after ServeConn returns.
type ConnHandler interface {
	ServeConn(conn net.Conn) error
}

// StaticHandler answers the index request with the index page and anything
// else with the not-found page.
type StaticHandler struct {
	index      []byte
	notFound   []byte
	bufferSize int
}

func NewStaticHandler(pages *Pages, index, notFound string, bufferSize int) (*StaticHandler, error) {
	if bufferSize <= 0 {
		return nil, fmt.Errorf("buffer size must be greater than 0, got %d", bufferSize)
	}
	indexBody, err := pages.Get(index)
	if err != nil {
		return nil, err
	}
	notFoundBody, err := pages.Get(notFound)
	if err != nil {
		return nil, err
	}
	return &StaticHandler{
		index:      indexBody,
		notFound:   notFoundBody,
		bufferSize: bufferSize,
	}, nil
}

// ServeConn reads one buffer worth of request and writes a single response.
func (h *StaticHandler) ServeConn(conn net.Conn) error {
	buf := make([]byte, h.bufferSize)
	n, err := conn.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read request: %w", err)
	}

	status, body := StatusNotFound, h.notFound
	if bytes.HasPrefix(buf[:n], indexRequestLine) {
		status, body = StatusOK, h.index
	}

	w := bufio.NewWriter(conn)
	if _, err := fmt.Fprintf(w, "%s\r\nContent-Length: %d\r\n\r\n", status, len(body)); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush response: %w", err)
	}
	return nil
}
