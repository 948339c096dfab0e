package location

import (
	"fmt"
	"io"
	"net"

	"github.com/tarm/serial"
)

// Source opens a stream of NMEA sentences.
type Source interface {
	Open() (io.ReadCloser, error)
	String() string
}

// SerialSource reads from a GPS receiver attached to a serial port.
type SerialSource struct {
	Port     string // Serial port to which the GPS device is connected
	BaudRate int    // Baud rate for the serial communication
}

// NewSerialSource creates a new SerialSource with the specified port and baud rate.
func NewSerialSource(port string, baudRate int) *SerialSource {
	return &SerialSource{
		Port:     port,
		BaudRate: baudRate,
	}
}

func (s *SerialSource) Open() (io.ReadCloser, error) {
	port, err := serial.OpenPort(&serial.Config{Name: s.Port, Baud: s.BaudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", s.Port, err)
	}
	return port, nil
}

func (s *SerialSource) String() string {
	return fmt.Sprintf("serial://%s@%d", s.Port, s.BaudRate)
}

// UDPSource listens for NMEA datagrams, as broadcast by most marine
// multiplexers. Each datagram holds one or more CRLF-terminated sentences.
type UDPSource struct {
	Listen string
}

// NewUDPSource creates a new UDPSource bound to listen.
func NewUDPSource(listen string) *UDPSource {
	return &UDPSource{Listen: listen}
}

func (u *UDPSource) Open() (io.ReadCloser, error) {
	addr, err := net.ResolveUDPAddr("udp", u.Listen)
	if err != nil {
		return nil, fmt.Errorf("invalid UDP address %s: %w", u.Listen, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", u.Listen, err)
	}
	return conn, nil
}

func (u *UDPSource) String() string {
	return "udp://" + u.Listen
}
