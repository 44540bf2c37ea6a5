package gnss_test

import (
	"bufio"
	"context"
	"math"
	"net"
	"strings"
	"testing"

	"github.com/lukejenkins/cwd/gnss"
	"github.com/lukejenkins/cwd/parse"
)

// fakeGPSD accepts one connection and replies to the watch request with
// the given report lines.
func fakeGPSD(t *testing.T, lines ...string) (host string, port int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		if req, err := r.ReadString('\n'); err != nil || !strings.HasPrefix(req, "?WATCH=") {
			return
		}
		for _, line := range lines {
			conn.Write([]byte(line + "\n"))
		}
		// Keep the connection open until the listener is torn down.
		r.ReadString('\n')
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port
}

func TestPoll(t *testing.T) {
	t.Run("3D fix merges position and speed", func(t *testing.T) {
		host, port := fakeGPSD(t,
			`{"class":"VERSION","release":"3.25"}`,
			`{"class":"TPV","mode":3,"lat":41.2852395,"lon":-111.9585677,"alt":1438.3,"speed":5.0}`,
		)
		c := gnss.NewClient(host, port, nil)
		defer c.Close()

		fields, ok := c.Poll(context.Background())
		if !ok {
			t.Fatal("expected a fix")
		}
		if lat, _ := fields[parse.FieldLatitude].Float(); math.Abs(lat-41.2852395) > 1e-9 {
			t.Errorf("latitude = %v", lat)
		}
		if alt, _ := fields[parse.FieldAltitude].Float(); alt != 1438.3 {
			t.Errorf("altitude = %v", alt)
		}
		if speed, _ := fields[parse.FieldSpeed].Float(); math.Abs(speed-18) > 1e-9 {
			t.Errorf("speed = %v km/h, want 18", speed)
		}
	})

	t.Run("2D fix omits altitude", func(t *testing.T) {
		host, port := fakeGPSD(t,
			`{"class":"TPV","mode":2,"lat":41.0,"lon":-112.0,"speed":0}`,
		)
		c := gnss.NewClient(host, port, nil)
		defer c.Close()

		fields, ok := c.Poll(context.Background())
		if !ok {
			t.Fatal("expected a fix")
		}
		if _, present := fields[parse.FieldAltitude]; present {
			t.Error("altitude must be absent for a 2D fix")
		}
	})

	t.Run("No fix within the window", func(t *testing.T) {
		host, port := fakeGPSD(t,
			`{"class":"TPV","mode":1}`,
		)
		c := gnss.NewClient(host, port, nil)
		defer c.Close()

		if fields, ok := c.Poll(context.Background()); ok {
			t.Errorf("mode 1 must not produce a fix, got %v", fields)
		}
	})

	t.Run("Daemon absent is tolerated", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatal(err)
		}
		port := ln.Addr().(*net.TCPAddr).Port
		ln.Close() // nothing listens here any more

		c := gnss.NewClient("127.0.0.1", port, nil)
		defer c.Close()

		if _, ok := c.Poll(context.Background()); ok {
			t.Error("poll against a dead daemon must fail quietly")
		}
	})
}
