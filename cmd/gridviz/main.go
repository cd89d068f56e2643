package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"

	"github.com/lixenwraith/gridnav/parameter"
)

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	rows := flag.Int("rows", parameter.GridDefaultRows, "Initial grid rows")
	cols := flag.Int("cols", parameter.GridDefaultCols, "Initial grid columns")
	seed := flag.Int64("seed", 0, "Initial maze seed (0 = random)")
	delay := flag.Duration("delay", parameter.VizStepDelay, "Pause between streamed search steps")
	flag.Parse()

	srv, err := NewServer(Config{
		Rows:      *rows,
		Cols:      *cols,
		Braiding:  parameter.SandboxMazeBraiding,
		Seed:      *seed,
		StepDelay: *delay,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("gridviz: http://%s", ln.Addr())
	if err := http.Serve(ln, srv.Routes()); err != nil {
		log.Fatal(err)
	}
}
