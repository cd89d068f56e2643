package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zyedidia/generic/mapset"

	"github.com/lixenwraith/gridnav/gridmap"
	"github.com/lixenwraith/gridnav/maze"
	"github.com/lixenwraith/gridnav/parameter"
)

func main() {
	seed := flag.Int64("seed", 0, "Generator seed (0 = random)")
	flag.Parse()

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Println("\n=== MAZE GENERATOR / A* SOLVER ===")

		w := getInt(reader, fmt.Sprintf("Width [Odd prefered] (default %d): ", parameter.GridDefaultCols), parameter.GridDefaultCols)
		h := getInt(reader, fmt.Sprintf("Height [Odd prefered] (default %d): ", parameter.GridDefaultRows), parameter.GridDefaultRows)
		braid := getFloat(reader, fmt.Sprintf("Braiding Factor [0.0 - 1.0] (default %.1f): ", parameter.SandboxMazeBraiding), parameter.SandboxMazeBraiding)

		fmt.Print("Mode: Jailbreak (Remove Borders)? [y/N]: ")
		jailStr, _ := reader.ReadString('\n')
		jailMode := strings.ToLower(strings.TrimSpace(jailStr)) == "y"

		cfg := maze.Config{
			Width:         w,
			Height:        h,
			Braiding:      braid,
			RemoveBorders: jailMode,
			Seed:          *seed,
		}

		fmt.Println("\nGenerating...")
		startT := time.Now()
		res := maze.Generate(cfg)
		m, err := res.Build(parameter.GridDefaultCellWidth, parameter.GridDefaultCellHeight)
		if err != nil {
			fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
			os.Exit(1)
		}
		genDur := time.Since(startT)

		startT = time.Now()
		path := res.Solve(m)
		solveDur := time.Since(startT)

		fmt.Printf("Generated in %v, solved in %v (seed %d)\n", genDur, solveDur, res.Seed)
		fmt.Printf("Grid Dimensions: %dx%d\n", m.Cols(), m.Rows())

		if path != nil {
			fmt.Printf("Solution Path Length: %d steps\n", len(path)-1)
		} else {
			fmt.Println("Status: Unsolvable (Isolated Start/End)")
		}

		draw(m, path)

		fmt.Print("\nGenerate another? [Y/n]: ")
		cont, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(cont)) == "n" {
			break
		}
	}
}

func draw(m *gridmap.Map, path []gridmap.Point) {
	onPath := mapset.New[gridmap.Point]()
	for _, p := range path {
		onPath.Put(p)
	}

	var sb strings.Builder
	for y := 0; y < m.Rows(); y++ {
		for x := 0; x < m.Cols(); x++ {
			tag, _ := m.Tag(x, y)
			switch {
			case tag == maze.TagStart:
				sb.WriteString("S")
			case tag == maze.TagEnd:
				sb.WriteString("E")
			case m.HasType(x, y, gridmap.TypeObstacle):
				sb.WriteString("█")
			case onPath.Has(gridmap.Point{X: x, Y: y}):
				sb.WriteString("•")
			default:
				sb.WriteString(" ")
			}
		}
		sb.WriteByte('\n')
	}
	fmt.Print(sb.String())
}

// --- Input Helpers ---

func getInt(r *bufio.Reader, prompt string, def int) int {
	fmt.Print(prompt)
	s, _ := r.ReadString('\n')
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func getFloat(r *bufio.Reader, prompt string, def float64) float64 {
	fmt.Print(prompt)
	s, _ := r.ReadString('\n')
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return max(0.0, min(v, 1.0))
}
