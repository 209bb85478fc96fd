// spawnconv converts spawnlist SQL INSERT statements to a world.yaml file,
// and optionally loads the result into PostgreSQL.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/l1jgo/spectators/internal/config"
	"github.com/l1jgo/spectators/internal/data"
	"github.com/l1jgo/spectators/internal/persist"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Pattern: INSERT INTO `spawnlist` VALUES ('name', 'monster', '32477', '32851', '7', '5');
var insertRe = regexp.MustCompile(`VALUES\s*\(\s*'([^']*)'\s*,\s*'([a-z]*)'\s*,\s*'(\d+)'\s*,\s*'(\d+)'\s*,\s*'(\d+)'\s*,\s*'(\d+)'\s*\)`)

// Regions are padded so creatures at the edge still sweep allocated leaves.
const regionPadding = 16

func main() {
	dsn := flag.String("dsn", "", "also replace the world tables in this PostgreSQL database")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: spawnconv [-dsn DSN] <spawnlist.sql> <world.yaml>")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(1)
	}
	if err := run(flag.Arg(0), flag.Arg(1), *dsn); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(inPath, outPath, dsn string) error {
	inFile, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer inFile.Close()

	spawns, err := parseSpawns(inFile)
	if err != nil {
		return fmt.Errorf("parse %s: %w", inPath, err)
	}
	wd, raw, err := buildWorld(spawns)
	if err != nil {
		return err
	}
	header := fmt.Sprintf("# World file, auto-generated from %s (%d spawns)\n", inPath, len(spawns))
	if err := os.WriteFile(outPath, append([]byte(header), raw...), 0o644); err != nil {
		return err
	}
	fmt.Printf("Wrote %d spawn entries to %s\n", len(spawns), outPath)

	if dsn == "" {
		return nil
	}
	return loadIntoDB(dsn, wd)
}

// buildWorld encodes spawns as a world file and returns the world as the
// server would load it, with kinds defaulted.
func buildWorld(spawns []data.SpawnEntry) (*data.WorldData, []byte, error) {
	wd := &data.WorldData{Spawns: spawns}
	if r, ok := boundingRegion(spawns); ok {
		wd.Regions = []data.Region{r}
	}
	raw, err := yaml.Marshal(wd)
	if err != nil {
		return nil, nil, fmt.Errorf("encode yaml: %w", err)
	}
	// Re-parse so the file we write is one the server accepts.
	loaded, err := data.ParseWorld(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("generated world invalid: %w", err)
	}
	return loaded, raw, nil
}

func parseSpawns(f *os.File) ([]data.SpawnEntry, error) {
	var spawns []data.SpawnEntry
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 1024*1024)
	scanner.Buffer(buf, len(buf))

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, "INSERT INTO") {
			continue
		}
		m := insertRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		x, errX := strconv.ParseUint(m[3], 10, 16)
		y, errY := strconv.ParseUint(m[4], 10, 16)
		z, errZ := strconv.ParseUint(m[5], 10, 8)
		wander, errW := strconv.ParseInt(m[6], 10, 32)
		if errX != nil || errY != nil || errZ != nil || errW != nil || z > 15 {
			continue
		}
		spawns = append(spawns, data.SpawnEntry{
			Name: m[1], Kind: m[2],
			X: uint16(x), Y: uint16(y), Z: uint8(z),
			WanderRange: int32(wander),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(spawns, func(i, j int) bool {
		if spawns[i].Z != spawns[j].Z {
			return spawns[i].Z < spawns[j].Z
		}
		if spawns[i].Y != spawns[j].Y {
			return spawns[i].Y < spawns[j].Y
		}
		return spawns[i].X < spawns[j].X
	})
	return spawns, nil
}

func boundingRegion(spawns []data.SpawnEntry) (data.Region, bool) {
	if len(spawns) == 0 {
		return data.Region{}, false
	}
	r := data.Region{Name: "spawns", StartX: 0xFFFF, StartY: 0xFFFF}
	for _, s := range spawns {
		r.StartX = min(r.StartX, int32(s.X))
		r.StartY = min(r.StartY, int32(s.Y))
		r.EndX = max(r.EndX, int32(s.X))
		r.EndY = max(r.EndY, int32(s.Y))
	}
	r.StartX = max(r.StartX-regionPadding, 0)
	r.StartY = max(r.StartY-regionPadding, 0)
	r.EndX = min(r.EndX+regionPadding, 0xFFFF)
	r.EndY = min(r.EndY+regionPadding, 0xFFFF)
	return r, true
}

func loadIntoDB(dsn string, wd *data.WorldData) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg := config.Defaults().Database
	cfg.Enabled = true
	cfg.DSN = dsn

	db, err := persist.NewDB(ctx, cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return err
	}
	if err := persist.NewWorldRepo(db).Replace(ctx, wd); err != nil {
		return err
	}
	fmt.Printf("Loaded %d spawn entries into the database\n", len(wd.Spawns))
	return nil
}
