package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/huntwatch/huntwatch/pkg/types"
)

const usage = `huntctl queries a running huntwatch server.

Usage:
  huntctl [flags] <command>

Commands:
  stats       print per-store statistics
  sightings   print live entity sightings
  players     print live player presence

Flags:
`

func main() {
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	limit := flag.Int("limit", 0, "maximum rows to request (0 = server default)")
	apiKey := flag.String("api-key", "", "API key sent as x-api-key (reads HUNTWATCH_API_KEY if empty)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	key := *apiKey
	if key == "" {
		key = os.Getenv("HUNTWATCH_API_KEY")
	}
	cli := client{base: *addr, key: key, http: &http.Client{Timeout: 10 * time.Second}}

	var err error
	switch cmd := flag.Arg(0); cmd {
	case "stats":
		err = runStats(cli)
	case "sightings":
		err = runSightings(cli, *limit)
	case "players":
		err = runPlayers(cli, *limit)
	default:
		fmt.Fprintf(os.Stderr, "%s unknown command %q\n", color.RedString("error:"), cmd)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
		os.Exit(1)
	}
}

type client struct {
	base string
	key  string
	http *http.Client
}

func (c client) get(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.key != "" {
		req.Header.Set("x-api-key", c.key)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s: server returned %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func runStats(c client) error {
	var stats types.StatsResponse
	if err := c.get("/api/v1/stats", &stats); err != nil {
		return err
	}
	printStoreStats("sightings", stats.Sightings)
	printStoreStats("players", stats.Players)
	return nil
}

func printStoreStats(name string, s types.StoreStats) {
	fmt.Println(color.CyanString("%s:", name))
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintf(w, "  size\t%d\n", s.Size)
	fmt.Fprintf(w, "  live\t%d\n", s.Live)
	if s.Capacity > 0 {
		fmt.Fprintf(w, "  capacity\t%d\n", s.Capacity)
	} else {
		fmt.Fprintf(w, "  capacity\tunbounded\n")
	}
	fmt.Fprintf(w, "  ttl\t%s\n", time.Duration(s.TTLSeconds*float64(time.Second)))
	fmt.Fprintf(w, "  expired\t%d\n", s.ExpiredTotal)
	fmt.Fprintf(w, "  evicted\t%d\n", s.EvictedTotal)
	for origin, n := range s.ByOrigin {
		fmt.Fprintf(w, "  origin %s\t%d\n", origin, n)
	}
	w.Flush()
}

func runSightings(c client, limit int) error {
	var views []types.SightingView
	if err := c.get(listPath("/api/v1/sightings", limit), &views); err != nil {
		return err
	}
	if len(views) == 0 {
		fmt.Println(color.YellowString("no live sightings"))
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tWORLD\tINSTANCE\tCOUNT\tRATE\tORIGIN\tLAST SEEN")
	for _, v := range views {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\t%s\t%s\n",
			color.GreenString(v.Name), v.World, v.Instance,
			v.Count, v.PerSecond, v.Origin, ago(v.LastSeen))
	}
	return w.Flush()
}

func runPlayers(c client, limit int) error {
	var views []types.PresenceView
	if err := c.get(listPath("/api/v1/players", limit), &views); err != nil {
		return err
	}
	if len(views) == 0 {
		fmt.Println(color.YellowString("no live players"))
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PLAYER\tWORLD\tINSTANCE\tZONE\tACTIVITY\tORIGIN\tLAST SEEN")
	for _, v := range views {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			color.GreenString(v.Player), v.World, v.Instance,
			v.Zone, v.Activity, v.Origin, ago(v.LastSeen))
	}
	return w.Flush()
}

func listPath(base string, limit int) string {
	if limit > 0 {
		return fmt.Sprintf("%s?limit=%d", base, limit)
	}
	return base
}

// ago renders an RFC3339 timestamp as a relative age, falling back to the
// raw string when it does not parse.
func ago(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	d := time.Since(t).Round(time.Second)
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%s ago", d)
}
