package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rahulv/cricfeed/internal/scores"
)

// One-shot check of what the configured upstream is serving right now.
func main() {
	sourceID := flag.String("source", "", "source id to query (default: registry default)")
	flag.Parse()

	reg, err := scores.LoadRegistry()
	if err != nil {
		log.Fatal(err)
	}

	var cfg scores.SourceConfig
	if *sourceID != "" {
		var ok bool
		cfg, ok = reg.Source(*sourceID)
		if !ok {
			log.Fatalf("unknown source %q", *sourceID)
		}
	} else {
		cfg, err = reg.DefaultSource()
		if err != nil {
			log.Fatal(err)
		}
	}

	source, err := scores.Build(cfg)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	ctx = scores.WithOrigin(ctx, "scorecheck")

	matches, err := source.FetchMatches(ctx)
	if err != nil {
		log.Fatal(err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Type", "Team 1", "Team 2", "Status", "Live"})

	for _, m := range matches {
		team1, team2 := "-", "-"
		if m.Team1 != nil {
			team1 = m.Team1.Short + " " + m.Team1.Score
		}
		if m.Team2 != nil {
			team2 = m.Team2.Short + " " + m.Team2.Score
		}
		t.AppendRow(table.Row{m.ID, m.MatchType, team1, team2, m.Status, m.IsLive})
	}
	t.Render()
	log.Printf("%d match(es) from %s", len(matches), source.ID())
}
