package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/thraizz/kingdom-server-go/internal/game"
)

func main() {
	turn := flag.Int("turn", 0, "print only the state recorded at this index (1-based)")
	showLog := flag.Bool("log", false, "print the full game log")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <file.replay>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	r, err := game.LoadReplay(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to load replay: %v", err)
	}

	fmt.Printf("Game %s: %d recorded states\n", r.GameID, r.Size())

	if *turn > 0 {
		s := r.At(*turn - 1)
		if s == nil {
			log.Fatalf("No state %d (replay has %d)", *turn, r.Size())
		}
		printState(s)
	} else {
		for s := r.Next(); s != nil; s = r.Next() {
			printState(s)
		}
	}

	if *showLog {
		fmt.Println("\nLog:")
		for _, line := range r.Log {
			fmt.Println("  " + line)
		}
	}

	if len(r.Standings) > 0 {
		fmt.Println("\nFinal standings:")
		for i, st := range r.Standings {
			fmt.Printf("  %d. %s (%d) %d VP\n", i+1, st.Name, st.ID, st.Score)
		}
	}
}

func printState(s *game.Snapshot) {
	checksum, err := s.Checksum()
	if err != nil {
		checksum = "error: " + err.Error()
	}
	status := "in progress"
	if s.Ended {
		status = "ended"
	}
	fmt.Printf("\nTurn %d, active player %d, %s [%s]\n", s.Turn, s.ActiveID, status, checksum[:min(12, len(checksum))])

	for _, p := range s.Players {
		fmt.Printf("  %s (%d): deck %d, hand [%s], discard %d, in play [%s]",
			p.Name, p.ID, len(p.Deck), strings.Join(p.Hand, ", "), len(p.Discard), strings.Join(p.InPlay, ", "))
		if len(p.Duration) > 0 {
			fmt.Printf(", duration [%s]", strings.Join(p.Duration, ", "))
		}
		if p.VPTokens > 0 {
			fmt.Printf(", %d VP tokens", p.VPTokens)
		}
		fmt.Println()
	}

	var empty []string
	for _, pile := range s.Piles {
		if pile.Remaining == 0 {
			empty = append(empty, pile.Name)
		}
	}
	if len(empty) > 0 {
		fmt.Printf("  empty piles: %s\n", strings.Join(empty, ", "))
	}
	fmt.Printf("  trash: %d cards\n", len(s.Trash))
}
