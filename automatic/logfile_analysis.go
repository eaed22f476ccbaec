package automatic

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aybabtme/uniplot/histogram"

	"github.com/domino14/checkers/stats"
)

const histogramBins = 10

// AnalyzeLogFile analyzes the given game CSV file and spits out a bunch of
// statistics.
func AnalyzeLogFile(filepath string) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	r := csv.NewReader(file)
	r.FieldsPerRecord = len(logHeader)

	evalStats := &stats.Statistic{}
	p1ms := &stats.Statistic{}
	p2ms := &stats.Statistic{}
	var evals []float64
	fingerprints := map[string]bool{}
	reasons := map[string]int{}

	p1wins, ties, gamesPlayed := 0, 0, 0
	// wins of the first player by its color
	p1BlackWins, p1BlackGames := 0, 0
	blackWins := 0
	var p1Name, p2Name string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if record[0] == "gameID" {
			continue
		}
		p1Name, p2Name = record[1], record[2]
		p1Black := record[3] == "black"
		winner := record[4]
		switch winner {
		case "tie":
			ties++
		case p1Name:
			p1wins++
		}
		if p1Black {
			p1BlackGames++
			if winner == p1Name {
				p1BlackWins++
			}
		}
		if (winner == p1Name && p1Black) || (winner == p2Name && !p1Black) {
			blackWins++
		}
		reasons[record[5]]++

		eval, err := strconv.Atoi(record[7])
		if err != nil {
			return "", err
		}
		evalStats.Push(float64(eval))
		evals = append(evals, float64(eval))
		for i, st := range []*stats.Statistic{p1ms, p2ms} {
			ms, err := strconv.Atoi(record[8+i])
			if err != nil {
				return "", err
			}
			st.Push(float64(ms))
		}
		fingerprints[record[10]] = true
		gamesPlayed++
	}
	if gamesPlayed == 0 {
		return "No games found.\n", nil
	}

	rate, margin := stats.ScoreRate(p1wins, ties, gamesPlayed, 95)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Games played: %d\n", gamesPlayed)
	fmt.Fprintf(&sb, "%v wins: %d (%.3f%%)\n", p1Name, p1wins, 100.0*float64(p1wins)/float64(gamesPlayed))
	fmt.Fprintf(&sb, "%v wins: %d (%.3f%%)\n", p2Name, gamesPlayed-p1wins-ties,
		100.0*float64(gamesPlayed-p1wins-ties)/float64(gamesPlayed))
	fmt.Fprintf(&sb, "Ties: %d\n", ties)
	fmt.Fprintf(&sb, "%v score: %.3f ± %.3f (95%% confidence)\n", p1Name, rate, margin)
	fmt.Fprintf(&sb, "%v wins as black: %d of %d\n", p1Name, p1BlackWins, p1BlackGames)
	fmt.Fprintf(&sb, "Black wins: %d (%.3f%%)\n", blackWins, 100.0*float64(blackWins)/float64(gamesPlayed))
	for _, reason := range []string{ReasonNoMoves, ReasonMaxMoves, ReasonIllegalMove} {
		fmt.Fprintf(&sb, "Ended by %s: %d\n", reason, reasons[reason])
	}
	fmt.Fprintf(&sb, "Final eval for %v: mean %.3f  stdev %.3f  median %.1f\n",
		p1Name, evalStats.Mean(), evalStats.Stdev(), stats.Median(evals))
	fmt.Fprintf(&sb, "%v thinking time per game: %.1f ms\n", p1Name, p1ms.Mean())
	fmt.Fprintf(&sb, "%v thinking time per game: %.1f ms\n", p2Name, p2ms.Mean())
	fmt.Fprintf(&sb, "Distinct games: %d\n", len(fingerprints))

	sb.WriteString("Final eval histogram:\n")
	hist := histogram.Hist(histogramBins, evals)
	if err := histogram.Fprint(&sb, hist, histogram.Linear(40)); err != nil {
		return "", err
	}
	return sb.String(), nil
}
