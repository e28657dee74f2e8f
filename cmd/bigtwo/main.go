// Command bigtwo is a solo terminal game: one human against three
// bots, played on the same engine the servers use.
package main

import (
	"flag"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"bigtwo/internal/app"
	"bigtwo/internal/bot"
	"bigtwo/internal/domain"
)

const humanSeat = 0

func main() {
	seedFlag := flag.Int64("seed", 0, "rng seed, 0 means time-based")
	flag.Parse()

	seed := *seedFlag
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	pterm.Print("\n")
	title, err := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Big ", pterm.FgLightGreen.ToStyle()),
		putils.LettersFromStringWithStyle("Two", pterm.FgLightYellow.ToStyle()),
	).Srender()
	if err == nil {
		pterm.Print(title)
	}

	name, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Enter your name").WithDefaultValue("You").Show()
	pterm.Println()

	svc := app.NewService(rng)
	brain := bot.NewHeuristicBrain(rng)

	table := svc.NewParty("SOLO", name)
	for _, botName := range []string{"Ada", "Blaise", "Curie"} {
		if err := svc.AddPlayer(table, botName, true); err != nil {
			pterm.Fatal.Printfln("Failed to seat %s: %v", botName, err)
		}
	}

	for {
		events, err := svc.Deal(table)
		if err != nil {
			pterm.Fatal.Printfln("Deal failed: %v", err)
		}
		printEvents(table, events)

		for !table.GameOver() {
			if table.CurrentTurn == humanSeat {
				humanTurn(svc, table)
				continue
			}
			botTurn(svc, brain, table, rng)
		}

		printRankings(table)
		again, _ := pterm.DefaultInteractiveConfirm.WithDefaultText("Play again with the same table?").Show()
		if !again {
			return
		}
		pterm.Println()
	}
}

func humanTurn(svc *app.Service, table *domain.TableState) {
	renderTable(table, humanSeat)

	hint := "card numbers to play (e.g. 1 2), or 'pass'"
	input, _ := pterm.DefaultInteractiveTextInput.WithDefaultText(hint).Show()
	input = strings.TrimSpace(strings.ToLower(input))

	var (
		events []app.Event
		err    error
	)
	if input == "pass" || input == "p" {
		events, err = svc.Pass(table, humanSeat)
	} else {
		indices, parseErr := parseIndices(input, len(table.Players[humanSeat].Hand))
		if parseErr != nil {
			pterm.Warning.Println(parseErr.Error())
			return
		}
		events, err = svc.PlayIndices(table, humanSeat, indices)
	}
	if err != nil {
		pterm.Warning.Println(err.Error())
		return
	}
	printEvents(table, events)
}

func botTurn(svc *app.Service, brain bot.Brain, table *domain.TableState, rng *rand.Rand) {
	seat := table.CurrentTurn
	time.Sleep(bot.ThinkDelay(rng.Float64))

	mv := brain.ChooseMove(table, seat)
	var (
		events []app.Event
		err    error
	)
	if mv.Pass {
		events, err = svc.Pass(table, seat)
		if err == app.ErrCannotPassOpen {
			if plays := svc.LegalActions(table, seat); len(plays) > 0 {
				events, err = svc.Play(table, seat, plays[0])
			}
		}
	} else {
		events, err = svc.Play(table, seat, mv.Cards)
	}
	if err != nil {
		pterm.Error.Printfln("%s is stuck: %v", table.Players[seat].Name, err)
		return
	}
	printEvents(table, events)
}

// parseIndices converts 1-based card numbers from the prompt into
// 0-based hand indices.
func parseIndices(input string, handSize int) ([]int, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil, errInput("nothing entered")
	}
	indices := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > handSize {
			return nil, errInput("'" + f + "' is not a card number between 1 and " + strconv.Itoa(handSize))
		}
		indices = append(indices, n-1)
	}
	return indices, nil
}

type errInput string

func (e errInput) Error() string { return string(e) }
