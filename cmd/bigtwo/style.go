package main

import (
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"bigtwo/internal/app"
	"bigtwo/internal/domain"
)

// renderTable prints the opponents, the current play, the recent
// history and the viewer's numbered hand.
func renderTable(t *domain.TableState, seat int) {
	pbox := pterm.DefaultBox.WithHorizontalPadding(2)

	var opponents []string
	for i, p := range t.Players {
		if i == seat {
			continue
		}
		line := pterm.Sprintf("%s: %d cards", p.Name, len(p.Hand))
		if p.Finished {
			line = pterm.Sprintf("%s: finished", p.Name)
		}
		if i == t.CurrentTurn {
			line = pterm.LightYellow(line + "  <- to act")
		}
		opponents = append(opponents, line)
	}

	current := "table is open"
	if t.CurrentPlay != nil {
		current = pterm.Sprintf("%s by %s", cardsString(t.CurrentPlay.Cards), t.CurrentPlay.Owner)
	}

	panels := pterm.Panels{
		{
			{Data: pbox.WithTitle("Opponents").Sprint(strings.Join(opponents, "\n"))},
			{Data: pbox.WithTitle("Current play").Sprint(current)},
		},
		{
			{Data: pbox.WithTitle("Recent actions").Sprint(historyString(t))},
		},
	}
	if rendered, err := pterm.DefaultPanel.WithPanels(panels).Srender(); err == nil {
		pterm.Println(rendered)
	}

	hand := t.Players[seat].Hand
	numbered := make([]string, len(hand))
	for i, c := range hand {
		numbered[i] = strconv.Itoa(i+1) + ":" + c.String()
	}
	pterm.Info.Printfln("Your hand: %s", strings.Join(numbered, "  "))
}

func cardsString(cards []domain.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

func historyString(t *domain.TableState) string {
	if len(t.History) == 0 {
		return "no actions yet"
	}
	lines := make([]string, 0, len(t.History))
	for _, a := range t.History {
		if a.Kind == domain.ActionPass {
			lines = append(lines, pterm.Sprintf("%s passed", a.Actor))
			continue
		}
		lines = append(lines, pterm.Sprintf("%s played %s", a.Actor, cardsString(a.Cards)))
	}
	return strings.Join(lines, "\n")
}

// printEvents narrates service events between renders.
func printEvents(t *domain.TableState, events []app.Event) {
	for _, ev := range events {
		switch ev.Kind {
		case app.EventGameStarted:
			p := ev.Payload.(app.GameStartedPayload)
			pterm.Success.Printfln("Cards dealt. %s opens with the three of clubs.", t.Players[p.FirstTurnSeat].Name)
		case app.EventCardPlayed:
			p := ev.Payload.(app.CardPlayedPayload)
			pterm.Printfln("%s played %s", p.Name, cardsString(p.Cards))
		case app.EventTurnPassed:
			p := ev.Payload.(app.TurnPassedPayload)
			pterm.Printfln("%s passed", p.Name)
		case app.EventRoundClosed:
			p := ev.Payload.(app.RoundClosedPayload)
			pterm.Info.Printfln("Round closed. %s opens the next one.", t.Players[p.WinnerSeat].Name)
		case app.EventPlayerFinished:
			p := ev.Payload.(app.PlayerFinishedPayload)
			pterm.Success.Printfln("%s finished in place %d", p.Name, p.Place)
		}
	}
}

func printRankings(t *domain.TableState) {
	pterm.Println()
	rows := pterm.TableData{{"Place", "Player"}}
	for i, name := range t.Rankings {
		rows = append(rows, []string{strconv.Itoa(i + 1), name})
	}
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	pterm.Println()
}
