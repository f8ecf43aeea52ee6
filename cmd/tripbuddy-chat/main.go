// README: Terminal chat that plans a trip through a running TripBuddy API and saves the result.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"

	"tripbuddy/internal/client"
	"tripbuddy/internal/conversation"
	"tripbuddy/internal/infra"
	"tripbuddy/internal/itinerary"
	"tripbuddy/internal/types"
)

func main() {
	_ = godotenv.Load()

	baseURL := envOrDefault("TRIPBUDDY_API_URL", "http://localhost:8080")
	token := strings.TrimSpace(os.Getenv("TRIPBUDDY_ID_TOKEN"))
	if token == "" {
		fmt.Fprintln(os.Stderr, "TRIPBUDDY_ID_TOKEN is required (Firebase ID token of the signed-in user)")
		os.Exit(1)
	}
	log := infra.NewLogger(envOrDefault("TRIPBUDDY_LOG_LEVEL", "warn"), "tripbuddy-chat", true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.NewAPIClient(baseURL, token, client.DefaultTimeout)
	if err := api.Health(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "API not reachable at %s: %v\n", baseURL, err)
		os.Exit(1)
	}

	tracker := conversation.NewTracker(api, api, log, conversation.Options{
		EditTripID: types.ID(strings.TrimSpace(os.Getenv("TRIPBUDDY_EDIT_TRIP_ID"))),
	})

	fmt.Println("Hi, I'm your trip planner. Where would you like to go? (/quit to exit, /history to replay)")
	var widget *conversation.Widget
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			return
		}
		line := strings.TrimSpace(in.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return
		case "/history":
			for _, turn := range tracker.History() {
				marker := ""
				if turn.Failed {
					marker = " (failed)"
				}
				fmt.Printf("[%s]%s %s\n", turn.Role, marker, turn.Content)
			}
			continue
		}

		text := answer(widget, line)
		out, err := tracker.Send(ctx, text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "send: %v\n", err)
			continue
		}
		if out.Dropped {
			fmt.Println("(ignored, please wait a moment)")
			continue
		}
		if out.Canceled {
			continue
		}
		if out.Reply != nil {
			fmt.Println(out.Reply.Content)
		}
		widget = out.Widget
		printWidget(widget)
		if out.Trip != nil {
			printTrip(out.Trip, out.RecordID)
		}
	}
}

// answer maps option numbers and widget shorthands to the message the widget would send.
func answer(w *conversation.Widget, line string) string {
	if w == nil {
		return line
	}
	if w.Tag == itinerary.UIDateRange {
		parts := strings.Fields(line)
		if len(parts) == 2 {
			from, err1 := time.Parse(time.DateOnly, parts[0])
			to, err2 := time.Parse(time.DateOnly, parts[1])
			if err1 == nil && err2 == nil {
				return conversation.DateRangeMessage(from, to)
			}
		}
		return line
	}
	if len(w.Options) == 0 {
		return line
	}
	picks := strings.Split(line, ",")
	selected := make([]string, 0, len(picks))
	for _, p := range picks {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 1 || n > len(w.Options) {
			selected = nil
			break
		}
		selected = append(selected, w.Options[n-1].Value)
	}
	switch {
	case len(selected) > 0 && w.MultiSelect:
		return conversation.InterestsMessage(lo.Uniq(selected))
	case len(selected) == 1:
		return selected[0]
	case w.Tag == itinerary.UIBudget:
		return conversation.CustomBudgetMessage(line)
	case w.Tag == itinerary.UIGroupSize:
		return conversation.CustomGroupMessage(line)
	}
	return line
}

func printWidget(w *conversation.Widget) {
	if w == nil {
		return
	}
	if w.Format != "" {
		fmt.Printf("  enter: YYYY-MM-DD YYYY-MM-DD (%s)\n", w.Format)
		return
	}
	for i, o := range w.Options {
		if o.Desc != "" {
			fmt.Printf("  %d) %s - %s\n", i+1, o.Label, o.Desc)
		} else {
			fmt.Printf("  %d) %s\n", i+1, o.Label)
		}
	}
	if w.MultiSelect {
		fmt.Println("  pick one or more, e.g. 1,3,4")
	} else {
		fmt.Println("  pick a number or type your own answer")
	}
}

func printTrip(t *itinerary.TripItinerary, id types.ID) {
	fmt.Printf("\n== %s ==\n", lo.CoalesceOrEmpty(string(t.TripTitle), "Your trip"))
	if !t.Duration.Blank() {
		fmt.Println("Duration:", t.Duration)
	}
	if t.Budget != nil && t.Budget.Total > 0 {
		fmt.Printf("Budget: %.0f %s\n", float64(t.Budget.Total), t.Budget.Currency)
	}
	for _, d := range t.Itinerary {
		fmt.Printf("Day %d: %s\n", d.Day, d.Title)
		fmt.Printf("  morning:   %s\n  afternoon: %s\n  evening:   %s\n", d.Morning, d.Afternoon, d.Evening)
	}
	if id != "" {
		fmt.Printf("\nSaved as trip %s\n", id)
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
