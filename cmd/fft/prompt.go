package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/foodforthought/internal/game"
	"github.com/robalobadob/foodforthought/internal/geo"
)

var errQuit = errors.New("quit")

// prompt is the line-oriented game loop: one line in, one action out.
type prompt struct {
	m   *game.Machine
	in  *bufio.Scanner
	out io.Writer

	countries func(context.Context) ([]string, error)
	onReveal  func(context.Context, []bool)

	shownResults bool
}

func newPrompt(m *game.Machine, in io.Reader, out io.Writer) *prompt {
	return &prompt{m: m, in: bufio.NewScanner(in), out: out}
}

func (p *prompt) run(ctx context.Context) error {
	p.printf("🍽️  Food for Thought\n")
	p.revealTiles(ctx)
	for {
		st := p.m.State()
		if st.ActivePhase == game.PhaseComplete {
			if !p.shownResults {
				p.results(ctx)
				p.shownResults = true
			}
		} else {
			p.shownResults = false
			p.show(st)
		}

		p.printf("> ")
		if !p.in.Scan() {
			p.printf("\n")
			return p.in.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		err := p.handle(ctx, strings.TrimSpace(p.in.Text()))
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (p *prompt) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

// handle runs one input line. Game rule violations are printed, not
// returned; only storage failures end the session.
func (p *prompt) handle(ctx context.Context, line string) error {
	st := p.m.State()
	switch line {
	case "":
		return nil
	case ":quit", ":q":
		return errQuit
	case ":help", ":h":
		p.help()
		return nil
	case ":back":
		return p.move(ctx, st, -1)
	case ":next":
		return p.move(ctx, st, +1)
	}

	if strings.HasPrefix(line, ":countries") {
		p.listCountries(ctx, strings.TrimSpace(strings.TrimPrefix(line, ":countries")))
		return nil
	}
	if strings.HasPrefix(line, ":") && line != ":give-up" {
		p.printf("Unknown command %s (try :help)\n", line)
		return nil
	}
	if st.Phase == game.PhaseComplete {
		p.printf("Today's game is over. Use :back to review or :quit.\n")
		return nil
	}
	if st.ActivePhase != st.Phase {
		p.printf("You are reviewing the %s phase. Use :next to get back to the %s phase.\n", st.ActivePhase, st.Phase)
		return nil
	}

	var err error
	if line == ":give-up" {
		err = p.m.GiveUp(ctx)
		if err == nil {
			p.printf("🏳️  The answer was %s.\n", p.answer(st.Phase))
		}
	} else {
		err = p.guess(ctx, st.Phase, line)
	}
	p.revealTiles(ctx)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, game.ErrEmptyGuess), errors.Is(err, game.ErrInvalidGuess), errors.Is(err, game.ErrPhaseClosed):
		p.printf("%s\n", err)
		return nil
	default:
		return err
	}
}

func (p *prompt) guess(ctx context.Context, phase game.Phase, line string) error {
	switch phase {
	case game.PhaseDish:
		g, err := p.m.GuessDish(ctx, line)
		if err != nil {
			return err
		}
		if g.Correct {
			p.printf("✅ Yes! It's %s.\n", p.m.Dish().Name)
		} else {
			p.printf("❌ Not %s.\n", g.Guess)
		}
		return nil

	case game.PhaseCountry:
		g, err := p.m.GuessCountry(ctx, line)
		if err != nil {
			return err
		}
		switch {
		case g.Correct:
			p.printf("✅ Right, %s!\n", p.m.Dish().Country)
		case g.Invalid:
			p.printf("❓ %s is not a country I know. That still costs a guess.\n", g.Country)
		default:
			p.printf("❌ %s is %s km away, head %s.\n", g.Country, thousands(int(g.Distance+0.5)), g.Direction)
		}
		return nil

	case game.PhaseProtein:
		grams, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(line), "g"))
		if err != nil {
			p.printf("Enter a whole number of grams, e.g. 25\n")
			return nil
		}
		g, err := p.m.GuessProtein(ctx, grams)
		if err != nil {
			return err
		}
		if g.Correct {
			p.printf("✅ Exactly %dg!\n", grams)
		} else {
			p.printf("❌ %dg is %s.\n", grams, g.Proximity())
		}
		return nil
	}
	return game.ErrPhaseClosed
}

// move shifts the review cursor one reached phase back or forward.
func (p *prompt) move(ctx context.Context, st game.State, step int) error {
	phases := []game.Phase{game.PhaseDish, game.PhaseCountry}
	if p.m.Dish().HasProtein() {
		phases = append(phases, game.PhaseProtein)
	}
	phases = append(phases, game.PhaseComplete)

	i := 0
	for j, ph := range phases {
		if ph == st.ActivePhase {
			i = j
		}
	}
	i += step
	if i < 0 || i >= len(phases) {
		p.printf("Nothing further that way.\n")
		return nil
	}
	err := p.m.SetActivePhase(ctx, phases[i])
	if errors.Is(err, game.ErrPhaseLocked) {
		p.printf("You haven't reached the %s phase yet.\n", phases[i])
		return nil
	}
	return err
}

func (p *prompt) show(st game.State) {
	r := p.m.Rules()
	switch st.ActivePhase {
	case game.PhaseDish:
		p.printf("\n🍜 Dish: guess %d of %d\n", min(st.Attempts(game.PhaseDish)+1, r.DishAttempts), r.DishAttempts)
		p.printf("   Photo  %s\n", tileBar(st.RevealedTiles))
		p.printf("   Ingredients: %s\n", strings.Join(p.m.Ingredients(), ", "))
		if tags := p.m.Dish().Tags; len(tags) > 0 {
			p.printf("   Tags: %s\n", strings.Join(tags, ", "))
		}
		for _, g := range st.DishGuesses {
			if !g.Revealed {
				p.printf("   %s %s\n", mark(g.Correct), g.Guess)
			}
		}
	case game.PhaseCountry:
		p.printf("\n🌍 Where is %s from? Guess %d of %d\n", p.m.Dish().Name, min(st.Attempts(game.PhaseCountry)+1, r.CountryAttempts), r.CountryAttempts)
		for _, g := range st.CountryGuesses {
			switch {
			case g.Revealed:
			case g.Correct, g.Invalid:
				p.printf("   %s %s\n", mark(g.Correct), g.Country)
			default:
				p.printf("   ❌ %s  %s km %s\n", g.Country, thousands(int(g.Distance+0.5)), g.Direction)
			}
		}
	case game.PhaseProtein:
		p.printf("\n🎯 Grams of protein per serving? Guess %d of %d\n", min(st.Attempts(game.PhaseProtein)+1, r.ProteinAttempts), r.ProteinAttempts)
		for _, g := range st.ProteinGuesses {
			if !g.Revealed {
				p.printf("   %s %dg (%s)\n", mark(g.Correct), g.Guess, g.Proximity())
			}
		}
	}
	if st.ActivePhase != st.Phase {
		p.printf("   (review: the answer was %s; :next to continue)\n", p.answer(st.ActivePhase))
	}
}

func (p *prompt) results(ctx context.Context) {
	d := p.m.Dish()
	st := p.m.State()
	n, err := p.m.Streak(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("read streak")
	}

	headline := "🎉 Well played!"
	if st.Status() == game.StatusLost {
		headline = "😔 Not today."
	}
	p.printf("\n%s\n", headline)
	p.printf("%s (%s)", d.Name, d.Country)
	if d.HasProtein() {
		p.printf(", %dg protein per serving", *d.ProteinPerServing)
	}
	p.printf("\n")
	if d.Blurb != "" {
		p.printf("%s\n", d.Blurb)
	}
	if len(d.Recipe.Ingredients) > 0 {
		p.printf("\nYou'll need:\n")
		for _, ing := range d.Recipe.Ingredients {
			p.printf("  • %s\n", ing)
		}
	}
	if len(d.Recipe.Instructions) > 0 {
		p.printf("\nMethod:\n")
		for i, step := range d.Recipe.Instructions {
			p.printf("  %d. %s\n", i+1, step)
		}
	}
	p.printf("\n%s\n\n", game.ShareText(st, n))
}

func (p *prompt) answer(phase game.Phase) string {
	d := p.m.Dish()
	switch phase {
	case game.PhaseDish:
		return d.Name
	case game.PhaseCountry:
		return d.Country
	case game.PhaseProtein:
		if d.HasProtein() {
			return strconv.Itoa(*d.ProteinPerServing) + "g"
		}
	}
	return ""
}

func (p *prompt) listCountries(ctx context.Context, prefix string) {
	if p.countries == nil {
		return
	}
	names, err := p.countries(ctx)
	if err != nil {
		p.printf("Country list unavailable: %v\n", err)
		return
	}
	want := geo.Fold(prefix)
	var hits []string
	for _, n := range names {
		if strings.HasPrefix(geo.Fold(n), want) {
			hits = append(hits, n)
		}
	}
	if len(hits) == 0 {
		p.printf("No countries match %q\n", prefix)
		return
	}
	p.printf("%s\n", strings.Join(hits, ", "))
}

func (p *prompt) revealTiles(ctx context.Context) {
	if p.onReveal != nil {
		p.onReveal(ctx, p.m.State().RevealedTiles)
	}
}

func (p *prompt) help() {
	p.printf(`Type a guess and press enter.
  :give-up          reveal the answer for this phase
  :back, :next      review earlier phases
  :countries PREFIX list country names
  :quit             leave (progress is saved)
`)
}

func tileBar(revealed []bool) string {
	var b strings.Builder
	for _, ok := range revealed {
		if ok {
			b.WriteString("■")
		} else {
			b.WriteString("□")
		}
	}
	return b.String()
}

func mark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

// thousands formats n with comma separators.
func thousands(n int) string {
	s := strconv.Itoa(n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
