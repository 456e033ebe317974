package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/adiprasetyo/kalkulo/internal/api"
	"github.com/adiprasetyo/kalkulo/internal/config"
	"github.com/adiprasetyo/kalkulo/internal/controller"
	"github.com/adiprasetyo/kalkulo/internal/logger"
	"github.com/adiprasetyo/kalkulo/internal/repository"
	"github.com/adiprasetyo/kalkulo/internal/session"
)

const usage = `Usage: kalkulo <command> [flags]

Commands:
  register  -u <username> -p <password> -n <full name>
  login     -u <username> -p <password>
  logout
  whoami
  calc      -m <principal> -r <rate> -t <years> [-local]
  types
  history   list
  history   save   -tipe <id> [-note <text>] -m <principal> -r <rate> -t <years>
  history   update -id <id> -tipe <id> [-note <text>] -m <principal> -r <rate> -t <years>
  history   delete -id <id>
`

type app struct {
	store   *session.Store
	auth    *controller.AuthController
	calc    *controller.CalculatorController
	history *controller.HistoryController
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// Load configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level)

	// Set up the session database
	db, err := session.Open(cfg.Session.DBPath)
	if err != nil {
		log.WithError(err).Fatal("failed to open session store")
	}
	defer db.Close()

	ctx := context.Background()

	store := session.NewStore(db, logger.WithComponent(log, "session"))
	store.Load(ctx)

	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, logger.WithComponent(log, "api"))

	a := &app{
		store:   store,
		auth:    controller.NewAuthController(repository.NewAuthRepository(client), store, logger.WithComponent(log, "auth")),
		calc:    controller.NewCalculatorController(repository.NewCalculationRepository(client), store, logger.WithComponent(log, "calculator")),
		history: controller.NewHistoryController(repository.NewHistoryRepository(client), store, logger.WithComponent(log, "history")),
	}

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		a.auth.Logout(ctx)
		fmt.Println("Logged out")
		return nil
	case "whoami":
		return a.whoami()
	case "calc":
		return a.calculate(ctx, args)
	case "types":
		return a.listTypes(ctx)
	case "history":
		return a.historyCommand(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

// await subscribes before the action runs and blocks until the machine
// reaches Success or Error.
func await[T any](m *controller.Machine[T], action func()) controller.State[T] {
	ch, cancel := m.Subscribe()
	defer cancel()

	action()

	timeout := time.After(time.Minute)
	for {
		select {
		case state := <-ch:
			if state.Phase == controller.PhaseSuccess || state.Phase == controller.PhaseError {
				return state
			}
		case <-timeout:
			return controller.Errored[T]("timed out waiting for a response")
		}
	}
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	fullName := fs.String("n", "", "full name")
	fs.Parse(args)

	state := await(a.auth.RegisterState, func() {
		a.auth.Register(ctx, *username, *password, *fullName)
	})
	if state.Phase == controller.PhaseError {
		return fmt.Errorf("%s", state.Err)
	}
	fmt.Println(state.Value.Message)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	fs.Parse(args)

	state := await(a.auth.LoginState, func() {
		a.auth.Login(ctx, *username, *password)
	})
	if state.Phase == controller.PhaseError {
		return fmt.Errorf("%s", state.Err)
	}
	fmt.Printf("Logged in as %s (%s)\n", state.Value.User.Username, state.Value.User.FullName)
	return nil
}

func (a *app) whoami() error {
	sess, ok := a.store.Current()
	if !ok {
		return fmt.Errorf("Not authenticated")
	}
	fmt.Printf("%s (%s), user id %d\n", sess.User.Username, sess.User.FullName, sess.User.ID)
	return nil
}

func (a *app) calculate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("calc", flag.ExitOnError)
	principal := fs.Float64("m", 0, "initial principal")
	rate := fs.Float64("r", 0, "annual rate as a fraction, e.g. 0.05")
	years := fs.Int("t", 0, "duration in whole years")
	local := fs.Bool("local", false, "compute locally without calling the server")
	fs.Parse(args)

	if *local {
		data, err := a.calc.Preview(*principal, *rate, *years)
		if err != nil {
			return err
		}
		printCalculation(data.FinalBalance, data.TotalInterest, data.Formula)
		return nil
	}

	state := await(a.calc.CalculationState, func() {
		a.calc.Calculate(ctx, *principal, *rate, *years)
	})
	if state.Phase == controller.PhaseError {
		return fmt.Errorf("%s", state.Err)
	}
	printCalculation(state.Value.FinalBalance, state.Value.TotalInterest, state.Value.Formula)
	return nil
}

func printCalculation(finalBalance, totalInterest float64, formula string) {
	fmt.Printf("Final balance : %.2f\n", finalBalance)
	fmt.Printf("Total interest: %.2f\n", totalInterest)
	fmt.Printf("Formula       : %s\n", formula)
}

func (a *app) listTypes(ctx context.Context) error {
	state := await(a.history.TypesState, func() {
		a.history.LoadInvestmentTypes(ctx)
	})
	if state.Phase == controller.PhaseError {
		return fmt.Errorf("%s", state.Err)
	}
	for _, t := range state.Value {
		desc := ""
		if t.Description != nil {
			desc = " - " + *t.Description
		}
		fmt.Printf("%d\t%s%s\n", t.ID, t.Name, desc)
	}
	return nil
}

func (a *app) historyCommand(ctx context.Context, args []string) error {
	if len(args) < 1 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("missing history subcommand")
	}

	switch args[0] {
	case "list":
		return a.listHistory(ctx)
	case "save":
		return a.saveHistory(ctx, args[1:])
	case "update":
		return a.updateHistory(ctx, args[1:])
	case "delete":
		return a.deleteHistory(ctx, args[1:])
	default:
		return fmt.Errorf("unknown history subcommand %q", args[0])
	}
}

func (a *app) listHistory(ctx context.Context) error {
	state := await(a.history.HistoryState, func() {
		a.history.LoadHistory(ctx)
	})
	if state.Phase == controller.PhaseError {
		return fmt.Errorf("%s", state.Err)
	}
	if len(state.Value) == 0 {
		fmt.Println("No saved calculations")
		return nil
	}
	for _, h := range state.Value {
		note := ""
		if h.Note != nil {
			note = " (" + *h.Note + ")"
		}
		fmt.Printf("#%d\t%s\t%.2f @ %.2f%% x %dy = %.2f%s\n",
			h.ID, h.TypeName, h.Principal, h.Rate*100, h.Years, h.FinalBalance, note)
	}
	return nil
}

func (a *app) saveHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history save", flag.ExitOnError)
	typeID := fs.Int("tipe", 0, "investment type id")
	note := fs.String("note", "", "free-text note")
	principal := fs.Float64("m", 0, "initial principal")
	rate := fs.Float64("r", 0, "annual rate as a fraction")
	years := fs.Int("t", 0, "duration in whole years")
	fs.Parse(args)

	// The saved balance comes from the server-side calculation, matching
	// the calculate-then-save flow.
	calcState := await(a.calc.CalculationState, func() {
		a.calc.Calculate(ctx, *principal, *rate, *years)
	})
	if calcState.Phase == controller.PhaseError {
		return fmt.Errorf("%s", calcState.Err)
	}

	var notePtr *string
	if *note != "" {
		notePtr = note
	}

	state := await(a.history.SaveState, func() {
		a.history.SaveHistory(ctx, *typeID, notePtr, *principal, *rate, *years, calcState.Value.FinalBalance)
	})
	if state.Phase == controller.PhaseError {
		return fmt.Errorf("%s", state.Err)
	}
	fmt.Println(state.Value)
	return nil
}

func (a *app) updateHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history update", flag.ExitOnError)
	id := fs.Int("id", 0, "history id")
	typeID := fs.Int("tipe", 0, "investment type id")
	note := fs.String("note", "", "free-text note")
	principal := fs.Float64("m", 0, "initial principal")
	rate := fs.Float64("r", 0, "annual rate as a fraction")
	years := fs.Int("t", 0, "duration in whole years")
	fs.Parse(args)

	var notePtr *string
	if *note != "" {
		notePtr = note
	}

	state := await(a.history.SaveState, func() {
		a.history.UpdateHistory(ctx, *id, *typeID, notePtr, *principal, *rate, *years)
	})
	if state.Phase == controller.PhaseError {
		return fmt.Errorf("%s", state.Err)
	}
	fmt.Println(state.Value)
	return nil
}

func (a *app) deleteHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history delete", flag.ExitOnError)
	id := fs.Int("id", 0, "history id")
	fs.Parse(args)

	state := await(a.history.SaveState, func() {
		a.history.DeleteHistory(ctx, *id)
	})
	if state.Phase == controller.PhaseError {
		return fmt.Errorf("%s", state.Err)
	}
	fmt.Println(state.Value)
	return nil
}
