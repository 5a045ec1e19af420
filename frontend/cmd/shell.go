package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	ishell "github.com/abiosoft/ishell"
	"github.com/common-nighthawk/go-figure"

	"github.com/jghoshh/getfit/frontend/client"
	"github.com/jghoshh/getfit/frontend/hooks"
	"github.com/jghoshh/getfit/lib/utils"
)

// guestCommands is a slice of Command structures containing commands that are available to users who have not logged in.
var guestCommands []Command

// userCommands is a slice of Command structures containing commands that are available only to logged in users.
var userCommands []Command

// commonCommands is a slice of Command structures containing commands that are available to all users, regardless of their login status.
var commonCommands []Command

// loggedIn is a boolean variable that indicates whether a user is currently logged in.
var loggedIn bool

// shell represents an instance of the interactive shell used for this application.
var shell *ishell.Shell

// api is the RPC client every command goes through.
var api *client.Client

// current holds the bindings of the signed in user.
var current *session

// The Command struct defines a user command in the system. Each command has a Name, a Desc (short for description), and a Func (the function to execute when the command is called).
type Command struct {
	Name string                  // Name is the name of the command.
	Desc string                  // Desc is a short description of what the command does.
	Func func(c *ishell.Context) // Func is the function that is executed when the command is invoked.
}

// session groups the bindings of one signed in user.
type session struct {
	userID     string
	mounted    map[owned]bool
	user       *hooks.User
	dashboard  *hooks.Dashboard
	activities *hooks.Activities
	workouts   *hooks.Workouts
	meals      *hooks.Meals
	water      *hooks.Water
	health     *hooks.HealthMetrics
	goals      *hooks.Goals
	social     *hooks.Social
	challenges *hooks.Challenges
	coach      *hooks.Coaching
}

type owned interface {
	SetOwner(ctx context.Context, owner string) error
	Close()
}

func newSession(c *client.Client, userID string) *session {
	today := utils.DateString(time.Now())
	return &session{
		userID:     userID,
		mounted:    make(map[owned]bool),
		user:       hooks.NewUser(c),
		dashboard:  hooks.NewDashboard(c, nil),
		activities: hooks.NewActivities(c),
		workouts:   hooks.NewWorkouts(c),
		meals:      hooks.NewMeals(c, today),
		water:      hooks.NewWater(c, today),
		health:     hooks.NewHealthMetrics(c, ""),
		goals:      hooks.NewGoals(c),
		social:     hooks.NewSocial(c),
		challenges: hooks.NewChallenges(c),
		coach:      hooks.NewCoaching(c),
	}
}

func (s *session) all() []owned {
	return []owned{s.user, s.dashboard, s.activities, s.workouts, s.meals, s.water, s.health, s.goals, s.social, s.challenges, s.coach}
}

type binding interface {
	owned
	Refresh(ctx context.Context) error
}

// mount binds b to the session owner the first time a command needs it.
// Subscriptions outlive the command, so the first load is not bound to the
// command's context. It reports false when the session is unusable.
func (s *session) mount(b owned) bool {
	if s.mounted[b] {
		return true
	}
	s.mounted[b] = true
	if err := b.SetOwner(context.Background(), s.userID); err != nil {
		handleError(err)
		return false
	}
	return true
}

// sync brings b up to date and reports whether it loaded cleanly.
func (s *session) sync(ctx context.Context, b binding) bool {
	var err error
	if s.mounted[b] {
		err = b.Refresh(ctx)
	} else {
		s.mounted[b] = true
		err = b.SetOwner(context.Background(), s.userID)
	}
	if err != nil {
		handleError(err)
		return false
	}
	return true
}

func (s *session) close() {
	for _, b := range s.all() {
		b.Close()
	}
}

// InitShell initializes the shell and sets up the commands for guest and user scenarios.
func InitShell(c *client.Client) {
	api = c
	shell = ishell.New()

	guestCommands = guestCommandSet()
	userCommands = userCommandSet()

	// Define common commands that are always available, regardless of login state
	commonCommands = []Command{
		{
			Name: "exit",
			Desc: "Exit the application",
			Func: func(c *ishell.Context) {
				if current != nil {
					current.close()
				}
				fmt.Println("Goodbye!")
				os.Exit(0)
			},
		},
	}

	// The help command is created separately to avoid the cyclic dependency
	commonCommands = append(commonCommands, Command{
		Name: "help",
		Desc: "List available commands",
		Func: func(c *ishell.Context) {
			c.Println("Available commands:")
			if loggedIn {
				for _, command := range userCommands {
					c.Println("  |-- '" + command.Name + "' : " + command.Desc)
				}
			} else {
				for _, command := range guestCommands {
					c.Println("  |-- '" + command.Name + "' : " + command.Desc)
				}
			}
			for _, command := range commonCommands {
				c.Println("  |-- '" + command.Name + "' : " + command.Desc)
			}
			c.Println()
		},
	})
}

// signedIn swaps the guest commands for the user commands.
func signedIn(userID string) {
	loggedIn = true
	current = newSession(api, userID)
	for _, command := range guestCommands {
		shell.DeleteCmd(command.Name)
	}
	addCommands(shell, userCommands)
}

// signedOut swaps the user commands back for the guest commands.
func signedOut() {
	loggedIn = false
	if current != nil {
		current.close()
		current = nil
	}
	for _, command := range userCommands {
		shell.DeleteCmd(command.Name)
	}
	addCommands(shell, guestCommands)
}

// handleError prints err for the user and signs out when the session is gone.
func handleError(err error) {
	if errors.Is(err, client.ErrSessionExpired) {
		utils.PrintError("Session expired, please sign in again by typing 'signin' in the terminal.")
		api.ClearKeyring()
		signedOut()
		return
	}
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		utils.PrintError(um.UserMessage())
		return
	}
	utils.PrintError(err.Error())
}

// addCommands is a helper function that adds the given commands to the shell.
func addCommands(shell *ishell.Shell, commands []Command) {
	for _, command := range commands {
		shell.AddCmd(&ishell.Cmd{
			Name: command.Name,
			Help: command.Desc,
			Func: command.Func,
		})
	}
}

// Execute is the main function that executes the shell.
// It welcomes the user, adds common and guest or user commands to the shell, and runs the shell.
func Execute() {
	shell.Println()
	figure.NewFigure("GetFit", "basic", true).Print()
	shell.Println("Welcome to GetFit -- track workouts, meals and progress. Type 'help' to see a list of commands.")

	addCommands(shell, commonCommands)

	userID, err := api.CurrentUserID()
	if err == nil && userID != "" {
		loggedIn = true
		current = newSession(api, userID)
		addCommands(shell, userCommands)
		shell.Println("Welcome back, you are signed in.")
	} else {
		addCommands(shell, guestCommands)
	}

	shell.Run()
}

// prompt reads lines until valid accepts one.
func prompt(c *ishell.Context, label string, valid func(string) error) string {
	for {
		c.Print(label + ": ")
		line := strings.TrimSpace(c.ReadLine())
		if valid == nil {
			return line
		}
		if err := valid(line); err != nil {
			c.Println(err.Error())
			continue
		}
		return line
	}
}

func promptFloat(c *ishell.Context, label string) float64 {
	v, _ := parseNumber(prompt(c, label, func(s string) error {
		_, err := parseNumber(s)
		return err
	}))
	return v
}

func promptInt(c *ishell.Context, label string) int {
	return int(promptFloat(c, label))
}

func promptChoice(c *ishell.Context, label string, options []string) string {
	return prompt(c, label+" ("+strings.Join(options, "/")+")", func(s string) error {
		for _, o := range options {
			if s == o {
				return nil
			}
		}
		return fmt.Errorf("Please choose one of: %s.", strings.Join(options, ", "))
	})
}

func promptDate(c *ishell.Context, label string) string {
	line := prompt(c, label+" (YYYY-MM-DD, empty for today)", func(s string) error {
		if s == "" || utils.ValidateDate(s) {
			return nil
		}
		return errors.New("Please enter a date as YYYY-MM-DD.")
	})
	if line == "" {
		return utils.DateString(time.Now())
	}
	return line
}

// parseNumber accepts a non-negative decimal number.
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0, errors.New("Please enter a non-negative number.")
	}
	return v, nil
}
