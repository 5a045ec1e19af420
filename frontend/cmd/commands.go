package cmd

import (
	"context"
	"errors"
	"time"

	ishell "github.com/abiosoft/ishell"

	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/backend/validation"
	"github.com/jghoshh/getfit/lib/utils"
)

// commandTimeout bounds a single command's round trips.
const commandTimeout = 30 * time.Second

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

// guestCommandSet defines the commands available to a guest user (not signed in).
func guestCommandSet() []Command {
	return []Command{
		{
			Name: "signin",
			Desc: "Sign in to your account",
			Func: func(c *ishell.Context) {
				email := prompt(c, "Enter Email", nonEmpty("Email cannot be empty."))
				var password string
				for {
					c.Print("Enter Password: ")
					password = c.ReadPassword()
					if len(password) > 0 {
						break
					}
					c.Println("Password cannot be empty.")
				}

				ctx, cancel := commandContext()
				defer cancel()
				res, err := api.SignIn(ctx, email, password)
				if err != nil {
					handleError(err)
					return
				}
				utils.PrintBanner("Welcome, you are now signed in.")
				signedIn(res.UserID)
			},
		},
		{
			Name: "signup",
			Desc: "Create a new account",
			Func: func(c *ishell.Context) {
				name := prompt(c, "Enter Display Name", nonEmpty("Display name cannot be empty."))
				email := prompt(c, "Enter Email", func(s string) error {
					if !utils.ValidateEmail(s) {
						return errors.New("Please enter a valid email address.")
					}
					return nil
				})
				var password string
				for {
					c.Print("Enter Password: ")
					password = c.ReadPassword()
					if utils.ValidatePassword(password) {
						break
					}
					c.Println("Password must be at least 8 characters and contain both letters and numbers.")
				}

				ctx, cancel := commandContext()
				defer cancel()
				res, err := api.SignUp(ctx, email, password, name)
				if err != nil {
					handleError(err)
					return
				}
				utils.PrintBanner("Welcome to GetFit, your account is ready.")
				signedIn(res.UserID)
			},
		},
	}
}

// userCommandSet defines the commands available to a signed in user.
func userCommandSet() []Command {
	return []Command{
		{
			Name: "dashboard",
			Desc: "Show today's progress against your goals",
			Func: func(c *ishell.Context) {
				ctx, cancel := commandContext()
				defer cancel()
				if current.sync(ctx, current.dashboard) {
					c.Println(renderDashboard(current.dashboard.Snapshot().Data))
				}
			},
		},
		{
			Name: "profile",
			Desc: "Show or edit your profile and daily goals",
			Func: func(c *ishell.Context) {
				ctx, cancel := commandContext()
				defer cancel()
				if !current.sync(ctx, current.user) {
					return
				}
				u := current.user.Snapshot().Data
				if u == nil {
					c.Println("Profile not found.")
					return
				}
				c.Println(renderProfile(u))
				if prompt(c, "Edit your daily goals? (y/n)", nil) != "y" {
					return
				}
				goals := u.Goals
				goals.DailySteps = promptInt(c, "Daily steps")
				goals.DailyCalories = promptFloat(c, "Daily calories")
				goals.DailyWater = promptInt(c, "Daily glasses of water")
				goals.WeeklyWorkouts = promptInt(c, "Weekly workouts")

				ctx, cancel = commandContext()
				defer cancel()
				if _, err := current.user.Update(ctx, models.UserUpdate{Goals: &goals}); err != nil {
					handleError(err)
					return
				}
				c.Println("Goals updated.")
			},
		},
		{
			Name: "activity",
			Desc: "Log a run, walk, ride or swim",
			Func: func(c *ishell.Context) {
				in := models.ActivityInput{
					Type:     promptChoice(c, "Type", validation.ActivityTypes),
					Distance: promptFloat(c, "Distance (km)"),
					Duration: promptInt(c, "Duration (minutes)"),
					Calories: promptFloat(c, "Calories burned"),
					Date:     promptDate(c, "Date"),
				}
				ctx, cancel := commandContext()
				defer cancel()
				if !current.mount(current.activities) {
					return
				}
				if _, err := current.activities.Add(ctx, in); err != nil {
					handleError(err)
					return
				}
				c.Println("Activity logged.")
			},
		},
		{
			Name: "activities",
			Desc: "List your recent activities",
			Func: func(c *ishell.Context) {
				ctx, cancel := commandContext()
				defer cancel()
				if current.sync(ctx, current.activities) {
					c.Println(renderActivities(current.activities.Snapshot().Data))
				}
			},
		},
		{
			Name: "workout",
			Desc: "Log a completed workout",
			Func: func(c *ishell.Context) {
				in := models.WorkoutInput{
					Title:      prompt(c, "Title", nonEmpty("Title cannot be empty.")),
					Category:   prompt(c, "Category", nonEmpty("Category cannot be empty.")),
					Difficulty: promptChoice(c, "Difficulty", validation.Difficulties),
					Duration:   promptInt(c, "Duration (minutes)"),
					Calories:   promptFloat(c, "Calories burned"),
					Notes:      prompt(c, "Notes (optional)", nil),
				}
				ctx, cancel := commandContext()
				defer cancel()
				if !current.mount(current.workouts) {
					return
				}
				if _, err := current.workouts.Add(ctx, in); err != nil {
					handleError(err)
					return
				}
				c.Println("Workout logged. Keep it up!")
			},
		},
		{
			Name: "workouts",
			Desc: "List your recent workouts",
			Func: func(c *ishell.Context) {
				ctx, cancel := commandContext()
				defer cancel()
				if current.sync(ctx, current.workouts) {
					c.Println(renderWorkouts(current.workouts.Snapshot().Data))
				}
			},
		},
		{
			Name: "meal",
			Desc: "Log a meal for today",
			Func: func(c *ishell.Context) {
				in := models.MealInput{
					Type:     promptChoice(c, "Meal", validation.MealTypes),
					Name:     prompt(c, "Name", nonEmpty("Name cannot be empty.")),
					Calories: promptFloat(c, "Calories"),
					Date:     utils.DateString(time.Now()),
					Time:     time.Now().Format("15:04"),
				}
				ctx, cancel := commandContext()
				defer cancel()
				if !current.mount(current.meals) {
					return
				}
				if _, err := current.meals.Add(ctx, in); err != nil {
					handleError(err)
					return
				}
				c.Println("Meal logged.")
			},
		},
		{
			Name: "meals",
			Desc: "List today's meals",
			Func: func(c *ishell.Context) {
				ctx, cancel := commandContext()
				defer cancel()
				if current.sync(ctx, current.meals) {
					c.Println(renderMeals(current.meals.Snapshot().Data))
				}
			},
		},
		{
			Name: "water",
			Desc: "Set how many glasses of water you drank today",
			Func: func(c *ishell.Context) {
				if !current.mount(current.water) {
					return
				}
				if w := current.water.Snapshot().Data; w != nil {
					c.Printf("So far today: %d glasses.\n", w.Glasses)
				}
				glasses := promptInt(c, "Glasses")
				ctx, cancel := commandContext()
				defer cancel()
				if _, err := current.water.Set(ctx, glasses); err != nil {
					handleError(err)
					return
				}
				c.Printf("Water intake set to %d glasses.\n", glasses)
			},
		},
		{
			Name: "health",
			Desc: "Log weight, sleep, mood or heart rate",
			Func: func(c *ishell.Context) {
				in := models.HealthMetricInput{
					Type: promptChoice(c, "Metric", validation.MetricTypes),
					Date: promptDate(c, "Date"),
				}
				switch in.Type {
				case models.MetricMood:
					in.Mood = promptChoice(c, "Mood", validation.Moods)
				case models.MetricWeight:
					in.Value = promptFloat(c, "Weight")
					in.Unit = promptChoice(c, "Unit", validation.WeightUnits)
				case models.MetricSleep:
					in.Value = promptFloat(c, "Hours slept")
					in.Quality = promptChoice(c, "Quality", validation.SleepQualities)
				default:
					in.Value = promptFloat(c, "Beats per minute")
				}
				ctx, cancel := commandContext()
				defer cancel()
				if !current.mount(current.health) {
					return
				}
				if _, err := current.health.Add(ctx, in); err != nil {
					handleError(err)
					return
				}
				c.Println("Entry saved.")
			},
		},
		{
			Name: "metrics",
			Desc: "List your health entries",
			Func: func(c *ishell.Context) {
				ctx, cancel := commandContext()
				defer cancel()
				if current.sync(ctx, current.health) {
					c.Println(renderMetrics(current.health.Snapshot().Data))
				}
			},
		},
		{
			Name: "goal",
			Desc: "Set a new goal",
			Func: func(c *ishell.Context) {
				in := models.GoalInput{
					Type:        promptChoice(c, "Type", validation.GoalTypes),
					Title:       prompt(c, "Title", nonEmpty("Title cannot be empty.")),
					TargetValue: promptFloat(c, "Target"),
					StartDate:   utils.DateString(time.Now()),
				}
				ctx, cancel := commandContext()
				defer cancel()
				if !current.mount(current.goals) {
					return
				}
				if _, err := current.goals.Create(ctx, in); err != nil {
					handleError(err)
					return
				}
				c.Println("Goal created.")
			},
		},
		{
			Name: "goals",
			Desc: "List your active goals and record progress",
			Func: func(c *ishell.Context) {
				ctx, cancel := commandContext()
				defer cancel()
				if !current.sync(ctx, current.goals) {
					return
				}
				goals := current.goals.Snapshot().Data
				c.Println(renderGoals(goals))
				if len(goals) == 0 {
					return
				}
				choice := c.MultiChoice(goalTitles(goals, "Done"), "Record progress on a goal?")
				if choice < 0 || choice >= len(goals) {
					return
				}
				amount := promptFloat(c, "Amount to add")
				ctx, cancel = commandContext()
				defer cancel()
				g, err := current.goals.AddProgress(ctx, goals[choice].ID, amount)
				if err != nil {
					handleError(err)
					return
				}
				if g.Status == models.GoalCompleted {
					c.Println("Goal completed, well done!")
					return
				}
				c.Printf("Progress: %s\n", formatProgress(g.CurrentValue, g.TargetValue))
			},
		},
		{
			Name: "challenges",
			Desc: "Browse and join challenges",
			Func: func(c *ishell.Context) {
				ctx, cancel := commandContext()
				defer cancel()
				if !current.sync(ctx, current.challenges) {
					return
				}
				list := current.challenges.Snapshot().Data
				c.Println(renderChallenges(list, current.userID))
				if len(list) == 0 {
					return
				}
				choice := c.MultiChoice(challengeNames(list, "Done"), "Join a challenge?")
				if choice < 0 || choice >= len(list) {
					return
				}
				ctx, cancel = commandContext()
				defer cancel()
				if _, err := current.challenges.Join(ctx, list[choice].ID); err != nil {
					handleError(err)
					return
				}
				c.Printf("You joined %s.\n", list[choice].Name)
			},
		},
		{
			Name: "challenge",
			Desc: "Start a new challenge",
			Func: func(c *ishell.Context) {
				in := models.ChallengeInput{
					Name:        prompt(c, "Name", nonEmpty("Name cannot be empty.")),
					Description: prompt(c, "Description", nonEmpty("Description cannot be empty.")),
					DaysLeft:    promptInt(c, "Days"),
				}
				ctx, cancel := commandContext()
				defer cancel()
				if !current.mount(current.challenges) {
					return
				}
				if _, err := current.challenges.Create(ctx, in); err != nil {
					handleError(err)
					return
				}
				c.Println("Challenge created.")
			},
		},
		{
			Name: "friends",
			Desc: "Show friends, their workouts and the leaderboard",
			Func: func(c *ishell.Context) {
				ctx, cancel := commandContext()
				defer cancel()
				if current.sync(ctx, current.social) {
					c.Println(renderSocial(current.social.Snapshot().Data))
				}
			},
		},
		{
			Name: "addfriend",
			Desc: "Add a friend by email or user id",
			Func: func(c *ishell.Context) {
				target := prompt(c, "Friend's email or id", nonEmpty("Please enter an email or id."))
				ctx, cancel := commandContext()
				defer cancel()
				if !current.mount(current.social) {
					return
				}
				f, err := current.social.AddFriend(ctx, target)
				if err != nil {
					handleError(err)
					return
				}
				c.Printf("%s is now your friend.\n", f.DisplayName)
			},
		},
		{
			Name: "coach",
			Desc: "Get today's coaching advice",
			Func: func(c *ishell.Context) {
				ctx, cancel := commandContext()
				defer cancel()
				if current.sync(ctx, current.coach) {
					c.Println(current.coach.Snapshot().Data.Advice)
				}
			},
		},
		{
			Name: "tip",
			Desc: "Get a quick tip",
			Func: func(c *ishell.Context) {
				category := promptChoice(c, "Category", validation.TipCategories)
				ctx, cancel := commandContext()
				defer cancel()
				if !current.mount(current.coach) {
					return
				}
				tip, err := current.coach.Tip(ctx, category)
				if err != nil {
					handleError(err)
					return
				}
				c.Println(tip.Tip)
			},
		},
		{
			Name: "changepassword",
			Desc: "Change your password",
			Func: func(c *ishell.Context) {
				c.Print("Enter Current Password: ")
				currentPassword := c.ReadPassword()
				var newPassword string
				for {
					c.Print("Enter New Password: ")
					newPassword = c.ReadPassword()
					if utils.ValidatePassword(newPassword) {
						break
					}
					c.Println("Password must be at least 8 characters and contain both letters and numbers.")
				}
				ctx, cancel := commandContext()
				defer cancel()
				if err := api.ChangePassword(ctx, currentPassword, newPassword); err != nil {
					handleError(err)
					return
				}
				c.Println("Password changed.")
			},
		},
		{
			Name: "signout",
			Desc: "Sign out from your account",
			Func: func(c *ishell.Context) {
				if err := api.SignOut(); err != nil {
					handleError(err)
					return
				}
				c.Println("You have been signed out.")
				signedOut()
			},
		},
	}
}
