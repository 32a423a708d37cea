package main

import (
	"flag"
	"fmt"
	"os"
	"time"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:8000"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "populate":
		err = populateCmd(NewAPIClient(apiURL), args)
	case "respond":
		err = respondCmd(NewAPIClient(apiURL), args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Notice Board Simulator - Development tool for populating the board

USAGE:
  simulator <command> [options]

COMMANDS:
  populate  Register fake users, each posting one notice
  respond   Have fake users respond to an existing notice
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8000)

EXAMPLES:
  # Post 5 notices from 5 fake users
  simulator populate --count=5

  # Have 3 fake users respond to a notice, then leave it active
  simulator respond --notice=01HZX... --count=3`)
}

var sampleItems = []struct {
	title, venue string
}{
	{"Black umbrella", "Main library"},
	{"Student ID card", "Cafeteria"},
	{"Blue water bottle", "Gym"},
	{"AirPods case", "Lecture hall B"},
	{"Set of keys", "Parking lot"},
}

func populateCmd(client *APIClient, args []string) error {
	fs := flag.NewFlagSet("populate", flag.ContinueOnError)
	count := fs.Int("count", 5, "Number of fake users and notices to create")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *count < 1 || *count > 100 {
		return fmt.Errorf("--count must be between 1 and 100")
	}

	fmt.Printf("Posting %d notices...\n\n", *count)

	for i := 0; i < *count; i++ {
		item := sampleItems[i%len(sampleItems)]
		kind := "lost"
		if i%2 == 1 {
			kind = "found"
		}

		user, token, err := client.RegisterUser(fmt.Sprintf("Poster%d", i+1))
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED to create user: %v\n", i+1, *count, err)
			continue
		}

		notice, err := client.CreateNotice(token, map[string]string{
			"title":       item.title,
			"type":        kind,
			"date":        time.Now().AddDate(0, 0, -i).Format("2006-01-02"),
			"venue":       item.venue,
			"contact":     user.Email,
			"description": fmt.Sprintf("%s %s near the %s.", item.title, kind, item.venue),
		})
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED to post notice: %v\n", i+1, *count, err)
			continue
		}

		fmt.Printf("  [%d/%d] %s posted %s notice %s\n", i+1, *count, user.Username, kind, notice.ID)
	}

	fmt.Println()
	fmt.Println("Done!")
	return nil
}

func respondCmd(client *APIClient, args []string) error {
	fs := flag.NewFlagSet("respond", flag.ContinueOnError)
	noticeID := fs.String("notice", "", "Notice ID (required)")
	count := fs.Int("count", 3, "Number of fake responders")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *noticeID == "" {
		return fmt.Errorf("--notice is required\n\nUsage: simulator respond --notice=ID [--count=3]")
	}

	notice, err := client.GetNotice(*noticeID)
	if err != nil {
		return err
	}
	fmt.Printf("Responding to %q (%s)...\n\n", notice.Title, notice.Status)

	for i := 0; i < *count; i++ {
		user, token, err := client.RegisterUser(fmt.Sprintf("Responder%d", i+1))
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED to create user: %v\n", i+1, *count, err)
			continue
		}
		if err := client.Respond(token, notice.ID, fmt.Sprintf("Hi, %s here. I think I saw it.", user.Nickname)); err != nil {
			fmt.Printf("  [%d/%d] FAILED to respond: %v\n", i+1, *count, err)
			continue
		}
		fmt.Printf("  [%d/%d] %s responded\n", i+1, *count, user.Username)
	}

	notice, err = client.GetNotice(*noticeID)
	if err != nil {
		return err
	}
	fmt.Printf("\nNotice now has %d response(s).\n", notice.ResponsesCount)
	return nil
}
