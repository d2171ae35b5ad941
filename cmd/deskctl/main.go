package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/deskd-io/deskd/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "chat":
		cmdChat(os.Args[2:])
	case "health":
		cmdHealth()
	case "tickets":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: deskctl tickets <list|show|advance>")
			os.Exit(1)
		}
		switch os.Args[2] {
		case "list":
			cmdTicketsList(os.Args[3:])
		case "show":
			if len(os.Args) < 4 {
				fmt.Fprintln(os.Stderr, "usage: deskctl tickets show <id>")
				os.Exit(1)
			}
			cmdTicketsShow(os.Args[3])
		case "advance":
			if len(os.Args) < 4 {
				fmt.Fprintln(os.Stderr, "usage: deskctl tickets advance <id> [note]")
				os.Exit(1)
			}
			note := ""
			if len(os.Args) > 4 {
				note = strings.Join(os.Args[4:], " ")
			}
			cmdTicketsAdvance(os.Args[3], note)
		default:
			fmt.Fprintf(os.Stderr, "unknown tickets subcommand: %s\n", os.Args[2])
			os.Exit(1)
		}
	case "flows":
		cmdFlows()
	case "stats":
		cmdStats()
	case "logs":
		cmdLogs(os.Args[2:])
	case "config":
		if len(os.Args) < 4 || os.Args[2] != "validate" {
			fmt.Fprintln(os.Stderr, "usage: deskctl config validate <path>")
			os.Exit(1)
		}
		cmdConfigValidate(os.Args[3])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// --- chat command ---

func cmdChat(args []string) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	sessionID := fs.String("session", fmt.Sprintf("cli-%d", time.Now().Unix()), "Session ID")
	message := fs.String("m", "", "Single message (omit for interactive)")
	fs.Parse(args)

	if *message != "" {
		text, err := postMessage(*sessionID, *message)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(text)
		return
	}

	fmt.Printf("deskctl interactive chat (session %s, type 'quit' to exit)\n\n", *sessionID)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" {
			break
		}
		text, err := postMessage(*sessionID, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Println(text)
		fmt.Println()
	}
}

func postMessage(sessionID, message string) (string, error) {
	payload, _ := json.Marshal(map[string]string{
		"session_id": sessionID,
		"message":    message,
	})
	body, err := apiDo("POST", "/api/messages", payload)
	if err != nil {
		return "", err
	}
	var resp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

// --- API client commands ---

func cmdHealth() {
	body, err := apiDo("GET", "/api/health", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(body))
}

func cmdTicketsList(args []string) {
	fs := flag.NewFlagSet("tickets list", flag.ExitOnError)
	status := fs.String("status", "", "Filter by status (Open|Assigned|In Progress|Resolved|Closed)")
	category := fs.String("category", "", "Filter by category")
	limit := fs.Int("limit", 50, "Max results")
	fs.Parse(args)

	query := fmt.Sprintf("?limit=%d", *limit)
	if *status != "" {
		query += "&status=" + *status
	}
	if *category != "" {
		query += "&category=" + *category
	}

	body, err := apiDo("GET", "/api/tickets"+query, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	var tickets []map[string]any
	json.Unmarshal(body, &tickets)
	for _, t := range tickets {
		fmt.Printf("%-18s %-12s %-10s %s\n", t["id"], t["status"], t["priority"], t["description"])
	}
}

func cmdTicketsShow(id string) {
	body, err := apiDo("GET", "/api/tickets/"+id, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(body))
}

func cmdTicketsAdvance(id, note string) {
	payload, _ := json.Marshal(map[string]string{"note": note})
	body, err := apiDo("POST", "/api/tickets/"+id+"/advance", payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	var t map[string]any
	json.Unmarshal(body, &t)
	fmt.Printf("%s → %s\n", t["id"], t["status"])
}

func cmdFlows() {
	body, err := apiDo("GET", "/api/flows", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	var flows []map[string]any
	json.Unmarshal(body, &flows)
	for _, f := range flows {
		fmt.Printf("%-16s %-12s %s\n", f["id"], f["category"], f["title"])
	}
}

func cmdStats() {
	body, err := apiDo("GET", "/api/stats", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(prettyJSON(body))
}

func cmdLogs(args []string) {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	limit := fs.Int("limit", 100, "Max entries")
	level := fs.String("level", "", "Minimum level (DEBUG|INFO|WARN|ERROR)")
	fs.Parse(args)

	query := fmt.Sprintf("?limit=%d", *limit)
	if *level != "" {
		query += "&level=" + *level
	}

	body, err := apiDo("GET", "/api/logs"+query, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	var entries []map[string]any
	json.Unmarshal(body, &entries)
	for _, e := range entries {
		fmt.Printf("%s %-5s %s\n", e["time"], e["level"], e["message"])
	}
}

func cmdConfigValidate(path string) {
	_, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("config is valid")
}

// --- Helpers ---

func apiDo(method, path string, payload []byte) ([]byte, error) {
	base := envOr("DESKD_API_URL", "http://localhost:8080")
	url := base + path

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key := os.Getenv("DESKD_API_KEY"); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}

func prettyJSON(data []byte) string {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	out, _ := json.MarshalIndent(v, "", "  ")
	return string(out)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printUsage() {
	fmt.Println("deskctl — IT support assistant CLI")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  chat                    Interactive chat with the assistant (-session, -m)")
	fmt.Println("  health                  Check daemon health")
	fmt.Println("  tickets list            List tickets (--status, --category, --limit)")
	fmt.Println("  tickets show <id>       Show ticket details")
	fmt.Println("  tickets advance <id>    Advance a ticket's status")
	fmt.Println("  flows                   List troubleshooting flows")
	fmt.Println("  stats                   Show ticket and session statistics")
	fmt.Println("  logs                    Tail recent daemon logs (--limit, --level)")
	fmt.Println("  config validate <p>     Validate config file")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  DESKD_API_URL  Daemon URL (default: http://localhost:8080)")
	fmt.Println("  DESKD_API_KEY  API key for authentication")
}
