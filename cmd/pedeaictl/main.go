package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/pedeai/pedeai/internal/workspace"
)

func main() {
	restaurantFlag := flag.String("restaurant", "", "restaurant slug (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	slug := workspace.Resolve(*restaurantFlag)
	if err := workspace.ValidateSlug(slug); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	c := newClient(workspace.SocketPath(slug))

	switch args[0] {
	case "status":
		cmdStatus(c, *jsonFlag)
	case "conversations":
		cmdConversations(c, *jsonFlag)
	case "messages":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: pedeaictl messages <chat-id>")
			os.Exit(1)
		}
		cmdMessages(c, args[1], *jsonFlag)
	case "customers":
		cmdCustomers(c, args[1:], *jsonFlag)
	case "orders":
		cmdOrders(c, args[1:], *jsonFlag)
	case "print":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: pedeaictl print <order-id>")
			os.Exit(1)
		}
		cmdPrint(c, args[1])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: pedeaictl [--restaurant <slug>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                          Show daemon and gateway health")
	fmt.Fprintln(os.Stderr, "  conversations                   Refresh and list conversations")
	fmt.Fprintln(os.Stderr, "  messages <chat-id>              List one conversation's messages")
	fmt.Fprintln(os.Stderr, "  customers list                  List the customer roster")
	fmt.Fprintln(os.Stderr, "  customers add <name> <phone>    Add a roster entry")
	fmt.Fprintln(os.Stderr, "  customers rm <id>               Remove a roster entry")
	fmt.Fprintln(os.Stderr, "  orders list                     List orders")
	fmt.Fprintln(os.Stderr, "  orders status <id> <status>     Move an order's status")
	fmt.Fprintln(os.Stderr, "  print <order-id>                Queue an order's receipt for printing")
}

// client talks to the daemon API over its unix socket.
type client struct {
	http *http.Client
}

func newClient(socketPath string) *client {
	return &client{
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", socketPath)
				},
			},
		},
	}
}

// call performs one API request and decodes the JSON response into out.
// Non-2xx responses surface the server's error message.
func (c *client) call(method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequest(method, "http://pedeaid"+path, &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cannot reach daemon (is pedeaid running?): %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s", e.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func cmdStatus(c *client, jsonOut bool) {
	var resp struct {
		Gateway   string `json:"gateway"`
		LastError string `json:"lastError"`
		Since     int64  `json:"since"`
	}
	if err := c.call(http.MethodGet, "/v1/health", nil, &resp); err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	fmt.Printf("Gateway: %s\n", resp.Gateway)
	if resp.LastError != "" {
		fmt.Printf("Last error: %s\n", resp.LastError)
	}
	fmt.Printf("Since: %s\n", time.UnixMilli(resp.Since).Format(time.RFC3339))
}

func cmdConversations(c *client, jsonOut bool) {
	var resp struct {
		Conversations []struct {
			ID          string `json:"id"`
			Phone       string `json:"phone"`
			Name        string `json:"name"`
			LastMessage string `json:"lastMessage"`
			Timestamp   int64  `json:"timestamp"`
			UnreadCount int    `json:"unreadCount"`
		} `json:"conversations"`
	}
	if err := c.call(http.MethodGet, "/v1/conversations", nil, &resp); err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	if len(resp.Conversations) == 0 {
		fmt.Println("No conversations.")
		return
	}
	for _, conv := range resp.Conversations {
		unread := ""
		if conv.UnreadCount > 0 {
			unread = fmt.Sprintf(" [%d]", conv.UnreadCount)
		}
		fmt.Printf("%-20s %-15s %s%s\n", conv.Name, conv.Phone, conv.LastMessage, unread)
	}
}

func cmdMessages(c *client, chatID string, jsonOut bool) {
	var resp struct {
		Messages []struct {
			Content    string `json:"content"`
			FromMe     bool   `json:"fromMe"`
			SenderName string `json:"senderName"`
			Timestamp  int64  `json:"timestamp"`
		} `json:"messages"`
	}
	if err := c.call(http.MethodGet, "/v1/conversations/"+chatID+"/messages", nil, &resp); err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	for _, m := range resp.Messages {
		who := m.SenderName
		if m.FromMe {
			who = "me"
		}
		when := time.UnixMilli(m.Timestamp).Format("02/01 15:04")
		fmt.Printf("[%s] %s: %s\n", when, who, m.Content)
	}
}

func cmdCustomers(c *client, args []string, jsonOut bool) {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		var resp struct {
			Customers []struct {
				ID           string `json:"id"`
				Name         string `json:"name"`
				Phone        string `json:"phone"`
				CurrentTable string `json:"currentTable"`
				VisitCount   int    `json:"visitCount"`
			} `json:"customers"`
		}
		if err := c.call(http.MethodGet, "/v1/customers", nil, &resp); err != nil {
			fail(err)
		}
		if jsonOut {
			outputJSON(resp)
			return
		}
		if len(resp.Customers) == 0 {
			fmt.Println("No customers.")
			return
		}
		for _, cust := range resp.Customers {
			fmt.Printf("%-36s %-20s %-15s mesa=%s visitas=%d\n",
				cust.ID, cust.Name, cust.Phone, cust.CurrentTable, cust.VisitCount)
		}
	case "add":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: pedeaictl customers add <name> <phone>")
			os.Exit(1)
		}
		var created map[string]any
		err := c.call(http.MethodPost, "/v1/customers",
			map[string]string{"name": args[1], "phone": args[2]}, &created)
		if err != nil {
			fail(err)
		}
		if jsonOut {
			outputJSON(created)
			return
		}
		fmt.Printf("Added customer %v\n", created["id"])
	case "rm":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: pedeaictl customers rm <id>")
			os.Exit(1)
		}
		if err := c.call(http.MethodDelete, "/v1/customers/"+args[1], nil, nil); err != nil {
			fail(err)
		}
		fmt.Println("Removed.")
	default:
		fmt.Fprintf(os.Stderr, "unknown customers subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

func cmdOrders(c *client, args []string, jsonOut bool) {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		var resp struct {
			Orders []struct {
				ID         string  `json:"id"`
				TableLabel string  `json:"table"`
				Total      float64 `json:"total"`
				Status     string  `json:"status"`
				CreatedAt  int64   `json:"createdAt"`
			} `json:"orders"`
		}
		if err := c.call(http.MethodGet, "/v1/orders", nil, &resp); err != nil {
			fail(err)
		}
		if jsonOut {
			outputJSON(resp)
			return
		}
		if len(resp.Orders) == 0 {
			fmt.Println("No orders.")
			return
		}
		for _, o := range resp.Orders {
			table := o.TableLabel
			if table == "" {
				table = "-"
			}
			fmt.Printf("%-36s mesa=%-6s R$ %s %-10s %s\n",
				o.ID, table, strconv.FormatFloat(o.Total, 'f', 2, 64), o.Status,
				time.UnixMilli(o.CreatedAt).Format("02/01 15:04"))
		}
	case "status":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: pedeaictl orders status <id> <open|preparing|done|cancelled>")
			os.Exit(1)
		}
		err := c.call(http.MethodPatch, "/v1/orders/"+args[1],
			map[string]string{"status": args[2]}, nil)
		if err != nil {
			fail(err)
		}
		fmt.Printf("Order %s -> %s\n", args[1], args[2])
	default:
		fmt.Fprintf(os.Stderr, "unknown orders subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

func cmdPrint(c *client, orderID string) {
	var resp struct {
		JobID string `json:"jobId"`
	}
	if err := c.call(http.MethodPost, "/v1/orders/"+orderID+"/print", nil, &resp); err != nil {
		fail(err)
	}
	fmt.Printf("Receipt queued, job %s\n", resp.JobID)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
