package commands

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"chesstral/internal/client/display"
)

func (r *Registry) registerDebugCommands() {
	r.Register(&Command{
		Name:        "health",
		ShortName:   ".",
		Description: "Check server health",
		Usage:       "health",
		Handler:     healthHandler,
	})

	r.Register(&Command{
		Name:        "url",
		ShortName:   "/",
		Description: "Set API base URL",
		Usage:       "url [host:port | http(s)://host:port]",
		Handler:     urlHandler,
	})

	r.Register(&Command{
		Name:        "raw",
		ShortName:   ":",
		Description: "Send raw API request",
		Usage:       "raw <method> <path> [json-body]",
		Handler:     rawRequestHandler,
	})

	r.Register(&Command{
		Name:        "clear",
		ShortName:   "-",
		Description: "Clear screen",
		Usage:       "clear",
		Handler:     clearHandler,
	})
}

func healthHandler(s Session, args []string) error {
	resp, err := s.GetClient().Health()
	if err != nil {
		return err
	}

	w := s.Writer()
	fmt.Fprintf(w, "%sServer Health:%s\n", display.Cyan, display.Reset)
	fmt.Fprintf(w, "  Status:   %s\n", resp.Status)
	fmt.Fprintf(w, "  Time:     %s\n", time.Unix(resp.Time, 0).Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  Storage:  %s\n", resp.Storage)
	fmt.Fprintf(w, "  Sessions: %d\n", resp.Sessions)
	return nil
}

func urlHandler(s Session, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(s.Writer(), "Current API URL: %s\n", s.GetAPIBaseURL())
		return nil
	}

	raw := args[0]
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid API URL: %s", args[0])
	}
	base := strings.TrimRight(u.String(), "/")

	s.SetAPIBaseURL(base)
	s.GetClient().SetBaseURL(base)

	fmt.Fprintf(s.Writer(), "%sAPI URL set to: %s%s\n", display.Cyan, base, display.Reset)
	return nil
}

func rawRequestHandler(s Session, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: raw <method> <path> [json-body]")
	}

	body := ""
	if len(args) > 2 {
		body = strings.Join(args[2:], " ")
	}
	return s.GetClient().RawRequest(args[0], args[1], body)
}

// clearHandler homes the cursor and erases the screen
func clearHandler(s Session, args []string) error {
	fmt.Fprint(s.Writer(), "\033[H\033[2J")
	return nil
}
