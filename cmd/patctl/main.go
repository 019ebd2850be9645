package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"patvault/internal/platform/config"
	"patvault/internal/platform/database"
	"patvault/internal/platform/models"
	"patvault/internal/platform/repositories"
)

const usage = `Usage: patctl [flags] <command>

Commands:
  users                 List registered users
  tokens -user <id>     List tokens belonging to a user
  info -token <id>      Show a single token
  stats                 Summarize users, tokens, and audit volume
  cleanup               Delete tokens whose expiry has passed

Flags:
`

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	userID := flag.String("user", "", "User ID for the tokens command")
	tokenID := flag.String("token", "", "Token ID for the info command")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	userRepo := repositories.NewUserRepository(db)
	tokenRepo := repositories.NewTokenRepository(db)

	switch flag.Arg(0) {
	case "users":
		err = listUsers(userRepo)
	case "tokens":
		if *userID == "" {
			log.Fatal("-user flag required for the tokens command")
		}
		err = listTokens(tokenRepo, *userID)
	case "info":
		if *tokenID == "" {
			log.Fatal("-token flag required for the info command")
		}
		err = tokenInfo(tokenRepo, *tokenID)
	case "stats":
		err = stats(db)
	case "cleanup":
		err = cleanup(tokenRepo)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func listUsers(repo *repositories.UserRepository) error {
	users, err := repo.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tNAME\tACTIVE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
			u.ID, u.Email, u.FullName, u.IsActive, formatUnix(u.CreatedAt))
	}
	return w.Flush()
}

func listTokens(repo *repositories.TokenRepository, userID string) error {
	toks, err := repo.ListByUser(userID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPREFIX\tSCOPES\tREVOKED\tEXPIRES\tLAST USED")
	for _, t := range toks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\t%s\n",
			t.ID, t.Name, t.Prefix, strings.Join(t.Scopes, ","),
			t.Revoked, formatUnix(t.ExpiresAt), lastUsed(t))
	}
	return w.Flush()
}

func tokenInfo(repo *repositories.TokenRepository, tokenID string) error {
	t, err := repo.GetByID(tokenID)
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("token %s not found", tokenID)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%s\n", t.ID)
	fmt.Fprintf(w, "User\t%s\n", t.UserID)
	fmt.Fprintf(w, "Name\t%s\n", t.Name)
	fmt.Fprintf(w, "Prefix\t%s\n", t.Prefix)
	fmt.Fprintf(w, "Scopes\t%s\n", strings.Join(t.Scopes, ","))
	fmt.Fprintf(w, "Allowed IPs\t%s\n", allowedIPs(t))
	fmt.Fprintf(w, "Revoked\t%t\n", t.Revoked)
	fmt.Fprintf(w, "Created\t%s\n", formatUnix(t.CreatedAt))
	fmt.Fprintf(w, "Expires\t%s\n", formatUnix(t.ExpiresAt))
	fmt.Fprintf(w, "Last used\t%s\n", lastUsed(t))
	return w.Flush()
}

func stats(db *sql.DB) error {
	now := time.Now().Unix()

	counts := []struct {
		label string
		query string
		args  []interface{}
	}{
		{label: "Users", query: `SELECT COUNT(*) FROM users`},
		{label: "Tokens", query: `SELECT COUNT(*) FROM tokens`},
		{label: "Active tokens", query: `SELECT COUNT(*) FROM tokens WHERE revoked = 0 AND expires_at > ?`, args: []interface{}{now}},
		{label: "Revoked tokens", query: `SELECT COUNT(*) FROM tokens WHERE revoked = 1`},
		{label: "Expired tokens", query: `SELECT COUNT(*) FROM tokens WHERE expires_at <= ?`, args: []interface{}{now}},
		{label: "Audit entries", query: `SELECT COUNT(*) FROM audit_logs`},
		{label: "Denied requests", query: `SELECT COUNT(*) FROM audit_logs WHERE authorized = 0`},
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, c := range counts {
		var n int
		if err := db.QueryRow(c.query, c.args...).Scan(&n); err != nil {
			return fmt.Errorf("failed to count %s: %w", strings.ToLower(c.label), err)
		}
		fmt.Fprintf(w, "%s\t%d\n", c.label, n)
	}
	return w.Flush()
}

func cleanup(repo *repositories.TokenRepository) error {
	n, err := repo.DeleteExpired(time.Now().Unix())
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d expired tokens\n", n)
	return nil
}

func formatUnix(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

func lastUsed(t *models.Token) string {
	if t.LastUsedAt == nil {
		return "never"
	}
	return formatUnix(*t.LastUsedAt)
}

func allowedIPs(t *models.Token) string {
	if len(t.AllowedIPs) == 0 {
		return "unrestricted"
	}
	return strings.Join(t.AllowedIPs, ",")
}
