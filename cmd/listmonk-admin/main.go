package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/listmonk-bridge/internal/audience"
	"github.com/ignite/listmonk-bridge/internal/config"
	"github.com/ignite/listmonk-bridge/internal/dispatch"
	"github.com/ignite/listmonk-bridge/internal/listmonk"
	"github.com/ignite/listmonk-bridge/internal/pkg/logger"
)

const usageText = `Usage: listmonk-admin [-config path] <command> [flags]

Commands:
  ensure      Create a subscriber, or link an existing one to lists
  remove      Remove a subscriber from the given lists
  delete      Delete a subscriber entirely
  send        Send a transactional email to one recipient
  send-batch  Send a transactional email to many recipients

Run 'listmonk-admin <command> -h' for command flags.
`

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usageText) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		fatal("loading config: %v", err)
	}

	log := logger.Default()
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	log.SetRedact(cfg.Logging.RedactPII)

	client := listmonk.NewClient(cfg.Listmonk)
	resolver := audience.NewResolver(client, log)
	registrar := audience.NewRegistrar(client, resolver, log)
	remover := audience.NewRemover(client, audience.ParseDuplicatePolicy(cfg.Audience.DuplicatePolicy), log)
	dispatcher := dispatch.NewDispatcher(client, registrar, cfg.Audience.DefaultName, log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "ensure":
		err = runEnsure(ctx, registrar, cfg.Audience.DefaultName, args)
	case "remove":
		err = runRemove(ctx, remover, args)
	case "delete":
		err = runDelete(ctx, remover, args)
	case "send":
		err = runSend(ctx, dispatcher, args)
	case "send-batch":
		err = runSendBatch(ctx, dispatcher, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fatal("%s: %v", cmd, err)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FATAL: "+format+"\n", args...)
	os.Exit(1)
}

func runEnsure(ctx context.Context, registrar *audience.Registrar, defaultName string, args []string) error {
	fs := flag.NewFlagSet("ensure", flag.ExitOnError)
	email := fs.String("email", "", "subscriber email (required)")
	name := fs.String("name", "", "subscriber display name")
	status := fs.String("status", listmonk.StatusEnabled, "subscriber status")
	lists := fs.String("lists", "", "comma-separated list IDs")
	fs.Parse(args)

	if *email == "" {
		return errors.New("-email is required")
	}
	if *name == "" {
		*name = defaultName
	}
	listIDs, err := parseIntList(*lists)
	if err != nil {
		return err
	}

	if err := registrar.EnsureSubscriber(ctx, *email, *name, *status, listIDs); err != nil {
		return err
	}
	fmt.Println("subscriber ensured")
	return nil
}

func runRemove(ctx context.Context, remover *audience.Remover, args []string) error {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	email := fs.String("email", "", "subscriber email (required)")
	lists := fs.String("lists", "", "comma-separated list IDs (required)")
	fs.Parse(args)

	if *email == "" {
		return errors.New("-email is required")
	}
	listIDs, err := parseIntList(*lists)
	if err != nil {
		return err
	}
	if len(listIDs) == 0 {
		return errors.New("-lists is required")
	}

	if err := remover.RemoveFromLists(ctx, *email, listIDs); err != nil {
		return err
	}
	fmt.Println("subscriber removed from lists")
	return nil
}

func runDelete(ctx context.Context, remover *audience.Remover, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	email := fs.String("email", "", "subscriber email (required)")
	fs.Parse(args)

	if *email == "" {
		return errors.New("-email is required")
	}

	if err := remover.Delete(ctx, *email); err != nil {
		return err
	}
	fmt.Println("subscriber deleted")
	return nil
}

func runSend(ctx context.Context, dispatcher *dispatch.Dispatcher, args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	email := fs.String("email", "", "recipient email (required)")
	name := fs.String("name", "", "recipient display name")
	template := fs.Int("template", 0, "template ID (required)")
	lists := fs.String("lists", "", "comma-separated list IDs to subscribe the recipient to")
	vars := keyValueFlag{}
	fs.Var(&vars, "var", "template variable as key=value (repeatable)")
	fs.Parse(args)

	if *email == "" {
		return errors.New("-email is required")
	}
	if *template == 0 {
		return errors.New("-template is required")
	}
	listIDs, err := parseIntList(*lists)
	if err != nil {
		return err
	}

	err = dispatcher.SendOne(ctx, dispatch.Transactional{
		TemplateID:      *template,
		RecipientEmail:  *email,
		RecipientName:   *name,
		Variables:       vars,
		AssociatedLists: listIDs,
	})
	if err != nil {
		return err
	}
	fmt.Println("email sent")
	return nil
}

func runSendBatch(ctx context.Context, dispatcher *dispatch.Dispatcher, args []string) error {
	fs := flag.NewFlagSet("send-batch", flag.ExitOnError)
	template := fs.Int("template", 0, "template ID (required)")
	emails := fs.String("emails", "", "comma-separated recipient emails")
	listID := fs.Int("list", 0, "send to the members of this list")
	vars := keyValueFlag{}
	fs.Var(&vars, "var", "template variable as key=value (repeatable)")
	fs.Parse(args)

	if *template == 0 {
		return errors.New("-template is required")
	}

	recipients := dispatch.Recipients{ListID: *listID}
	if *emails != "" {
		recipients.Emails = strings.Split(*emails, ",")
		for i := range recipients.Emails {
			recipients.Emails[i] = strings.TrimSpace(recipients.Emails[i])
		}
	}

	res, err := dispatcher.SendBatch(ctx, *template, recipients, vars)
	if err != nil {
		return err
	}
	fmt.Printf("batch complete: %d sent, %d failed\n", res.Sent, res.Failed)
	return nil
}

func parseIntList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ids []int
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid list ID %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// keyValueFlag collects repeated key=value flags into a map.
type keyValueFlag map[string]string

func (f keyValueFlag) String() string {
	var parts []string
	for k, v := range f {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (f keyValueFlag) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	f[key] = value
	return nil
}
