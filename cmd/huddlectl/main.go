package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/coder/quartz"
	"github.com/matheus3301/huddle/internal/background"
	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/chat"
	"github.com/matheus3301/huddle/internal/config"
	"github.com/matheus3301/huddle/internal/invite"
	"github.com/matheus3301/huddle/internal/lock"
	"github.com/matheus3301/huddle/internal/logging"
	"github.com/matheus3301/huddle/internal/notify"
	"github.com/matheus3301/huddle/internal/remote"
	"github.com/matheus3301/huddle/internal/remote/grpcstore"
	"github.com/matheus3301/huddle/internal/session"
	intsync "github.com/matheus3301/huddle/internal/sync"
	"github.com/matheus3301/huddle/internal/tui/client"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type env struct {
	profile string
	cfg     *config.Profile
	logger  *zap.Logger
	json    bool
}

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	verbose := flag.Bool("v", false, "mirror logs to stderr")
	flag.Usage = printUsage
	flag.Parse()

	profile := session.Resolve(*profileFlag)
	if err := session.ValidateName(profile); err != nil {
		fatal(err)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.LoadProfile(session.ProfileConfigPath(profile), session.EnvPath(profile))
	if err != nil {
		fatal(err)
	}
	logger, err := logging.New(session.LogPath(profile, "huddlectl"), profile, logging.Options{
		Console: *verbose,
		Level:   zapcore.InfoLevel,
	})
	if err != nil {
		fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	e := &env{profile: profile, cfg: cfg, logger: logger, json: *jsonFlag}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "status":
		err = cmdStatus(ctx, e)
	case "send":
		err = cmdSend(ctx, e, args[1:])
	case "list":
		err = cmdList(ctx, e)
	case "tail":
		err = cmdTail(ctx, e)
	case "poll":
		err = cmdPoll(ctx, e)
	case "invite":
		err = cmdInvite(e, args[1:])
	case "join":
		err = cmdJoin(e, args[1:])
	case "use":
		err = cmdUse(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fatal(err)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: huddlectl [--profile <name>] [--json] [-v] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                      Show daemon status")
	fmt.Fprintln(os.Stderr, "  send --user <name> <text>   Submit a message")
	fmt.Fprintln(os.Stderr, "  list                        Print every message")
	fmt.Fprintln(os.Stderr, "  tail                        Print messages as they arrive")
	fmt.Fprintln(os.Stderr, "  poll                        Run the background fetch once")
	fmt.Fprintln(os.Stderr, "  invite [--qr]               Print this profile's invite link")
	fmt.Fprintln(os.Stderr, "  join <link>                 Point this profile at an invite's store")
	fmt.Fprintln(os.Stderr, "  use <profile>               Make profile the default")
}

func connect(ctx context.Context, e *env) (*grpcstore.Store, error) {
	return client.Connect(ctx, e.profile, false, e.logger)
}

func cmdStatus(ctx context.Context, e *env) error {
	store, err := connect(ctx, e)
	if err != nil {
		holder, held, lerr := lock.Inspect(session.Dir(e.profile))
		if lerr == nil && held {
			return fmt.Errorf("%w (lock held by %s, PID %d, since %s)", err,
				holder.Owner, holder.PID, holder.Since.Format(time.RFC3339))
		}
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	st, err := store.Status(ctx)
	if err != nil {
		return err
	}
	if e.json {
		return outputJSON(st)
	}
	keys := make([]string, 0, len(st))
	for k := range st {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%-22s %v\n", k+":", st[k])
	}
	return nil
}

// cmdSend drives the same session a TUI would: set the username, fill the
// draft, submit and wait for the store.
func cmdSend(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	user := fs.String("user", os.Getenv("USER"), "username to send as")
	_ = fs.Parse(args)
	text := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(text) == "" {
		return errors.New("usage: huddlectl send --user <name> <text>")
	}

	store, err := connect(ctx, e)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	loc, err := e.cfg.Location()
	if err != nil {
		return err
	}
	b := bus.New()
	sent, unsubscribe := b.Subscribe(bus.OutboxSent, 1)
	defer unsubscribe()

	c := chat.New(chat.Config{
		Store:      store,
		Bus:        b,
		Logger:     e.logger,
		SubmitMode: config.SubmitAwait,
		Clock:      quartz.NewReal(),
		Location:   loc,
	})
	defer c.Close()

	if !c.SetUsername(*user) {
		return errors.New("username cannot be blank")
	}
	c.SetDraftText(text)
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := c.Submit(ctx); err != nil {
		return err
	}

	select {
	case evt := <-sent:
		if e.json {
			return outputJSON(map[string]any{"id": evt.Payload})
		}
		fmt.Printf("sent %v\n", evt.Payload)
	default:
	}
	return nil
}

func cmdList(ctx context.Context, e *env) error {
	store, err := connect(ctx, e)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	snap, err := store.Fetch(ctx)
	if err != nil {
		return err
	}
	return printMessages(e, snap.Messages())
}

// cmdTail prints each message once, in snapshot order, until interrupted.
func cmdTail(ctx context.Context, e *env) error {
	store, err := connect(ctx, e)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rec := intsync.NewReconciler(intsync.NotifyWatermark, true)
	snapshots := make(chan *remote.Snapshot, 1)
	sub, err := store.Subscribe(ctx, func(s *remote.Snapshot) {
		select {
		case snapshots <- s:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-snapshots:
			if err := printMessages(e, rec.Reconcile(s).Fresh); err != nil {
				return err
			}
		}
	}
}

// cmdPoll runs the background fetch task once, as the scheduler would.
func cmdPoll(ctx context.Context, e *env) error {
	store, err := connect(ctx, e)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	dispatcher, err := notify.FromConfig(e.cfg.Notifications, nil, e.logger)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Background.Timeout)
	defer cancel()

	res := background.NewFetchTask(store, dispatcher, e.logger, nil).Run(ctx)
	if e.json {
		if err := outputJSON(map[string]any{"task": background.TaskID, "result": res}); err != nil {
			return err
		}
	} else {
		fmt.Printf("%s: %s\n", background.TaskID, res)
	}
	if res == background.Failed {
		os.Exit(2)
	}
	return nil
}

func cmdInvite(e *env, args []string) error {
	fs := flag.NewFlagSet("invite", flag.ExitOnError)
	qr := fs.Bool("qr", false, "also print a QR code")
	_ = fs.Parse(args)

	link, err := invite.Link(e.cfg.Store)
	if err != nil {
		return err
	}
	if e.json {
		return outputJSON(map[string]string{"link": link})
	}
	fmt.Println(link)
	if *qr {
		code, err := invite.QR(link)
		if err != nil {
			return err
		}
		fmt.Print(code)
	}
	return nil
}

func cmdJoin(e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: huddlectl join <link>")
	}
	st, err := invite.Parse(args[0])
	if err != nil {
		return err
	}
	if err := session.EnsureDir(e.profile); err != nil {
		return err
	}
	if err := config.SaveStore(session.ProfileConfigPath(e.profile), st); err != nil {
		return err
	}
	fmt.Printf("profile %q now uses %s at %s; restart huddled to apply\n", e.profile, st.Backend, storeURL(st))
	return nil
}

func cmdUse(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: huddlectl use <profile>")
	}
	if err := session.ValidateName(args[0]); err != nil {
		return err
	}
	if err := config.SetDefaultProfile(session.ConfigPath(), args[0]); err != nil {
		return err
	}
	fmt.Printf("default profile is now %q\n", args[0])
	return nil
}

func storeURL(st config.Store) string {
	if st.Backend == config.BackendRedis {
		return st.RedisURL
	}
	return st.RTDBURL
}

func printMessages(e *env, msgs []remote.Message) error {
	if e.json {
		enc := json.NewEncoder(os.Stdout)
		for _, m := range msgs {
			if err := enc.Encode(m); err != nil {
				return err
			}
		}
		return nil
	}
	for _, m := range msgs {
		fmt.Printf("%s %s: %s\n", m.Time, m.Username, m.Text)
	}
	return nil
}

func outputJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
