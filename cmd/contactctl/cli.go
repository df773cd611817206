package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/MKhiriev/go-contact-attrs/internal/attr"
	"github.com/MKhiriev/go-contact-attrs/internal/reminder"
	"github.com/MKhiriev/go-contact-attrs/internal/service"
)

var errUsage = errors.New("usage error")

type cli struct {
	contacts service.ContactService
	flushJob service.FlushJob
	out      io.Writer
	now      func() time.Time
}

func newCLI(s *service.Services, out io.Writer) *cli {
	return &cli{
		contacts: s.ContactService,
		flushJob: s.FlushJob,
		out:      out,
		now:      time.Now,
	}
}

type command struct {
	name    string
	args    string
	help    string
	minArgs int
	run     func(c *cli, ctx context.Context, args []string) error
}

func commandTable() []command {
	return []command{
		{"kinds", "", "list known attributes", 0, (*cli).kinds},
		{"set", "<handle> <name> <value> [version]", "store a server-delivered value", 3, (*cli).set},
		{"tombstone", "<handle> <name> [version]", "record that the server has no value", 2, (*cli).tombstone},
		{"invalidate", "<handle> <name>...", "mark attributes stale", 2, (*cli).invalidate},
		{"edit", "<handle> <name> <value>", "edit a value locally and mark it pending", 3, (*cli).edit},
		{"get", "<handle> <name>", "print a cached value and its version", 2, (*cli).get},
		{"remove", "<handle> <name>", "evict an attribute from the cache", 2, (*cli).remove},
		{"reminder", "<handle> <detail>[,<detail>] [unix-time]", "record a password reminder event", 2, (*cli).reminder},
		{"should-show", "<handle> <account-created-unix> [logout]", "decide whether to show the password reminder", 2, (*cli).shouldShow},
		{"show", "<handle>", "print a cached contact as JSON", 1, (*cli).show},
		{"pending", "", "list contacts with unsynced changes", 0, (*cli).pending},
		{"ack", "<handle> [key...]", "clear pending flags", 1, (*cli).ack},
		{"flush", "", "publish pending changes to stdout and acknowledge them", 0, (*cli).flush},
		{"watch", "<interval>", "flush periodically until interrupted", 1, (*cli).watch},
		{"forget", "<handle>", "drop a cached contact", 1, (*cli).forget},
	}
}

func (c *cli) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.usage()
		return errUsage
	}

	for _, cmd := range commandTable() {
		if cmd.name != args[0] {
			continue
		}
		if len(args)-1 < cmd.minArgs {
			return fmt.Errorf("%w: %s %s", errUsage, cmd.name, cmd.args)
		}
		return cmd.run(c, ctx, args[1:])
	}

	c.usage()
	return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
}

func (c *cli) usage() {
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "usage: contactctl [flags] <command> [args...]")
	for _, cmd := range commandTable() {
		fmt.Fprintf(w, "  %s %s\t%s\n", cmd.name, cmd.args, cmd.help)
	}
	w.Flush()
}

func (c *cli) kinds(_ context.Context, _ []string) error {
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tLONG NAME\tSCOPE\tVERSIONED")
	for _, k := range attr.Kinds() {
		name, _ := attr.Name(k)
		long, _ := attr.DisplayName(k)
		scope, _ := attr.ScopeOf(k)
		versioned, _ := attr.NeedsVersioning(k)
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", name, long, scope, versioned)
	}
	return w.Flush()
}

func (c *cli) set(ctx context.Context, args []string) error {
	return c.contacts.ApplyRemote(ctx, args[0], args[1], []byte(args[2]), optional(args, 3))
}

func (c *cli) tombstone(ctx context.Context, args []string) error {
	return c.contacts.ApplyRemote(ctx, args[0], args[1], nil, optional(args, 2))
}

func (c *cli) invalidate(ctx context.Context, args []string) error {
	return c.contacts.InvalidateRemote(ctx, args[0], args[1:]...)
}

func (c *cli) edit(ctx context.Context, args []string) error {
	k, err := attr.NameToKind(args[1])
	if err != nil {
		return err
	}
	newly, err := c.contacts.EditLocal(ctx, args[0], k, []byte(args[2]))
	if err != nil {
		return err
	}
	if newly {
		fmt.Fprintf(c.out, "%s pending\n", attr.KeyFor(k))
	}
	return nil
}

func (c *cli) get(ctx context.Context, args []string) error {
	k, err := attr.NameToKind(args[1])
	if err != nil {
		return err
	}
	value, version, err := c.contacts.Attribute(ctx, args[0], k)
	if err != nil {
		return err
	}
	if version == "" {
		fmt.Fprintf(c.out, "%s\n", value)
		return nil
	}
	fmt.Fprintf(c.out, "%s\t%s\n", value, version)
	return nil
}

func (c *cli) remove(ctx context.Context, args []string) error {
	k, err := attr.NameToKind(args[1])
	if err != nil {
		return err
	}
	return c.contacts.Remove(ctx, args[0], k)
}

func (c *cli) reminder(ctx context.Context, args []string) error {
	d, err := reminder.ParseDetail(args[1])
	if err != nil {
		return err
	}
	now, err := unixArg(args, 2, c.now())
	if err != nil {
		return err
	}

	changed, err := c.contacts.RecordReminder(ctx, args[0], d, now)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "changed=%t\n", changed)
	return nil
}

func (c *cli) shouldShow(ctx context.Context, args []string) error {
	created, err := unixArg(args, 1, time.Time{})
	if err != nil {
		return err
	}
	onLogout := optional(args, 2) == "logout"

	show, err := c.contacts.ShouldShowReminder(ctx, args[0], created, c.now(), onLogout)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, show)
	return nil
}

type contactView struct {
	Handle     string           `json:"handle"`
	UID        string           `json:"uid"`
	Email      string           `json:"email,omitempty"`
	Visibility string           `json:"visibility"`
	Tag        int              `json:"tag"`
	Pending    []attr.ChangeKey `json:"pending,omitempty"`
	Attributes []attributeView  `json:"attributes,omitempty"`
	Reminder   *reminderView    `json:"reminder,omitempty"`
}

type attributeView struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Valid   bool   `json:"valid"`
	Value   []byte `json:"value"`
}

type reminderView struct {
	LastSuccess int64 `json:"last_success,omitempty"`
	LastSkipped int64 `json:"last_skipped,omitempty"`
	LastLogin   int64 `json:"last_login,omitempty"`
	MKExported  bool  `json:"mk_exported"`
	DontShow    bool  `json:"dont_show"`
}

func attributeViews(entries []attr.Entry) []attributeView {
	views := make([]attributeView, 0, len(entries))
	for _, e := range entries {
		name, _ := attr.Name(e.Kind)
		views = append(views, attributeView{Name: name, Version: e.Version, Valid: e.Valid, Value: e.Value})
	}
	return views
}

func (c *cli) show(ctx context.Context, args []string) error {
	u, err := c.contacts.Contact(ctx, args[0])
	if err != nil {
		return err
	}

	v := contactView{
		Handle:     u.Handle(),
		UID:        u.UID(),
		Email:      u.Email(),
		Visibility: u.Visibility().String(),
		Tag:        u.Tag(),
		Pending:    u.Changed(),
		Attributes: attributeViews(u.AttributeEntries()),
	}
	if len(u.ReminderBuffer()) > 0 {
		st := u.ReminderState()
		v.Reminder = &reminderView{
			LastSuccess: st.LastSuccess.Unix,
			LastSkipped: st.LastSkipped.Unix,
			LastLogin:   st.LastLogin.Unix,
			MKExported:  st.MKExported,
			DontShow:    st.DontShow,
		}
	}

	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) pending(ctx context.Context, _ []string) error {
	pending, err := c.contacts.Pending(ctx)
	if err != nil {
		return err
	}
	for _, pc := range pending {
		keys := make([]string, len(pc.Keys))
		for i, k := range pc.Keys {
			keys[i] = string(k)
		}
		fmt.Fprintf(c.out, "%s\t%s\n", pc.Handle, strings.Join(keys, ","))
	}
	return nil
}

func (c *cli) ack(ctx context.Context, args []string) error {
	keys := make([]attr.ChangeKey, 0, len(args)-1)
	for _, k := range args[1:] {
		keys = append(keys, attr.ChangeKey(k))
	}
	return c.contacts.Acknowledge(ctx, args[0], keys...)
}

func (c *cli) flush(ctx context.Context, _ []string) error {
	res, err := c.contacts.Flush(ctx, newJSONPublisher(c.out))
	if err != nil {
		return err
	}
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d contacts failed to publish", res.Failed, res.Failed+res.Published)
	}
	return nil
}

func (c *cli) watch(ctx context.Context, args []string) error {
	interval, err := time.ParseDuration(args[0])
	if err != nil {
		return fmt.Errorf("%w: bad interval %q: %w", errUsage, args[0], err)
	}

	c.flushJob.Start(ctx, newJSONPublisher(c.out), interval)
	<-ctx.Done()
	c.flushJob.Stop()
	return nil
}

func (c *cli) forget(ctx context.Context, args []string) error {
	return c.contacts.Forget(ctx, args[0])
}

// jsonPublisher writes each pending contact as one JSON line.
type jsonPublisher struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newJSONPublisher(w io.Writer) *jsonPublisher {
	return &jsonPublisher{enc: json.NewEncoder(w)}
}

func (p *jsonPublisher) Publish(_ context.Context, pc service.PendingContact) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.enc.Encode(struct {
		Handle     string           `json:"handle"`
		Keys       []attr.ChangeKey `json:"keys"`
		Attributes []attributeView  `json:"attributes,omitempty"`
	}{pc.Handle, pc.Keys, attributeViews(pc.Attributes)})
}

func optional(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// unixArg parses args[i] as unix seconds, returning def when absent.
func unixArg(args []string, i int, def time.Time) (time.Time, error) {
	s := optional(args, i)
	if s == "" {
		return def, nil
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad unix time %q", errUsage, s)
	}
	return time.Unix(sec, 0), nil
}
