// Package console реализует операторскую консоль PizzaPortal: таблицу команд,
// которые читают хранилище напрямую.
package console

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mmeshcher/pizza-portal/internal/menu"
	"github.com/mmeshcher/pizza-portal/internal/model"
	"github.com/mmeshcher/pizza-portal/internal/repository"
)

const (
	prompt       = "> "
	recentWindow = 24 * time.Hour
)

// ErrExit возвращается командой exit.
var ErrExit = errors.New("exit requested")

// ErrUnknownCommand возвращается для строки, не совпавшей ни с одной командой.
var ErrUnknownCommand = errors.New("unknown command")

type command struct {
	name  string
	usage string
	help  string
	run   func(ctx context.Context, args string) error
}

// Console выполняет команды оператора и пишет результат в out.
type Console struct {
	store    repository.Store
	out      io.Writer
	stats    StatsFunc
	now      func() time.Time
	commands []command
}

// Option настраивает Console.
type Option func(*Console)

// WithStats подменяет источник системной статистики.
func WithStats(fn StatsFunc) Option {
	return func(c *Console) { c.stats = fn }
}

// WithClock подменяет часы, по которым отбираются недавние заказы.
func WithClock(now func() time.Time) Option {
	return func(c *Console) { c.now = now }
}

// New создаёт консоль поверх хранилища.
func New(store repository.Store, out io.Writer, opts ...Option) *Console {
	c := &Console{
		store: store,
		out:   out,
		stats: SystemStats,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Более длинные имена идут раньше коротких с общим префиксом.
	c.commands = []command{
		{name: "man", usage: "man", help: "Show this help page", run: c.help},
		{name: "help", usage: "help", help: "Alias of the 'man' command", run: c.help},
		{name: "exit", usage: "exit", help: "Stop the console", run: c.exit},
		{name: "stats", usage: "stats", help: "Show operating system and process resource statistics", run: c.showStats},
		{name: "list users", usage: "list users", help: "Show all registered users", run: c.listUsers},
		{name: "more user info", usage: "more user info --{email}", help: "Show details of the specified user", run: c.moreUserInfo},
		{name: "list menu", usage: "list menu", help: "Show all menu items with prices", run: c.listMenu},
		{name: "list orders", usage: "list orders [--all]", help: "List orders placed in the last 24 hours, or every order with --all", run: c.listOrders},
	}
	return c
}

// Execute выполняет одну строку ввода. Пустая строка игнорируется.
func (c *Console) Execute(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	for _, cmd := range c.commands {
		if matches(line, cmd.name) {
			return cmd.run(ctx, strings.TrimSpace(line[len(cmd.name):]))
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownCommand, line)
}

// Run читает команды из in до exit, конца ввода или отмены ctx.
// Ошибка команды печатается и не прерывает цикл.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(c.out, "The console is running")
	for {
		fmt.Fprint(c.out, prompt)
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		err := c.Execute(ctx, scanner.Text())
		switch {
		case err == nil:
		case errors.Is(err, ErrExit):
			return nil
		case errors.Is(err, ErrUnknownCommand):
			fmt.Fprintln(c.out, "Sorry, try again")
		default:
			fmt.Fprintf(c.out, "Caught an error: %v\n", err)
		}
	}
}

func (c *Console) help(context.Context, string) error {
	header(c.out, "CONSOLE MANUAL")
	tw := tabwriter.NewWriter(c.out, 0, 0, 4, ' ', 0)
	for _, cmd := range c.commands {
		fmt.Fprintf(tw, " %s\t%s\n", cmd.usage, cmd.help)
	}
	return tw.Flush()
}

func (c *Console) exit(context.Context, string) error {
	return ErrExit
}

func (c *Console) showStats(ctx context.Context, _ string) error {
	stats, err := c.stats(ctx)
	if err != nil {
		return fmt.Errorf("collect stats: %w", err)
	}

	header(c.out, "SYSTEM STATISTICS")
	tw := tabwriter.NewWriter(c.out, 0, 0, 4, ' ', 0)
	for _, s := range stats {
		fmt.Fprintf(tw, " %s\t%s\n", s.Name, s.Value)
	}
	return tw.Flush()
}

func (c *Console) listUsers(ctx context.Context, _ string) error {
	emails, err := c.store.List(ctx, repository.CollectionUsers)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	sort.Strings(emails)

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	for _, email := range emails {
		var u model.User
		if err := c.store.Read(ctx, repository.CollectionUsers, email, &u); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return fmt.Errorf("read user %s: %w", email, err)
		}
		fmt.Fprintf(tw, "Name: %s %s\tE-mail: %s\tOrders: %d\n", u.FirstName, u.LastName, u.Email, len(u.Orders))
	}
	return tw.Flush()
}

func (c *Console) moreUserInfo(ctx context.Context, args string) error {
	email, ok := flagValue(args)
	if !ok {
		return fmt.Errorf("usage: more user info --{email}")
	}

	var u model.User
	if err := c.store.Read(ctx, repository.CollectionUsers, email, &u); err != nil {
		return fmt.Errorf("read user %s: %w", email, err)
	}
	return c.printJSON(u.Public())
}

func (c *Console) listMenu(ctx context.Context, _ string) error {
	var m model.Menu
	if err := c.store.Read(ctx, repository.CollectionMenu, menu.RecordID, &m); err != nil {
		return fmt.Errorf("read menu: %w", err)
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 4, ' ', 0)
	for _, name := range m.Names() {
		price, _ := m.Price(name)
		fmt.Fprintf(tw, "%s\tPrice: %s\n", name, price)
	}
	return tw.Flush()
}

func (c *Console) listOrders(ctx context.Context, args string) error {
	flag, _ := flagValue(args)
	all := strings.EqualFold(flag, "all")
	cutoff := c.now().Add(-recentWindow)

	ids, err := c.store.List(ctx, repository.CollectionOrders)
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}

	orders := make([]model.Order, 0, len(ids))
	for _, id := range ids {
		var o model.Order
		if err := c.store.Read(ctx, repository.CollectionOrders, id, &o); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return fmt.Errorf("read order %s: %w", id, err)
		}
		if all || !o.PlacedAt().Before(cutoff) {
			orders = append(orders, o)
		}
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].OrderPlacedAt < orders[j].OrderPlacedAt
	})
	for _, o := range orders {
		if err := c.printJSON(o); err != nil {
			return err
		}
	}
	return nil
}

func (c *Console) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// matches сообщает, начинается ли line с имени команды без учёта регистра.
func matches(line, name string) bool {
	if len(line) < len(name) || !strings.EqualFold(line[:len(name)], name) {
		return false
	}
	return len(line) == len(name) || line[len(name)] == ' '
}

// flagValue извлекает значение из аргумента вида "--value".
func flagValue(args string) (string, bool) {
	_, v, ok := strings.Cut(args, "--")
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func header(w io.Writer, title string) {
	line := strings.Repeat("-", 60)
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "%*s\n", (60+len(title))/2, title)
	fmt.Fprintln(w, line)
}
