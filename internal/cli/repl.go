// Пакет cli — интерактивная оболочка клиента: вход/выход, список файлов
// и операции над ними. Оболочка только разбирает ввод и печатает вывод,
// вся логика живёт в движке каталога и сессии.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/EgorLis/my-files/internal/catalog"
	"github.com/EgorLis/my-files/internal/domain"
)

type REPL struct {
	log    *log.Logger
	auth   domain.AuthSession
	engine *catalog.Engine
	in     *bufio.Reader
	out    io.Writer
}

func New(logger *log.Logger, auth domain.AuthSession, engine *catalog.Engine) *REPL {
	return &REPL{
		log:    logger,
		auth:   auth,
		engine: engine,
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

// Run крутит цикл чтения команд до quit, EOF или отмены контекста.
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, "my-files — type 'help' for commands")
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line, err := readLine(r.in, r.out, r.prompt())
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "help":
			r.printHelp()
		case "register":
			r.register(ctx)
		case "login":
			r.login(ctx, false)
		case "login-offline":
			r.login(ctx, true)
		case "logout":
			if err := r.auth.SignOut(ctx); err != nil {
				fmt.Fprintln(r.out, "error:", err)
			}
		case "l", "list":
			r.list()
		case "add":
			r.add(ctx, parts[1:])
		case "rename":
			r.rename(ctx, parts[1:])
		case "rm", "delete":
			r.remove(ctx, parts[1:])
		case "sync":
			if err := r.engine.Refresh(ctx); err != nil {
				fmt.Fprintln(r.out, "error:", err)
			} else {
				r.list()
			}
		case "exit", "quit":
			fmt.Fprintln(r.out, "bye")
			return nil
		default:
			fmt.Fprintln(r.out, "unknown command:", parts[0])
		}
	}
}

func (r *REPL) prompt() string {
	cur := r.auth.Current()
	switch {
	case cur == nil:
		return "my-files (guest)> "
	case cur.Offline:
		return fmt.Sprintf("my-files (%s, offline)> ", cur.Login)
	default:
		return fmt.Sprintf("my-files (%s)> ", cur.Login)
	}
}

func (r *REPL) printHelp() {
	if r.auth.Current() == nil {
		fmt.Fprintln(r.out, "commands: register, login, login-offline, help, quit")
		return
	}
	fmt.Fprintln(r.out, "commands: (l)ist, add <path>, rename <name> <new-name>, delete <name>, sync, logout, help, quit")
}

func (r *REPL) register(ctx context.Context) {
	login, err := readLine(r.in, r.out, "email: ")
	if err != nil {
		return
	}
	password, err := readSecret(r.in, r.out, "password: ")
	if err != nil {
		return
	}
	if err := r.auth.SignUp(ctx, login, password); err != nil {
		fmt.Fprintln(r.out, "error:", humanize(err))
		return
	}
	fmt.Fprintln(r.out, "registered, now login")
}

func (r *REPL) login(ctx context.Context, offline bool) {
	login, err := readLine(r.in, r.out, "email: ")
	if err != nil {
		return
	}
	password, err := readSecret(r.in, r.out, "password: ")
	if err != nil {
		return
	}
	var ident domain.Identity
	if offline {
		ident, err = r.auth.SignInOffline(ctx, login, password)
	} else {
		ident, err = r.auth.SignIn(ctx, login, password)
	}
	if err != nil {
		fmt.Fprintln(r.out, "error:", humanize(err))
		return
	}
	fmt.Fprintf(r.out, "signed in as %s\n", ident.Login)
}

func (r *REPL) list() {
	recs := r.engine.Records()
	if len(recs) == 0 {
		fmt.Fprintln(r.out, "no files")
		return
	}
	for _, rec := range recs {
		fmt.Fprintf(r.out, "%-8s %-10s %s\n", rec.Kind, rec.SyncState, rec.Name)
	}
}

func (r *REPL) add(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "usage: add <path>")
		return
	}
	f, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintln(r.out, "error:", err)
		return
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		fmt.Fprintln(r.out, "error:", err)
		return
	}

	kind := catalog.ClassifyKind(fi.Name())
	rec, err := r.engine.Add(ctx, f, fi.Size(), kind, "")
	if err != nil {
		fmt.Fprintln(r.out, "error:", humanize(err))
		return
	}
	fmt.Fprintf(r.out, "added %s (%s)\n", rec.Name, rec.Kind)
}

func (r *REPL) rename(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(r.out, "usage: rename <name> <new-name>")
		return
	}
	rec, ok := r.byName(args[0])
	if !ok {
		fmt.Fprintln(r.out, "no such file:", args[0])
		return
	}
	renamed, err := r.engine.Rename(ctx, rec.ID, args[1])
	if err != nil {
		fmt.Fprintln(r.out, "error:", humanize(err))
		return
	}
	fmt.Fprintf(r.out, "renamed to %s\n", renamed.Name)
}

func (r *REPL) remove(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "usage: delete <name>")
		return
	}
	rec, ok := r.byName(args[0])
	if !ok {
		fmt.Fprintln(r.out, "no such file:", args[0])
		return
	}
	if !confirm(r.in, r.out, fmt.Sprintf("delete %s?", rec.Name)) {
		fmt.Fprintln(r.out, "cancelled")
		return
	}
	if err := r.engine.Delete(ctx, rec.ID); err != nil {
		fmt.Fprintln(r.out, "error:", humanize(err))
		return
	}
	fmt.Fprintln(r.out, "deleted", rec.Name)
}

func (r *REPL) byName(name string) (domain.FileRecord, bool) {
	for _, rec := range r.engine.Records() {
		if rec.Name == name {
			return rec, true
		}
	}
	return domain.FileRecord{}, false
}

// humanize переводит сентинельные ошибки в сообщения для пользователя.
func humanize(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		return "not signed in"
	case errors.Is(err, domain.ErrOffline):
		return "offline session is read-only, sign in online to modify files"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "wrong email or password"
	case errors.Is(err, domain.ErrEmailInUse):
		return "that email address is already in use"
	case errors.Is(err, domain.ErrInvalidEmail):
		return "that email address is invalid"
	case errors.Is(err, domain.ErrWeakPassword):
		return "password should be at least 6 characters"
	case errors.Is(err, domain.ErrTooManyRequests):
		return "too many requests, try again later"
	case errors.Is(err, domain.ErrQuotaExceeded):
		return "storage quota exceeded"
	case errors.Is(err, domain.ErrNotFound):
		return "not found"
	default:
		return err.Error()
	}
}
