// Package cli runs the interactive terminal conversation.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"book-recommender/internal/assistant"
	"book-recommender/internal/domain"
	"book-recommender/internal/render"
)

const help = `commands:
  /mark N   toggle the bookmark of book N from the last recommendation
  /shelf    list bookmarks
  /reset    start over
  /quit     exit`

// REPL reads lines from in and writes replies to out.
type REPL struct {
	session *assistant.Session
	shelf   *assistant.Shelf
	out     io.Writer

	last *domain.RecommendationPayload
}

// New creates a REPL. shelf may be nil, which disables bookmark commands.
func New(session *assistant.Session, shelf *assistant.Shelf, out io.Writer) *REPL {
	return &REPL{session: session, shelf: shelf, out: out}
}

// Run prints the greeting and loops until /quit or EOF.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	if r.shelf != nil {
		if err := r.shelf.Load(ctx); err != nil && !errors.Is(err, assistant.ErrAuthRequired) {
			fmt.Fprintf(r.out, "(bookmarks unavailable: %v)\n", err)
		}
	}
	r.printGreeting()

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, "\n> ")
		if !sc.Scan() {
			fmt.Fprintln(r.out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := r.command(ctx, line); quit {
				return nil
			}
			continue
		}
		r.submit(ctx, line)
	}
}

func (r *REPL) printGreeting() {
	turns := r.session.Turns()
	if len(turns) > 0 {
		fmt.Fprintln(r.out, turns[0].Content)
	}
	fmt.Fprintln(r.out, "(/help for commands)")
}

func (r *REPL) submit(ctx context.Context, text string) {
	reply, err := r.session.Submit(ctx, text)
	if err != nil && reply.Err == nil {
		fmt.Fprintf(r.out, "(%v)\n", err)
		return
	}
	if rec, ok := reply.Payload.(*domain.RecommendationPayload); ok {
		r.last = rec
	}
	fmt.Fprintln(r.out, render.Text(reply.Payload, r.marked))
}

func (r *REPL) marked(title string) bool {
	return r.shelf != nil && r.shelf.Contains(title)
}

func (r *REPL) command(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, help)
	case "/reset":
		r.session.Reset()
		r.last = nil
		r.printGreeting()
	case "/shelf":
		r.listShelf()
	case "/mark":
		if len(fields) != 2 {
			fmt.Fprintln(r.out, "usage: /mark N")
			return false
		}
		r.mark(ctx, fields[1])
	default:
		fmt.Fprintf(r.out, "unknown command %s\n", fields[0])
	}
	return false
}

func (r *REPL) mark(ctx context.Context, arg string) {
	if r.shelf == nil {
		fmt.Fprintln(r.out, "bookmarks are not configured")
		return
	}
	n, err := strconv.Atoi(arg)
	if err != nil || r.last == nil || n < 1 || n > len(r.last.Books) {
		fmt.Fprintln(r.out, "no such book")
		return
	}
	book := r.last.Books[n-1]
	on, err := r.shelf.Toggle(ctx, book)
	switch {
	case errors.Is(err, assistant.ErrAuthRequired):
		fmt.Fprintln(r.out, "sign in to use bookmarks (set BOOKCHAT_USER_ID)")
	case err != nil:
		fmt.Fprintf(r.out, "bookmark failed: %v\n", err)
	case on:
		fmt.Fprintf(r.out, "bookmarked %s\n", book.Title)
	default:
		fmt.Fprintf(r.out, "removed %s\n", book.Title)
	}
}

func (r *REPL) listShelf() {
	if r.shelf == nil {
		fmt.Fprintln(r.out, "bookmarks are not configured")
		return
	}
	items := r.shelf.Items()
	if len(items) == 0 {
		fmt.Fprintln(r.out, "no bookmarks")
		return
	}
	for _, b := range items {
		fmt.Fprintf(r.out, "- %s / %s [%s]\n", b.BookTitle, b.BookAuthor, b.Status)
	}
}
