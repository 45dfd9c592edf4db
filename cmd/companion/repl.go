package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	companion "github.com/cyberFlowTech/companion-sdk-go"
	"github.com/cyberFlowTech/companion-sdk-go/persona"
	"github.com/spf13/cast"
)

const replHelp = `commands:
  /persona <id>   switch persona
  /personas       list personas
  /flirt <0-100>  set flirt level
  /stats          show relationship stats
  /forget         drop all memories
  /reset          reset the relationship
  /quit           save and exit`

type repl struct {
	sess     *companion.Session
	registry *persona.Registry
	out      io.Writer
}

func newREPL(sess *companion.Session, registry *persona.Registry, out io.Writer) *repl {
	return &repl{sess: sess, registry: registry, out: out}
}

// Run reads lines until EOF, /quit or ctx cancellation.
func (r *repl) Run(ctx context.Context, in io.Reader) error {
	r.greet()
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := r.command(line); quit {
				return nil
			}
			continue
		}
		if err := r.turn(ctx, line); err != nil {
			return err
		}
	}
}

func (r *repl) greet() {
	p, err := r.sess.Persona()
	if err != nil {
		return
	}
	fmt.Fprintf(r.out, "%s is here. Type /help for commands.\n", p.DisplayName)
}

func (r *repl) turn(ctx context.Context, line string) error {
	res, err := r.sess.Turn(ctx, line)
	if err != nil {
		return err
	}
	p, err := r.sess.Persona()
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%s: %s\n", p.DisplayName, res.Text)
	fmt.Fprintf(r.out, "   [%s %d | %s | %s]\n",
		res.Emotion.Dominant, res.Emotion.Intensity, res.Response.AnimationCue, res.Response.AudioCue)
	return nil
}

func (r *repl) command(line string) (quit bool) {
	fields := strings.Fields(line)
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch fields[0] {
	case "/quit", "/exit":
		fmt.Fprintln(r.out, "bye!")
		return true
	case "/help":
		fmt.Fprintln(r.out, replHelp)
	case "/personas":
		for _, id := range r.registry.List() {
			p, _ := r.registry.Get(id)
			fmt.Fprintf(r.out, "  %-10s %s\n", id, p.Tagline)
		}
	case "/persona":
		if err := r.sess.SetPersona(arg); err != nil {
			fmt.Fprintln(r.out, "error:", err)
			return false
		}
		r.greet()
	case "/flirt":
		v, err := cast.ToIntE(arg)
		if err != nil {
			fmt.Fprintln(r.out, "usage: /flirt <0-100>")
			return false
		}
		r.sess.SetFlirtLevel(v)
		fmt.Fprintf(r.out, "flirt level: %d\n", r.sess.State().FlirtLevel)
	case "/stats":
		data, _ := json.MarshalIndent(r.sess.Stats(), "", "  ")
		fmt.Fprintln(r.out, string(data))
	case "/forget":
		fmt.Fprintf(r.out, "forgot %d memories\n", r.sess.Forget())
	case "/reset":
		r.sess.Reset()
		fmt.Fprintln(r.out, "relationship reset")
	default:
		fmt.Fprintf(r.out, "unknown command %s\n", fields[0])
	}
	return false
}
