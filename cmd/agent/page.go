package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"stallpick-be/internal/entity"
	"stallpick-be/internal/reconciler"

	"github.com/fatih/color"
)

const (
	cmdList    = "list"
	cmdToggle  = "toggle"
	cmdChoose  = "choose"
	cmdRequest = "request"
	cmdChecked = "checked"
	cmdStop    = "stop"
	cmdResync  = "resync"
	cmdHelp    = "help"
	cmdQuit    = "quit"
)

type command struct {
	name string
	arg  string
}

// parseCommand reads one input line. Stall arguments are list positions
// starting at 1 or stall names.
func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return command{name: cmdList}, nil
	}
	name, arg, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	arg = strings.TrimSpace(arg)

	switch name {
	case cmdList, "ls", "l":
		return command{name: cmdList, arg: arg}, nil
	case cmdToggle, "t":
		if arg == "" {
			return command{}, fmt.Errorf("usage: toggle <stall>")
		}
		return command{name: cmdToggle, arg: arg}, nil
	case cmdChoose, "c":
		if arg == "" {
			return command{}, fmt.Errorf("usage: choose <stall>")
		}
		return command{name: cmdChoose, arg: arg}, nil
	case cmdRequest, "r":
		if arg == "" {
			return command{}, fmt.Errorf("usage: request <dish>")
		}
		return command{name: cmdRequest, arg: arg}, nil
	case cmdChecked, cmdStop, cmdResync, cmdHelp:
		return command{name: name}, nil
	case cmdQuit, "exit", "q":
		return command{name: cmdQuit}, nil
	}
	return command{}, fmt.Errorf("unknown command %q, try 'help'", name)
}

type page struct {
	role   reconciler.Role
	out    io.Writer
	client *reconciler.Client

	mu     sync.Mutex
	filter string
	listed []*entity.Stall
}

func newPage(role reconciler.Role, out io.Writer) *page {
	return &page{role: role, out: out}
}

func (p *page) hooks() reconciler.Hooks {
	return reconciler.Hooks{
		OnView: p.render,
		OnDecision: func(stallName string, elapsed *int) {
			if elapsed != nil {
				color.New(color.FgGreen, color.Bold).Fprintf(p.out, "Decision: %s (%ds)\n", stallName, *elapsed)
				return
			}
			color.New(color.FgGreen, color.Bold).Fprintf(p.out, "Decision: %s\n", stallName)
		},
		OnRequest: func(text string) {
			color.New(color.FgMagenta).Fprintf(p.out, "Dish request: %s\n", text)
		},
		OnError: func(err error) {
			color.New(color.FgRed).Fprintf(p.out, "%v\n", err)
		},
	}
}

// render prints the stall list. The eater sees open stalls first.
func (p *page) render(v reconciler.View) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stalls := reconciler.Filter(v.Stalls, p.filter)
	if p.role == reconciler.RoleEater {
		stalls = reconciler.OrderForEater(stalls, v.Availability)
	}
	p.listed = stalls

	open, total := reconciler.OpenCount(v)
	color.New(color.FgCyan, color.Bold).Fprintf(p.out, "\n[%s] %s  Open: %d / %d\n", p.role, v.Code(), open, total)
	for i, s := range stalls {
		mark := color.RedString("closed")
		if v.IsOpen(s.Id) {
			mark = color.GreenString("open  ")
		}
		if _, pending := v.PendingValue(s.Id); pending {
			mark += color.YellowString("*")
		}
		label := ""
		if s.PhysicalLabel != nil && *s.PhysicalLabel != "" {
			label = " (" + *s.PhysicalLabel + ")"
		}
		selected := ""
		if v.SelectedStallId != nil && *v.SelectedStallId == s.Id {
			selected = color.GreenString("  <- chosen")
		}
		fmt.Fprintf(p.out, "%3d. %s %s%s%s\n", i+1, mark, s.Name, label, selected)
	}
	if v.LatestRequestText != nil && *v.LatestRequestText != "" {
		fmt.Fprintf(p.out, "Latest request: %s\n", *v.LatestRequestText)
	}
}

// stall finds a stall by list position or by name.
func (p *page) stall(arg string) (*entity.Stall, error) {
	p.mu.Lock()
	listed := p.listed
	p.mu.Unlock()

	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(listed) {
			return nil, fmt.Errorf("no stall at position %d", n)
		}
		return listed[n-1], nil
	}
	for _, s := range p.client.View().Stalls {
		if strings.EqualFold(s.Name, arg) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("no stall named %q", arg)
}

func (p *page) execute(ctx context.Context, cmd command) error {
	switch cmd.name {
	case cmdList:
		p.mu.Lock()
		p.filter = cmd.arg
		p.mu.Unlock()
		p.render(p.client.View())
	case cmdToggle:
		s, err := p.stall(cmd.arg)
		if err != nil {
			return err
		}
		p.client.Toggle(s.Id)
	case cmdChoose:
		s, err := p.stall(cmd.arg)
		if err != nil {
			return err
		}
		return p.client.Choose(ctx, s.Id)
	case cmdRequest:
		return p.client.RequestDish(ctx, cmd.arg)
	case cmdChecked:
		path, err := p.client.AllChecked(ctx)
		if err != nil {
			return err
		}
		color.New(color.FgCyan).Fprintf(p.out, "Share with the eater: %s\n", path)
	case cmdStop:
		secs, ok := p.client.StopTimer()
		if !ok {
			return fmt.Errorf("the decision timer is not running")
		}
		fmt.Fprintf(p.out, "Timer stopped at %ds\n", secs)
	case cmdResync:
		return p.client.Resync(ctx)
	case cmdHelp:
		fmt.Fprintln(p.out, "list [filter] | toggle <n|name> | choose <n|name> | request <dish> | checked | stop | resync | quit")
	}
	return nil
}
