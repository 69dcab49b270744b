package commands

import (
	"SessionSync/internal/config"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
)

// Коды выхода sscli.
const (
	exitOK    = 0
	exitErr   = 1
	exitUsage = 2
)

// Dispatch разбирает имя команды, запускает её и возвращает код выхода процесса.
func Dispatch(ctx context.Context, cfg *config.Config, args []string) int {
	// --help мог остаться в os.Args после разбора глобальных флагов
	for _, a := range os.Args[1:] {
		if a == "--help" || a == "-h" {
			fmt.Fprint(Out, FormatGlobalUsage())
			return exitOK
		}
	}

	if !flag.Parsed() {
		flag.Parse()
	}

	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return exitUsage
	}

	name := strings.ToLower(args[0])
	if name == "help" {
		return dispatchHelp(args[1:])
	}

	c, ok := Get(name)
	if !ok {
		return unknownCommand(name)
	}

	err := c.Run(ctx, cfg, args[1:])
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, ErrUsage):
		fmt.Fprint(Out, FormatCommandUsage(c))
		return exitUsage
	default:
		fmt.Fprintf(Out, "%s error: %v\n", name, err)
		return exitErr
	}
}

// dispatchHelp: sscli help [command]
func dispatchHelp(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return exitOK
	}
	c, ok := Get(strings.ToLower(args[0]))
	if !ok {
		return unknownCommand(args[0])
	}
	fmt.Fprint(Out, FormatCommandUsage(c))
	return exitOK
}

func unknownCommand(name string) int {
	fmt.Fprintf(Out, "Unknown command: %s\n\n", name)
	fmt.Fprint(Out, FormatGlobalUsage())
	return exitUsage
}
