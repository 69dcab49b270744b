package commands

import (
	"SessionSync/internal/config"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// ErrUsage — неверные аргументы; диспетчер печатает usage команды.
var ErrUsage = errors.New("usage")

// Command — подкоманда sscli.
type Command interface {
	Name() string
	Description() string
	// Usage — строка вида "login <login> <password>".
	Usage() string
	// Run получает аргументы без имени команды.
	Run(ctx context.Context, cfg *config.Config, args []string) error
}

var registry = map[string]Command{}

// Out — общий writer для вывода CLI. По умолчанию os.Stdout, но в тестах может переназначаться.
var Out io.Writer = os.Stdout

// helpExamples — типовые сценарии работы с сессией.
var helpExamples = []string{
	"sscli register alice secret     # создать пользователя и сохранить токен",
	"sscli login alice secret        # войти; другие запущенные watch получат токен",
	"sscli watch                     # следить за токеном до Ctrl+C",
	"sscli watch --once              # дождаться гидратации, вывести состояние и выйти",
	"sscli --token-store sqlite status",
}

// RegisterCmd вызывается из init() каждой команды.
func RegisterCmd(cmd Command) {
	registry[cmd.Name()] = cmd
}

func Get(name string) (Command, bool) {
	c, ok := registry[name]
	return c, ok
}

// List возвращает команды, отсортированные по имени.
func List() []Command {
	list := make([]Command, 0, len(registry))
	for _, c := range registry {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// FormatGlobalUsage собирает общую справку: синтаксис, команды и примеры.
func FormatGlobalUsage() string {
	lines := []string{
		"SessionSync CLI: keeps the local session token in sync with the server",
		"",
		"Usage:",
		"  sscli [--base-url <host:port>] [--token-store file|sqlite] <command> [args]",
		"  sscli help <command>",
		"",
		"Commands:",
	}
	for _, c := range List() {
		lines = append(lines, fmt.Sprintf("  %-28s %s", c.Usage(), c.Description()))
	}
	lines = append(lines, "", "Examples:")
	for _, e := range helpExamples {
		lines = append(lines, "  "+e)
	}
	return strings.Join(lines, "\n") + "\n"
}

// FormatCommandUsage — справка по одной команде.
func FormatCommandUsage(c Command) string {
	s := "Usage: sscli " + c.Usage() + "\n"
	if d := c.Description(); d != "" {
		s += "  " + d + "\n"
	}
	return s
}
