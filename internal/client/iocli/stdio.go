package iocli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Stdio консольная реализация IO для полевого клиента.
// Единственная боевая реализация; команды в тестах работают с IOMock.
type Stdio struct{}

func NewStdio() IO {
	return &Stdio{}
}

func (s *Stdio) Println(a ...any) {
	fmt.Println(a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	fmt.Printf(format, a...)
}

// ReadInput печатает prompt и читает одну строку из stdin,
// обрезая перевод строки и окружающие пробелы.
func (s *Stdio) ReadInput(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadPassword читает access key без эха терминала.
// Перевод строки печатается вручную: term.ReadPassword оставляет
// курсор на строке prompt'а.
func (s *Stdio) ReadPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	key, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(key), nil
}
