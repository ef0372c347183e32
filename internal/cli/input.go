package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// шов для тестов: подменяет чтение пароля без эха
var readPassword = term.ReadPassword

// readLine печатает подсказку и читает одну строку. Хвостовой перевод
// строки срезается; частичная строка перед EOF считается вводом.
func readLine(in *bufio.Reader, out io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return "", err
	}
	line, err := in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readSecret читает пароль без эха, если stdin — терминал,
// иначе падает обратно на обычную строку (пайпы, тесты).
func readSecret(in *bufio.Reader, out io.Writer, prompt string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return readLine(in, out, prompt)
	}
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// confirm задаёт вопрос да/нет; по умолчанию — нет.
func confirm(in *bufio.Reader, out io.Writer, prompt string) bool {
	ans, err := readLine(in, out, prompt+" [y/N]: ")
	if err != nil {
		return false
	}
	switch strings.ToLower(ans) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
