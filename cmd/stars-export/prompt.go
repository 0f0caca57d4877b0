package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// tokenEnv is read before prompting for a token.
const tokenEnv = "GITHUB_TOKEN"

// prompter reads answers from the command's input.
type prompter struct {
	cmd    *cobra.Command
	reader *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{cmd: cmd, reader: bufio.NewReader(cmd.InOrStdin())}
}

// Username asks for the account whose stars are exported.
func (p *prompter) Username() (string, error) {
	p.cmd.Print("GitHub username: ")
	name, err := p.readLine()
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", errors.New("username is required")
	}
	return name, nil
}

// Token returns GITHUB_TOKEN or asks for it without echo when stdin is a
// terminal.
func (p *prompter) Token() (string, error) {
	if token := strings.TrimSpace(os.Getenv(tokenEnv)); token != "" {
		return token, nil
	}

	p.cmd.Print("GitHub personal access token: ")

	if f, ok := p.cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		p.cmd.Println()
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return requireToken(strings.TrimSpace(string(secret)))
	}

	token, err := p.readLine()
	if err != nil {
		return "", err
	}
	return requireToken(token)
}

func (p *prompter) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func requireToken(token string) (string, error) {
	if token == "" {
		return "", errors.New("token is required")
	}
	return token, nil
}
