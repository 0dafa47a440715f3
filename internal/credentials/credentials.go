// Package credentials resolves Docker Hub credentials from flags, the
// environment, a .env file or standard input.
package credentials

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/term"
)

// Environment variables holding credentials.
const (
	EnvUsername = "DOCKERHUB_USERNAME"
	EnvToken    = "DOCKERHUB_TOKEN"
)

// ErrIncomplete is returned when only one of username and token is known.
var ErrIncomplete = errors.New("username and token must be provided together")

// Credentials is a Docker Hub username and password or access token.
type Credentials struct {
	Username string
	Token    string
}

// Empty reports whether no credentials were given, selecting anonymous access.
func (c Credentials) Empty() bool {
	return c.Username == "" && c.Token == ""
}

// Opts configures credential resolution.
type Opts struct {
	// Username and Token come from command-line flags and win over the environment.
	Username string
	Token    string

	// TokenStdin reads the token from Stdin instead.
	TokenStdin bool
	Stdin      io.Reader

	// Prompt receives the prompt when Stdin is a terminal.
	Prompt io.Writer

	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Resolve returns the credentials to use. Flags take precedence over the
// environment. An empty result means anonymous access.
func Resolve(opts *Opts) (Credentials, error) {
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	creds := Credentials{
		Username: firstNonEmpty(opts.Username, env(lookup, EnvUsername)),
		Token:    firstNonEmpty(opts.Token, env(lookup, EnvToken)),
	}

	if opts.TokenStdin {
		if opts.Token != "" {
			return Credentials{}, errors.New("--token and --token-stdin are mutually exclusive")
		}

		token, err := readToken(opts.Stdin, opts.Prompt)
		if err != nil {
			return Credentials{}, err
		}

		creds.Token = token
	}

	if (creds.Username == "") != (creds.Token == "") {
		return Credentials{}, ErrIncomplete
	}

	return creds, nil
}

// Environment layers the variables of a .env file under lookup: a variable
// set to a non-empty value in the process environment wins. A missing file
// is ignored.
func Environment(envFile string, lookup func(string) (string, bool)) (func(string) (string, bool), error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if envFile == "" {
		return lookup, nil
	}

	vars, err := godotenv.Read(envFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return lookup, nil
		}

		return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
	}

	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok && v != "" {
			return v, true
		}

		v, ok := vars[key]

		return v, ok
	}, nil
}

// readToken reads a single line from r. When r is a terminal the input is
// not echoed.
func readToken(r io.Reader, prompt io.Writer) (string, error) {
	if r == nil {
		r = os.Stdin
	}

	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if prompt != nil {
			_, _ = fmt.Fprint(prompt, "Docker Hub token: ")
		}

		b, err := term.ReadPassword(int(f.Fd()))
		if prompt != nil {
			_, _ = fmt.Fprintln(prompt)
		}

		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}

		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading token from stdin: %w", err)
	}

	token := strings.TrimSpace(line)
	if token == "" {
		return "", errors.New("reading token from stdin: no token given")
	}

	return token, nil
}

func env(lookup func(string) (string, bool), key string) string {
	v, _ := lookup(key)

	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
