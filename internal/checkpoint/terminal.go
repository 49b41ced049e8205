package checkpoint

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Interactive reports whether stdin is attached to a terminal, i.e.
// whether the default terminal handler can actually collect input.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// TerminalHandler returns an InputHandler that presents a numbered menu
// on out and reads selections line by line from in. Invalid selections
// reprompt; a closed input stream returns io.EOF.
func TerminalHandler(in io.Reader, out io.Writer) InputHandler {
	scanner := bufio.NewScanner(in)
	return func(prompt string, options []Option) (Decision, string, error) {
		sep := strings.Repeat("=", 60)
		fmt.Fprintf(out, "\n%s\nCHECKPOINT: %s\n%s\n\n", sep, prompt, sep)
		for i, opt := range options {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, opt.Label)
		}
		fmt.Fprintln(out)

		for {
			fmt.Fprint(out, "Choice (number): ")
			line, err := readLine(scanner)
			if err != nil {
				return "", "", err
			}

			idx, convErr := strconv.Atoi(strings.TrimSpace(line))
			if convErr != nil || idx < 1 || idx > len(options) {
				fmt.Fprintln(out, "Enter a valid option number")
				continue
			}

			decision := options[idx-1].Decision
			if !decision.NeedsFeedback() {
				return decision, "", nil
			}

			fmt.Fprint(out, "Feedback (Enter to skip): ")
			feedback, err := readLine(scanner)
			if err != nil {
				return "", "", err
			}
			return decision, strings.TrimSpace(feedback), nil
		}
	}
}

func readLine(scanner *bufio.Scanner) (string, error) {
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return scanner.Text(), nil
}
