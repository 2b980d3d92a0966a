package players

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

var (
	upperCaseA = 65
	retries    = 3

	errQuit           = errors.New("player quit")
	ErrTooManyRetries = errors.New("too many invalid entries")
)

const (
	choiceQuit = -1
	choicePass = -2
	choiceNext = -3
)

var keywordChoices = map[string]int{
	"Q": choiceQuit,
	"P": choicePass,
	"N": choiceNext,
}

// readChoice reads a line and maps it to a move index (A is 0) or, for the
// keywords listed in allowed, to one of the choice constants. q is always
// allowed.
func readChoice(reader *bufio.Reader, out io.Writer, numMoves int, allowed string) (int, error) {
	allowed = strings.ToUpper(allowed) + "Q"

	for retriesLeft := retries; retriesLeft > 0; retriesLeft-- {
		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return 0, err
		}

		entry := strings.ToUpper(strings.TrimSpace(line))
		if choice, ok := keywordChoices[entry]; ok && strings.Contains(allowed, entry) {
			return choice, nil
		}
		if len(entry) == 1 && numMoves > 0 && charsInRange(entry, upperCaseA, upperCaseA+numMoves-1) {
			return int(entry[0]) - upperCaseA, nil
		}

		if numMoves == 0 {
			SendText(out, retryKeywordText, strings.ToLower(allowed))
		} else {
			SendText(out, retryRangeText, rune(upperCaseA+numMoves-1))
		}
	}

	return 0, ErrTooManyRetries
}

func charsInRange(chars string, lower, upper int) bool {
	for _, char := range chars {
		if int(char) < lower || int(char) > upper {
			return false
		}
	}
	return true
}
