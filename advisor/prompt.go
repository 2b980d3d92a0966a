package advisor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/minaorangina/fantan/deck"
	"github.com/tidwall/gjson"
)

const systemPrompt = `You are a strategic player of the card game Fan-Tan (Sevens, Bamboo Stick).

GOAL:
The game ends the moment any player empties their hand. If you still hold cards
when your opponent finishes, you lose.

RULES:
1. The player holding the 7 of Hearts starts.
2. The first move of a round must be a 7.
3. A card is playable if it is one rank below or above an existing run of its
   suit on the table, or if it is a 7 of a suit not yet on the table.

STRATEGY:
1. Sevens are keys. Playing a 7 opens your other cards in that suit; holding it
   back blocks your opponent.
2. Aces and Kings are end points. Play them early when you can.
3. If you hold the 6 and 8 of a suit, the 7 is vital.

Current table: %s
Your hand: %s
Valid options: %s
Recent moves:
%s
Reply with a JSON object with exactly two fields:
"chosenCardId": the ID of the card you play, copied from the valid options.
"thinking": a short explanation of your choice.`

const historyLimit = 10

func buildSystemPrompt(req Request) string {
	table, err := json.Marshal(req.Table)
	if err != nil {
		table = []byte("{}")
	}

	hand := make([]string, 0, len(req.Hand))
	for _, c := range req.Hand {
		hand = append(hand, c.Short())
	}

	legal := make([]string, 0, len(req.Legal))
	for _, c := range req.Legal {
		legal = append(legal, fmt.Sprintf("[ID: %s] %s", c.ID(), c.Short()))
	}

	return fmt.Sprintf(systemPrompt,
		table,
		strings.Join(hand, ", "),
		strings.Join(legal, ", "),
		buildHistory(req),
	)
}

func buildHistory(req Request) string {
	history := req.History
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	if len(history) == 0 {
		return "(none)\n"
	}

	var b strings.Builder
	for _, e := range history {
		if e.Card != nil {
			fmt.Fprintf(&b, "- %s played %s\n", e.PlayerName, e.Card.Short())
			continue
		}
		fmt.Fprintf(&b, "- %s skipped\n", e.PlayerName)
	}
	return b.String()
}

func buildUserPrompt(req Request) string {
	return fmt.Sprintf("Player %s, make your choice. Clear your end points (A/K) and manage your sevens.", req.PlayerName)
}

// parseDecision pulls the decision fields out of a model reply, tolerating
// prose or code fences around the JSON object.
func parseDecision(reply string) (Decision, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return Decision{}, ErrEmptyReply
	}

	start, end := strings.Index(reply, "{"), strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return Decision{}, ErrMalformedReply
	}
	body := reply[start : end+1]
	if !gjson.Valid(body) {
		return Decision{}, ErrMalformedReply
	}

	id := gjson.Get(body, "chosenCardId")
	if !id.Exists() || id.String() == "" {
		return Decision{}, fmt.Errorf("%w: missing chosenCardId", ErrMalformedReply)
	}
	if _, err := deck.ParseID(id.String()); err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	return Decision{
		CardID:    id.String(),
		Rationale: gjson.Get(body, "thinking").String(),
	}, nil
}
