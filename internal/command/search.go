package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/compagnon/pkg/cmd"
)

const searchLimit = 5

type SearchCommand struct{ deps *Deps }

func (c *SearchCommand) Name() string        { return "search" }
func (c *SearchCommand) Description() string { return "Cherche dans tout notre historique" }
func (c *SearchCommand) Aliases() []string   { return []string{"cherche"} }

func (c *SearchCommand) Run(_ context.Context, inv *cmd.Invocation) error {
	caller := from(inv)
	query := strings.TrimSpace(inv.Raw)
	if query == "" {
		caller.Reply(fmt.Sprintf("❌ Utilisation: %ssearch <mots>", c.deps.Prefix))
		return fmt.Errorf("%w: empty query", ErrInvalidArgument)
	}

	hits := c.deps.History.Search(caller.UserID, query, searchLimit)
	if len(hits) == 0 {
		caller.Reply(fmt.Sprintf("🔎 Rien trouvé pour \"%s\".", query))
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔎 **Résultats pour \"%s\"**", query)
	for _, h := range hits {
		who := "toi"
		if h.Message.Role == "assistant" {
			who = "moi"
		}
		content := []rune(h.Message.Content)
		fmt.Fprintf(&b, "\n• %s (%s): %s", h.Message.Timestamp.Format("02/01 15:04"), who, string(content[:min(150, len(content))]))
	}
	caller.Reply(b.String())
	return nil
}
