package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/compagnon/internal/knowledge"
	"github.com/keshon/compagnon/pkg/cmd"
)

const dateLayout = "02/01/2006"

type ProfileCommand struct{ deps *Deps }

func (c *ProfileCommand) Name() string        { return "profil" }
func (c *ProfileCommand) Description() string { return "Affiche ton profil utilisateur" }
func (c *ProfileCommand) Aliases() []string   { return []string{"profile"} }

func (c *ProfileCommand) Run(_ context.Context, inv *cmd.Invocation) error {
	caller := from(inv)
	p := c.deps.Profiles.Ensure(caller.UserID, caller.UserName)

	var b strings.Builder
	fmt.Fprintf(&b, "👤 **Profil de %s**", caller.UserName)
	if c.deps.Catalog != nil && c.deps.Mood != nil {
		fmt.Fprintf(&b, " %s", c.deps.Catalog.Emoji(c.deps.Mood().Mood))
	}
	fmt.Fprintf(&b, "\n\n📊 Interactions: %d", p.InteractionCount)
	fmt.Fprintf(&b, "\n📅 Première visite: %s", p.FirstSeen.Format(dateLayout))
	fmt.Fprintf(&b, "\n🕐 Dernière visite: %s", p.LastSeen.Format(dateLayout))

	if c.deps.Knowledge != nil {
		known := c.deps.Knowledge.Get(caller.UserID)
		if e, ok := known[knowledge.Name]; ok {
			fmt.Fprintf(&b, "\n🪪 Prénom: %s", e.Value)
		}
		if e, ok := known[knowledge.Age]; ok {
			fmt.Fprintf(&b, "\n🎂 Âge: %s ans", e.Value)
		}
	}
	if len(p.Preferences.Topics) > 0 {
		fmt.Fprintf(&b, "\n\n🎯 Centres d'intérêt: %s", strings.Join(p.Preferences.Topics, ", "))
	}
	if len(p.LearnedFacts) > 0 {
		fmt.Fprintf(&b, "\n📝 Faits mémorisés: %d", len(p.LearnedFacts))
	}
	caller.Reply(b.String())
	return nil
}

type LearnCommand struct{ deps *Deps }

func (c *LearnCommand) Name() string        { return "learn" }
func (c *LearnCommand) Description() string { return "M'apprendre quelque chose sur toi" }
func (c *LearnCommand) Aliases() []string   { return []string{"apprends"} }

func (c *LearnCommand) Run(_ context.Context, inv *cmd.Invocation) error {
	caller := from(inv)
	fact := strings.TrimSpace(inv.Raw)
	if fact == "" {
		caller.Reply(fmt.Sprintf("❌ Utilisation: %slearn <fait>", c.deps.Prefix))
		return fmt.Errorf("%w: empty fact", ErrInvalidArgument)
	}
	c.deps.Profiles.Learn(caller.UserID, caller.UserName, fact)
	caller.Reply(fmt.Sprintf("✅ J'ai appris ça sur toi: \"%s\" 📝", fact))
	return nil
}
