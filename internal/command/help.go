package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/compagnon/pkg/cmd"
)

type HelpCommand struct {
	deps     *Deps
	registry *cmd.Registry
}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Affiche cette aide" }
func (c *HelpCommand) Aliases() []string   { return []string{"aide"} }

func (c *HelpCommand) Run(_ context.Context, inv *cmd.Invocation) error {
	from(inv).Reply(c.text())
	return nil
}

func (c *HelpCommand) text() string {
	p := c.deps.Prefix
	var b strings.Builder
	b.WriteString("🤖 **Salut ! Je suis ton bot IA super libéral !**\n\n")
	b.WriteString("**Comment me parler :**\n")
	fmt.Fprintf(&b, "• Mentionne-moi : @%s\n", c.deps.BotName)
	fmt.Fprintf(&b, "• Utilise le préfixe : `%s` suivi de ton message\n", p)
	b.WriteString("• Envoie-moi un message privé\n\n")

	b.WriteString("**Commandes spéciales :**\n")
	for _, command := range c.registry.GetAll() {
		names := fmt.Sprintf("`%s%s`", p, command.Name())
		if a, ok := cmd.Root(command).(cmd.Aliased); ok {
			for _, alias := range a.Aliases() {
				names += fmt.Sprintf(" ou `%s%s`", p, alias)
			}
		}
		fmt.Fprintf(&b, "• %s - %s\n", names, command.Description())
	}

	b.WriteString(`
**Ce que je peux faire :**
✨ Discuter de tout et n'importe quoi sans restriction
🎭 Être drôle, sarcastique, et très décontracté
🧠 Me souvenir de notre conversation ET de toi personnellement
💾 **MÉMOIRE INTELLIGENTE ILLIMITÉE** - Je garde ce qui est important à vie !
💬 Répondre dans un style très libéral et ouvert
⏰ Adapter mon humeur selon l'heure et le jour
🎯 Réagir à des mots-clés avec des réponses spéciales
🤖 Initier des conversations quand c'est trop silencieux !

**N'hésite pas à me parler de tout !** 😄`)
	return b.String()
}

type StatsCommand struct{ deps *Deps }

func (c *StatsCommand) Name() string        { return "stats" }
func (c *StatsCommand) Description() string { return "Affiche les stats du comportement proactif" }
func (c *StatsCommand) Aliases() []string   { return []string{"proactive"} }

func (c *StatsCommand) Run(_ context.Context, inv *cmd.Invocation) error {
	from(inv).Reply(c.deps.Proactive.Stats())
	return nil
}
