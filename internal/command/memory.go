package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/keshon/compagnon/internal/config"
	"github.com/keshon/compagnon/internal/memory"
	"github.com/keshon/compagnon/pkg/cmd"
)

type ResetCommand struct{ deps *Deps }

func (c *ResetCommand) Name() string        { return "reset" }
func (c *ResetCommand) Description() string { return "Efface notre historique de conversation" }
func (c *ResetCommand) Aliases() []string   { return []string{"clear"} }

func (c *ResetCommand) Run(_ context.Context, inv *cmd.Invocation) error {
	caller := from(inv)
	c.deps.Conversations.Reset(caller.UserID)
	caller.Reply("🧹 Mémoire effacée pour cet utilisateur. On repart à zéro 😊")
	return nil
}

type MemCommand struct{ deps *Deps }

func (c *MemCommand) Name() string        { return "mem" }
func (c *MemCommand) Description() string { return "Affiche l'état mémoire pour toi" }

func (c *MemCommand) Run(_ context.Context, inv *cmd.Invocation) error {
	caller := from(inv)
	conv := c.deps.Conversations
	summary := ""
	if conv.Summary(caller.UserID) != "" {
		summary = " (résumé présent)"
	}
	caller.Reply(fmt.Sprintf("🧠 Mémoire active: %d messages%s. Limite: %d", conv.Len(caller.UserID), summary, conv.Limit()))
	return nil
}

type SetMemCommand struct{ deps *Deps }

func (c *SetMemCommand) Name() string { return "setmem" }
func (c *SetMemCommand) Description() string {
	return fmt.Sprintf("Ajuste la profondeur mémoire (%d-%d)", config.MinMemoryLength, config.MaxMemoryLength)
}

func (c *SetMemCommand) Run(_ context.Context, inv *cmd.Invocation) error {
	caller := from(inv)
	arg := ""
	if len(inv.Args) > 0 {
		arg = inv.Args[0]
	}
	n, err := strconv.Atoi(arg)
	if err == nil {
		err = c.deps.Conversations.SetLimit(n)
	}
	if err != nil {
		caller.Reply(fmt.Sprintf("❌ Valeur invalide. Choisis un nombre entre %d et %d.", config.MinMemoryLength, config.MaxMemoryLength))
		return fmt.Errorf("%w: setmem %q", ErrInvalidArgument, arg)
	}
	caller.Reply(fmt.Sprintf("✅ Nouvelle limite mémoire définie à %d.", n))
	return nil
}

type MemoryCommand struct{ deps *Deps }

func (c *MemoryCommand) Name() string        { return "memoire" }
func (c *MemoryCommand) Description() string { return "Affiche ta mémoire intelligente complète" }
func (c *MemoryCommand) Aliases() []string   { return []string{"memory"} }

func (c *MemoryCommand) Run(_ context.Context, inv *cmd.Invocation) error {
	caller := from(inv)
	st, ok := c.deps.Memory.Stats(caller.UserID)
	m, _ := c.deps.Memory.Get(caller.UserID)
	if !ok {
		caller.Reply("❌ Aucune mémoire enregistrée pour toi encore.")
		return nil
	}
	caller.Reply(MemoryCard(caller.UserName, st, m))
	return nil
}

// MemoryCard renders the long-term memory statistics and a short preview.
func MemoryCard(userName string, st memory.Stats, m memory.UserMemory) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧠 **Mémoire Intelligente Illimitée de %s**\n\n", userName)
	b.WriteString("📊 **Statistiques:**\n")
	fmt.Fprintf(&b, "• Total d'éléments mémorisés: %d\n", st.Total)
	fmt.Fprintf(&b, "• Faits personnels: %d\n", st.Facts)
	fmt.Fprintf(&b, "• Préférences: %d\n", st.Preferences)
	fmt.Fprintf(&b, "• Dislikes: %d\n", st.Dislikes)
	fmt.Fprintf(&b, "• Personnes mentionnées: %d\n", st.People)
	fmt.Fprintf(&b, "• Événements: %d\n", st.Events)
	fmt.Fprintf(&b, "• Sujets récents: %d\n", st.Topics)
	fmt.Fprintf(&b, "• Émotions détectées: %d\n", st.Emotions)
	fmt.Fprintf(&b, "• Expertises: %d\n", st.Expertise)
	fmt.Fprintf(&b, "• Intérêts: %d\n", st.Interests)
	b.WriteString("\n📝 **Aperçu:**")

	preview := func(label string, items []string, sep string) {
		if len(items) > 0 {
			fmt.Fprintf(&b, "\n%s: %s", label, strings.Join(items, sep))
		}
	}
	preview("🔹 Derniers faits", tail(m.Facts, 3), "; ")
	preview("💚 Aime", tail(m.Preferences, 3), "; ")
	preview("💔 N'aime pas", tail(m.Dislikes, 2), "; ")
	preview("🎯 Intérêts", lo.Map(m.Interests, func(t string, _ int) string { return memory.InterestLabel(t) }), ", ")
	preview("💬 Sujets récents", m.Topics[:min(2, len(m.Topics))], "; ")

	b.WriteString("\n\n✨ Cette mémoire est **illimitée** et conservée à vie !")
	return b.String()
}

func tail(list []string, n int) []string {
	return list[max(0, len(list)-n):]
}
