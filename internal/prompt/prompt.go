// Package prompt assembles the text sent to the model and cleans what comes
// back.
package prompt

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/keshon/compagnon/internal/conversation"
)

const (
	// Fallback replaces replies too short to send.
	Fallback = "Je n'ai pas bien compris, tu peux reformuler ?"

	// MaxMessage is the platform limit; longer text is split in ChunkSize pieces.
	MaxMessage = 2000
	ChunkSize  = 1900
)

var responseRules = []string{
	"- Réponds de manière DIRECTE et PRÉCISE, sans tourner autour du pot",
	"- Si tu connais la réponse, donne-la IMMÉDIATEMENT sans hésitation",
	"- Si c'est une question simple (oui/non, A ou B), réponds en 1 phrase courte",
	"- Ne dis JAMAIS \"je ne sais pas\" si tu peux déduire la réponse du contexte",
	"- Utilise l'historique de conversation et la mémoire pour répondre intelligemment",
}

// Input is everything Build needs for one turn.
type Input struct {
	Personality string
	UserName    string
	Mentions    []string

	Summary       string
	Enrichment    string
	MemorySummary string

	ReasoningContext string
	UseAdvanced      bool

	// Warnings is added when ReasoningContext is not, so contradictions
	// always reach the model.
	Warnings string

	Turns []conversation.Message
}

// Build renders the full prompt, ending with the bot's speaker cue.
func Build(in Input) string {
	var ctx strings.Builder
	fmt.Fprintf(&ctx, "Tu discutes avec %s.", in.UserName)
	if len(in.Mentions) > 0 {
		fmt.Fprintf(&ctx, " Il mentionne: %s.", strings.Join(in.Mentions, ", "))
	}
	ctx.WriteString("\n\n🎯 RÈGLES DE RÉPONSE:\n")
	for _, r := range responseRules {
		ctx.WriteString(r + "\n")
	}
	if in.Summary != "" {
		fmt.Fprintf(&ctx, "\n📜 Résumé des échanges précédents: %s", in.Summary)
	}
	ctx.WriteString(in.Enrichment)
	ctx.WriteString(in.MemorySummary)
	fmt.Fprintf(&ctx, "\n\n⚠️ IMPORTANT: Les informations ci-dessus sur %s sont VRAIES et VÉRIFIÉES. "+
		"Tu DOIS les respecter ABSOLUMENT dans ta réponse. Ne JAMAIS contredire ces faits mémorisés. "+
		"Si tu as un doute, demande des clarifications plutôt que d'inventer.", in.UserName)
	if in.UseAdvanced {
		ctx.WriteString(in.ReasoningContext)
	} else {
		ctx.WriteString(in.Warnings)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n%s\n\nConversation:\n", in.Personality, ctx.String())
	for _, m := range in.Turns {
		switch m.Role {
		case conversation.User:
			fmt.Fprintf(&b, "%s: %s\n", in.UserName, m.Content)
		case conversation.Assistant:
			fmt.Fprintf(&b, "Bot: %s\n", m.Content)
		}
	}
	b.WriteString("Bot:")
	return b.String()
}

var speakerPrefix = regexp.MustCompile(`(?i)^(Bot:|Toi:|Assistant:)`)

// Clean strips a speaker label and keeps the first line. It returns "" when
// nothing usable is left.
func Clean(reply string) string {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimSpace(speakerPrefix.ReplaceAllString(reply, ""))
	line, _, _ := strings.Cut(reply, "\n")
	return strings.TrimSpace(line)
}

// CleanReply is Clean with the Fallback substituted for replies under two
// characters.
func CleanReply(reply string) string {
	line := Clean(reply)
	if utf8.RuneCountInString(line) < 2 {
		return Fallback
	}
	return line
}

// Chunk splits text longer than MaxMessage into ChunkSize pieces.
func Chunk(text string) []string {
	if utf8.RuneCountInString(text) <= MaxMessage {
		return []string{text}
	}
	r := []rune(text)
	var chunks []string
	for len(r) > 0 {
		n := min(ChunkSize, len(r))
		chunks = append(chunks, string(r[:n]))
		r = r[n:]
	}
	return chunks
}
