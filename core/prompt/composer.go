package prompt

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"musewave/logger"
)

// Suggester refines an instruction into a generation prompt. Implemented by
// the suggest client; any error makes the composer fall back to its heuristic.
type Suggester interface {
	Suggest(ctx context.Context, instruction string) (string, error)
}

// SuggestionMemory reports whether a suggestion is fresh within a scope.
type SuggestionMemory interface {
	Remember(ctx context.Context, scope, suggestion string) (bool, error)
}

// Context carries the user-supplied creative fields of one request.
type Context struct {
	UserPrompt        string
	Genres            []string
	ArtistInspiration string
	Description       string
}

// Composer builds the final generation prompt for the audio model. The text
// provider is optional sugar: the heuristic path must always produce a
// non-empty prompt on its own.
type Composer struct {
	suggester Suggester
	memory    SuggestionMemory
}

// NewComposer creates a composer. Both collaborators may be nil.
func NewComposer(suggester Suggester, memory SuggestionMemory) *Composer {
	return &Composer{suggester: suggester, memory: memory}
}

const maxPromptGenres = 5

// ComposeAutoPrompt builds the deterministic heuristic prompt from contextual
// fields. Guaranteed non-empty even with an empty context.
func (c *Composer) ComposeAutoPrompt(pc Context) string {
	parts := make([]string, 0, 4)

	if genres := nonEmpty(pc.Genres); len(genres) > 0 {
		if len(genres) > maxPromptGenres {
			genres = genres[:maxPromptGenres]
		}
		parts = append(parts, fmt.Sprintf("A blend of %s", strings.Join(genres, ", ")))
	}
	if artist := strings.TrimSpace(pc.ArtistInspiration); artist != "" {
		parts = append(parts, fmt.Sprintf("Inspired by: %s", artist))
	}
	if desc := strings.TrimSpace(pc.Description); desc != "" {
		parts = append(parts, desc)
	}
	if len(parts) == 0 {
		parts = append(parts, "An original instrumental piece with a memorable melody and evolving texture")
	}

	parts = append(parts, "Studio-quality production, clean mix and master")
	return strings.Join(parts, ". ")
}

// SuggestPrompt asks the text provider to refine the request into a prompt.
// Every failure mode (no provider, transport error, rejected, exhausted
// retries, stale repeat) degrades silently to the heuristic prompt; this call
// never fails the pipeline.
func (c *Composer) SuggestPrompt(ctx context.Context, pc Context, entropyToken string) string {
	heuristic := c.ComposeAutoPrompt(pc)
	if c.suggester == nil {
		return heuristic
	}

	instruction := c.buildInstruction(pc, heuristic, entropyToken)
	suggestion, err := c.suggester.Suggest(ctx, instruction)
	if err != nil {
		logger.Warn("Prompt suggestion failed, using heuristic prompt",
			logger.String("entropy", entropyToken),
			logger.ErrorField(err))
		return heuristic
	}

	suggestion = strings.TrimSpace(suggestion)
	if suggestion == "" {
		logger.Warn("Prompt suggestion empty, using heuristic prompt",
			logger.String("entropy", entropyToken))
		return heuristic
	}

	if c.memory != nil {
		fresh, err := c.memory.Remember(ctx, "music_prompt", suggestion)
		if err != nil {
			logger.Warn("Suggestion memory unavailable, accepting suggestion",
				logger.ErrorField(err))
		} else if !fresh {
			logger.Warn("Prompt suggestion repeated recently, using heuristic prompt",
				logger.String("entropy", entropyToken))
			return heuristic
		}
	}

	return suggestion
}

func (c *Composer) buildInstruction(pc Context, heuristic, entropyToken string) string {
	var b strings.Builder
	if user := strings.TrimSpace(pc.UserPrompt); user != "" {
		fmt.Fprintf(&b, "User request: %s\n", user)
	}
	fmt.Fprintf(&b, "Base direction: %s\n", heuristic)
	if genres := nonEmpty(pc.Genres); len(genres) > 0 {
		fmt.Fprintf(&b, "Genres: %s\n", strings.Join(genres, ", "))
	}
	fmt.Fprintf(&b, "Uniqueness seed: %s\n", entropyToken)
	return b.String()
}

// BuildFinalPrompt appends a delimited entropy block so that two calls with
// the same base prompt but different tokens always differ textually.
func (c *Composer) BuildFinalPrompt(basePrompt, entropyToken string) string {
	base := strings.TrimSpace(basePrompt)
	return fmt.Sprintf("%s\n--- variation ---\nCreative variation seed: %s\nMusical variation timestamp: %s\nRandomization factor: %f",
		base,
		entropyToken,
		time.Now().UTC().Format(time.RFC3339Nano),
		rand.Float64(),
	)
}

// Compose runs the full composition for one request: user prompt verbatim when
// present, otherwise heuristic optionally refined by the provider, then the
// entropy suffix.
func (c *Composer) Compose(ctx context.Context, pc Context, entropyToken string) string {
	base := strings.TrimSpace(pc.UserPrompt)
	if base == "" {
		base = c.SuggestPrompt(ctx, pc, entropyToken)
	}
	return c.BuildFinalPrompt(base, entropyToken)
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, strings.TrimSpace(v))
		}
	}
	return out
}
