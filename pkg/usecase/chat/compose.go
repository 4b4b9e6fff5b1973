package chat

import (
	"bytes"
	"context"
	_ "embed"
	"strconv"
	"strings"
	"text/template"

	"github.com/m-mizutani/dashbot/pkg/model"
	"github.com/m-mizutani/dashbot/pkg/utils/logging"
	"google.golang.org/genai"
)

//go:embed prompt/recommend.md
var recommendPromptRaw string

var recommendPromptTmpl = template.Must(template.New("recommend").Funcs(template.FuncMap{
	"add": func(a, b int) int { return a + b },
}).Parse(recommendPromptRaw))

// promoSuffix closes every recommendation reply
const promoSuffix = "\n\n💡 *You can find these easily on DoorDash!*"

// compose turns a search result into the reply text. The grounded LLM call is
// the primary path; any failure falls back to a deterministic listing so the
// user always gets a usable answer.
func (uc *UseCase) compose(ctx context.Context, userText string, restaurants []*model.Restaurant, session *model.Session) string {
	logger := logging.From(ctx)

	craving := session.LastCraving
	if craving == "" {
		craving = "food"
	}

	if len(restaurants) == 0 {
		return "Looks like I couldn't find any " + craving + " spots around " +
			session.ZIPCode + " 😅 Maybe try another ZIP or craving?"
	}

	if restaurants[0].IsSystemNotice() {
		return restaurants[0].Address
	}

	var prompt bytes.Buffer
	if err := recommendPromptTmpl.Execute(&prompt, map[string]any{
		"Name":        session.Name,
		"ZIPCode":     session.ZIPCode,
		"Craving":     craving,
		"Restaurants": restaurants,
	}); err != nil {
		logger.Error("failed to render recommendation prompt", "error", err)
		return fallbackListing(restaurants, session, craving)
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.String(), ""),
		Temperature:       genai.Ptr[float32](0.1),
		TopP:              genai.Ptr[float32](0.9),
		MaxOutputTokens:   400,
	}
	contents := []*genai.Content{
		genai.NewContentFromText(userText, genai.RoleUser),
	}

	resp, err := uc.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		logger.Error("LLM call failed, falling back to listing", "error", err)
		return fallbackListing(restaurants, session, craving)
	}

	reply := strings.TrimSpace(resp.Text())
	if reply == "" {
		logger.Warn("LLM returned empty reply, falling back to listing")
		return fallbackListing(restaurants, session, craving)
	}

	return reply + promoSuffix
}

// fallbackListing enumerates the same restaurants without the LLM
func fallbackListing(restaurants []*model.Restaurant, session *model.Session, craving string) string {
	var b strings.Builder
	b.WriteString("Here are " + strconv.Itoa(len(restaurants)) + " " + craving +
		" spots, " + session.Name + "! 😋\n\n")
	for i, r := range restaurants {
		b.WriteString(strconv.Itoa(i+1) + ". **" + r.Name + "** (" + r.Categories + ") ⭐ " + r.Rating + "\n")
		b.WriteString("   📍 " + r.Address + "\n\n")
	}
	b.WriteString("Which one sounds best? 🍽️✨")
	b.WriteString(promoSuffix)
	return b.String()
}
