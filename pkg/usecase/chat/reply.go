package chat

import (
	"context"
	"strings"
	"unicode"

	"github.com/m-mizutani/dashbot/pkg/adapter"
	"github.com/m-mizutani/dashbot/pkg/model"
	"github.com/m-mizutani/dashbot/pkg/usecase/search"
)

// defaultName is used when no alphabetic name token can be extracted
const defaultName = "Friend"

// Searcher runs the restaurant search pipeline
type Searcher interface {
	Search(ctx context.Context, input search.Input) []*model.Restaurant
}

// UseCase drives the staged dialogue: name → zip → neighborhood → craving.
// One Reply call handles one user turn and mutates the session in place.
type UseCase struct {
	gemini   adapter.Gemini
	searcher Searcher
	rules    *classifier
}

type Option func(*UseCase)

// WithRules replaces the default tone/intent keyword tables
func WithRules(rules *Rules) Option {
	return func(uc *UseCase) {
		uc.rules = newClassifier(rules)
	}
}

func New(gemini adapter.Gemini, searcher Searcher, opts ...Option) *UseCase {
	uc := &UseCase{
		gemini:   gemini,
		searcher: searcher,
		rules:    newClassifier(DefaultRules()),
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Reply processes one user message and returns the bot reply. It never
// fails: every degradation becomes user-facing text.
func (uc *UseCase) Reply(ctx context.Context, session *model.Session, input string) string {
	switch session.Stage {
	case model.StageName:
		return uc.replyName(session, input)
	case model.StageZIP:
		return uc.replyZIP(session, input)
	case model.StageNeighborhood:
		return uc.replyNeighborhood(session, input)
	case model.StageCraving:
		return uc.replyCraving(ctx, session, input)
	}

	return "I'm here to help you find delicious food! 🍜"
}

func (uc *UseCase) replyName(session *model.Session, input string) string {
	session.Name = extractName(input)
	session.Stage = model.StageZIP
	return "Nice to meet you, " + session.Name + "! 🥰 What's your ZIP code?"
}

func (uc *UseCase) replyZIP(session *model.Session, input string) string {
	// A message carrying a valid ZIP advances even if it also mentions help
	if zip := model.ExtractZIP(input); zip != "" {
		session.ZIPCode = zip
		session.Stage = model.StageNeighborhood
		return "Perfect! ZIP " + zip + " 📍\n\n" +
			"What neighborhood are you in? (e.g., Downtown, Capitol Hill)\nOr type 'skip' for the whole area!"
	}

	if uc.rules.help.match(input) {
		return "No worries! 💌 Here's how to find it:\n" +
			"🔍 Google 'what is my zip code'\n📱 Or visit: https://www.zip-codes.com/search.asp\n\n" +
			"Then tell me your 5-digit ZIP!"
	}

	return "Hmm, that doesn't look valid 🤔 Try entering a 5-digit ZIP (like 98105)."
}

func (uc *UseCase) replyNeighborhood(session *model.Session, input string) string {
	if strings.Contains(strings.ToLower(input), "skip") {
		session.Neighborhood = ""
		session.Stage = model.StageCraving
		return "No problem! I'll look all around " + session.ZIPCode + " 🍽️ What are you craving?"
	}

	session.Neighborhood = strings.TrimSpace(input)
	session.Stage = model.StageCraving
	return "Awesome! Searching near " + session.Neighborhood + " 🎯 What are you craving?"
}

func (uc *UseCase) replyCraving(ctx context.Context, session *model.Session, input string) string {
	// Tone first: frustrated/grateful turns skip search and LLM entirely
	switch uc.rules.detectTone(input) {
	case toneFrustrated:
		return "I'm really sorry you're feeling frustrated, " + session.Name + " 😔 " +
			"Let's fix this! Maybe tell me exactly what kind of food you're craving or your nearby street name? ❤️"
	case toneGrateful:
		return "Aww, thank you " + session.Name + "! 💖 I'm so glad I could help. " +
			"Enjoy your meal and see you soon 🍜✨"
	case toneGoodbye:
		return "Take care, " + session.Name + "! 👋 Come back whenever you're hungry 🍜✨"
	}

	if uc.rules.moved.match(input) {
		session.Stage = model.StageZIP
		return "No worries! Let's update your location 🏡 What's your new ZIP code?"
	}

	if zip := model.ExtractZIP(input); zip != "" && zip != session.ZIPCode {
		session.ZIPCode = zip
		return "Got it! Switched to ZIP " + zip + " 📍 What are you craving?"
	}

	if uc.rules.more.match(input) {
		return uc.replyMore(ctx, session)
	}

	if uc.rules.selection.match(input) {
		return uc.replySelection(session, input)
	}

	if uc.rules.order.match(input) {
		if len(session.LastRestaurants) == 0 {
			return "Tell me what you're craving first 😄"
		}
		top := session.LastRestaurants[0]
		return "Ready to order from **" + top.Name + "**? 🍽️\n\nSearch '" + top.Name + "' on the DoorDash app!"
	}

	// Anything else is a new craving
	session.LastCraving = input
	restaurants := uc.searcher.Search(ctx, search.Input{
		Craving:      input,
		ZIPCode:      session.ZIPCode,
		Neighborhood: session.Neighborhood,
	})
	session.LastRestaurants = restaurants

	return uc.compose(ctx, input, restaurants, session)
}

func (uc *UseCase) replyMore(ctx context.Context, session *model.Session) string {
	if session.LastCraving == "" || len(session.LastRestaurants) == 0 {
		return "Sure! What kind of food are you in the mood for? 😊"
	}

	exclude := make([]string, 0, len(session.LastRestaurants))
	for _, r := range session.LastRestaurants {
		exclude = append(exclude, r.Name)
	}

	restaurants := uc.searcher.Search(ctx, search.Input{
		Craving:      session.LastCraving,
		ZIPCode:      session.ZIPCode,
		Neighborhood: session.Neighborhood,
		Exclude:      exclude,
	})
	session.LastRestaurants = restaurants

	return uc.compose(ctx, session.LastCraving, restaurants, session)
}

// ordinals maps selection words to a position in the last shown list
var ordinals = []struct {
	words []string
	index int
}{
	{[]string{"first", "1"}, 0},
	{[]string{"second", "2"}, 1},
	{[]string{"third", "3"}, 2},
}

func (uc *UseCase) replySelection(session *model.Session, input string) string {
	if len(session.LastRestaurants) == 0 {
		return "Sure! What kind of food are you in the mood for? 😊"
	}

	// Ambiguous selections ("sounds good") default to the first entry
	chosen := session.LastRestaurants[0]
	for _, ord := range ordinals {
		if ord.index < len(session.LastRestaurants) && newMatcher(ord.words).match(input) {
			chosen = session.LastRestaurants[ord.index]
			break
		}
	}

	return "Yay, " + session.Name + "! 🎉 Great choice — **" + chosen.Name + "** is a local favorite!\n\n" +
		"📍 " + chosen.Address + "\n\n" +
		"Search for '" + chosen.Name + "' on the DoorDash app to order! 🍕✨"
}

// extractName pulls a name out of a self-introduction: strip lead-in phrases,
// take the last whitespace token, capitalize. Non-alphabetic tokens fall back
// to a placeholder.
func extractName(input string) string {
	cleaned := strings.ToLower(input)
	for _, phrase := range []string{"my name is", "i am", "i'm", "call me"} {
		cleaned = strings.ReplaceAll(cleaned, phrase, "")
	}

	fields := strings.Fields(cleaned)
	if len(fields) == 0 {
		return defaultName
	}

	name := []rune(fields[len(fields)-1])
	for _, r := range name {
		if !unicode.IsLetter(r) {
			return defaultName
		}
	}

	name[0] = unicode.ToUpper(name[0])
	return string(name)
}
