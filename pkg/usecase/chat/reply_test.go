package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/dashbot/pkg/model"
	"github.com/m-mizutani/dashbot/pkg/usecase/chat"
	"github.com/m-mizutani/dashbot/pkg/usecase/search"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

// mockGemini is a hand mock of adapter.Gemini
type mockGemini struct {
	generateFunc func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, contents, config)
	}
	return nil, errors.New("not implemented")
}

func (m *mockGemini) Embedding(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("not implemented")
}

func (m *mockGemini) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(text, genai.RoleModel)},
		},
	}
}

// mockSearcher records search inputs and returns a fixed result
type mockSearcher struct {
	results []*model.Restaurant
	inputs  []search.Input
}

func (m *mockSearcher) Search(ctx context.Context, input search.Input) []*model.Restaurant {
	m.inputs = append(m.inputs, input)
	return m.results
}

func threeRestaurants() []*model.Restaurant {
	return []*model.Restaurant{
		{Name: "Kizuki", Rating: "4.8", Address: "320 E Pine St", Categories: "Japanese"},
		{Name: "Ooink", Rating: "4.5", Address: "1416 Harvard Ave", Categories: "Ramen"},
		{Name: "Samurai Noodle", Rating: "4.2", Address: "606 5th Ave S", Categories: "Ramen"},
	}
}

// cravingSession returns a session that already passed the first three stages
func cravingSession() *model.Session {
	return &model.Session{
		Stage:        model.StageCraving,
		Name:         "Pat",
		ZIPCode:      "98105",
		Neighborhood: "Downtown",
	}
}

func newBot(gemini *mockGemini, searcher *mockSearcher) *chat.UseCase {
	return chat.New(gemini, searcher)
}

func TestNameStage(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"introduction phrase", "My name is Pat", "Pat"},
		{"bare name", "pat", "Pat"},
		{"non-alphabetic token", "My name is Pat99", "Friend"},
		{"empty after cleaning", "my name is", "Friend"},
		{"last token wins", "hello there sam", "Sam"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bot := newBot(&mockGemini{}, &mockSearcher{})
			session := model.NewSession()

			reply := bot.Reply(context.Background(), session, tc.input)
			gt.V(t, session.Name).Equal(tc.expected)
			gt.V(t, session.Stage).Equal(model.StageZIP)
			gt.S(t, reply).Contains(tc.expected)
		})
	}
}

func TestZIPStage(t *testing.T) {
	ctx := context.Background()

	t.Run("valid ZIP advances", func(t *testing.T) {
		bot := newBot(&mockGemini{}, &mockSearcher{})
		session := &model.Session{Stage: model.StageZIP, Name: "Pat"}

		reply := bot.Reply(ctx, session, "12345 downtown")
		gt.V(t, session.ZIPCode).Equal("12345")
		gt.V(t, session.Stage).Equal(model.StageNeighborhood)
		gt.S(t, reply).Contains("12345")
	})

	t.Run("help keywords without ZIP stay put", func(t *testing.T) {
		bot := newBot(&mockGemini{}, &mockSearcher{})
		session := &model.Session{Stage: model.StageZIP, Name: "Pat"}

		reply := bot.Reply(ctx, session, "I don't know")
		gt.V(t, session.Stage).Equal(model.StageZIP)
		gt.S(t, reply).Contains("what is my zip code")
	})

	t.Run("ZIP wins over help keyword", func(t *testing.T) {
		bot := newBot(&mockGemini{}, &mockSearcher{})
		session := &model.Session{Stage: model.StageZIP, Name: "Pat"}

		bot.Reply(ctx, session, "help, it should be 98105")
		gt.V(t, session.ZIPCode).Equal("98105")
		gt.V(t, session.Stage).Equal(model.StageNeighborhood)
	})

	t.Run("invalid input re-prompts", func(t *testing.T) {
		bot := newBot(&mockGemini{}, &mockSearcher{})
		session := &model.Session{Stage: model.StageZIP, Name: "Pat"}

		reply := bot.Reply(ctx, session, "somewhere in Seattle")
		gt.V(t, session.Stage).Equal(model.StageZIP)
		gt.S(t, reply).Contains("5-digit ZIP")
	})
}

func TestNeighborhoodStage(t *testing.T) {
	ctx := context.Background()

	t.Run("skip leaves neighborhood empty", func(t *testing.T) {
		bot := newBot(&mockGemini{}, &mockSearcher{})
		session := &model.Session{Stage: model.StageNeighborhood, Name: "Pat", ZIPCode: "98105"}

		bot.Reply(ctx, session, "skip")
		gt.V(t, session.Neighborhood).Equal("")
		gt.V(t, session.Stage).Equal(model.StageCraving)
	})

	t.Run("text is stored trimmed", func(t *testing.T) {
		bot := newBot(&mockGemini{}, &mockSearcher{})
		session := &model.Session{Stage: model.StageNeighborhood, Name: "Pat", ZIPCode: "98105"}

		bot.Reply(ctx, session, "  Capitol Hill  ")
		gt.V(t, session.Neighborhood).Equal("Capitol Hill")
		gt.V(t, session.Stage).Equal(model.StageCraving)
	})
}

func TestCravingSearch(t *testing.T) {
	ctx := context.Background()

	gemini := &mockGemini{
		generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gt.V(t, len(contents)).Equal(1)
			gt.NotNil(t, config.SystemInstruction)
			return textResponse("Kizuki is your best bet!"), nil
		},
	}
	searcher := &mockSearcher{results: threeRestaurants()}
	bot := newBot(gemini, searcher)
	session := cravingSession()

	reply := bot.Reply(ctx, session, "spicy ramen")

	gt.V(t, session.LastCraving).Equal("spicy ramen")
	gt.V(t, len(session.LastRestaurants)).Equal(3)
	gt.V(t, len(searcher.inputs)).Equal(1)
	gt.V(t, searcher.inputs[0].Craving).Equal("spicy ramen")
	gt.V(t, searcher.inputs[0].ZIPCode).Equal("98105")
	gt.V(t, searcher.inputs[0].Neighborhood).Equal("Downtown")
	gt.S(t, reply).Contains("Kizuki is your best bet!")
	gt.S(t, reply).Contains("DoorDash")
}

func TestCravingSelection(t *testing.T) {
	ctx := context.Background()

	t.Run("second one", func(t *testing.T) {
		bot := newBot(&mockGemini{}, &mockSearcher{})
		session := cravingSession()
		session.LastRestaurants = threeRestaurants()

		reply := bot.Reply(ctx, session, "the second one sounds good")
		gt.S(t, reply).Contains("Ooink")
		gt.S(t, reply).Contains("1416 Harvard Ave")
		gt.V(t, session.Stage).Equal(model.StageCraving)
	})

	t.Run("ambiguous selection defaults to first", func(t *testing.T) {
		bot := newBot(&mockGemini{}, &mockSearcher{})
		session := cravingSession()
		session.LastRestaurants = threeRestaurants()

		reply := bot.Reply(ctx, session, "sounds good")
		gt.S(t, reply).Contains("Kizuki")
	})

	t.Run("no prior results asks instead of failing", func(t *testing.T) {
		bot := newBot(&mockGemini{}, &mockSearcher{})
		session := cravingSession()

		reply := bot.Reply(ctx, session, "the first one")
		gt.S(t, reply).Contains("What kind of food")
	})
}

func TestCravingMore(t *testing.T) {
	ctx := context.Background()

	t.Run("re-search excludes shown names", func(t *testing.T) {
		searcher := &mockSearcher{results: threeRestaurants()}
		gemini := &mockGemini{
			generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return textResponse("Here are more options!"), nil
			},
		}
		bot := newBot(gemini, searcher)
		session := cravingSession()
		session.LastCraving = "ramen"
		session.LastRestaurants = []*model.Restaurant{{Name: "Old A"}, {Name: "Old B"}}

		bot.Reply(ctx, session, "show me more")
		gt.V(t, len(searcher.inputs)).Equal(1)
		gt.V(t, searcher.inputs[0].Craving).Equal("ramen")
		gt.V(t, searcher.inputs[0].Exclude).Equal([]string{"Old A", "Old B"})
		gt.V(t, len(session.LastRestaurants)).Equal(3)
	})

	t.Run("no prior search asks for a craving", func(t *testing.T) {
		searcher := &mockSearcher{}
		bot := newBot(&mockGemini{}, searcher)
		session := cravingSession()

		reply := bot.Reply(ctx, session, "another one please")
		gt.S(t, reply).Contains("What kind of food")
		gt.V(t, len(searcher.inputs)).Equal(0)
	})
}

func TestCravingLocationChanges(t *testing.T) {
	ctx := context.Background()

	t.Run("moved intent returns to ZIP stage", func(t *testing.T) {
		bot := newBot(&mockGemini{}, &mockSearcher{})
		session := cravingSession()

		reply := bot.Reply(ctx, session, "I just moved here")
		gt.V(t, session.Stage).Equal(model.StageZIP)
		gt.S(t, reply).Contains("new ZIP")
	})

	t.Run("new ZIP updates in place", func(t *testing.T) {
		searcher := &mockSearcher{}
		bot := newBot(&mockGemini{}, searcher)
		session := cravingSession()

		reply := bot.Reply(ctx, session, "actually 98122")
		gt.V(t, session.ZIPCode).Equal("98122")
		gt.V(t, session.Stage).Equal(model.StageCraving)
		gt.S(t, reply).Contains("98122")
		gt.V(t, len(searcher.inputs)).Equal(0)
	})

	t.Run("same ZIP is treated as a craving", func(t *testing.T) {
		searcher := &mockSearcher{}
		gemini := &mockGemini{
			generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return textResponse("ok"), nil
			},
		}
		bot := newBot(gemini, searcher)
		session := cravingSession()

		bot.Reply(ctx, session, "98105")
		gt.V(t, len(searcher.inputs)).Equal(1)
	})
}

func TestCravingOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("with prior results", func(t *testing.T) {
		bot := newBot(&mockGemini{}, &mockSearcher{})
		session := cravingSession()
		session.LastRestaurants = threeRestaurants()

		reply := bot.Reply(ctx, session, "show me the menu")
		gt.S(t, reply).Contains("Kizuki")
		gt.S(t, reply).Contains("DoorDash")
	})

	t.Run("without prior results", func(t *testing.T) {
		bot := newBot(&mockGemini{}, &mockSearcher{})
		session := cravingSession()

		reply := bot.Reply(ctx, session, "I want to order")
		gt.S(t, reply).Contains("craving first")
	})
}

func TestCravingTone(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"frustrated", "this is so frustrating, I'm really upset", "sorry you're feeling frustrated"},
		{"grateful", "ok thanks!", "glad I could help"},
		{"goodbye", "bye for now", "Take care"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			searcher := &mockSearcher{}
			bot := newBot(&mockGemini{}, searcher)
			session := cravingSession()

			reply := bot.Reply(ctx, session, tc.input)
			gt.S(t, reply).Contains(tc.expected)
			// tone short-circuits: no search, no LLM call
			gt.V(t, len(searcher.inputs)).Equal(0)
		})
	}

	t.Run("grateful words only match on word boundaries", func(t *testing.T) {
		searcher := &mockSearcher{results: threeRestaurants()}
		gemini := &mockGemini{
			generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return textResponse("ok"), nil
			},
		}
		bot := newBot(gemini, searcher)
		session := cravingSession()

		bot.Reply(ctx, session, "love italian")
		gt.V(t, len(searcher.inputs)).Equal(1)
	})
}

func TestComposeFallbacks(t *testing.T) {
	ctx := context.Background()

	t.Run("LLM failure falls back to listing", func(t *testing.T) {
		gemini := &mockGemini{
			generateFunc: func(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return nil, errors.New("quota exceeded")
			},
		}
		bot := newBot(gemini, &mockSearcher{results: threeRestaurants()})
		session := cravingSession()

		reply := bot.Reply(ctx, session, "ramen")
		gt.S(t, reply).Contains("Kizuki")
		gt.S(t, reply).Contains("Ooink")
		gt.S(t, reply).Contains("Samurai Noodle")
		gt.S(t, reply).Contains("320 E Pine St")
		gt.S(t, reply).Contains("DoorDash")
	})

	t.Run("system notice surfaces its message", func(t *testing.T) {
		notice := []*model.Restaurant{
			{Name: "🍔 Uh oh!", Categories: "System Notice", Rating: "N/A",
				Address: "Could not fetch restaurant data. Please try again or check your ZIP code.",
				ZIPCode: "98105"},
		}
		bot := newBot(&mockGemini{}, &mockSearcher{results: notice})
		session := cravingSession()

		reply := bot.Reply(ctx, session, "ramen")
		gt.V(t, reply).Equal("Could not fetch restaurant data. Please try again or check your ZIP code.")
	})

	t.Run("empty result apologizes with craving and ZIP", func(t *testing.T) {
		bot := newBot(&mockGemini{}, &mockSearcher{})
		session := cravingSession()

		reply := bot.Reply(ctx, session, "unicorn steaks")
		gt.S(t, reply).Contains("couldn't find any")
		gt.S(t, reply).Contains("unicorn steaks")
		gt.S(t, reply).Contains("98105")
	})
}
