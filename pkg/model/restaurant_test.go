package model_test

import (
	"testing"

	"github.com/m-mizutani/dashbot/pkg/model"
	"github.com/m-mizutani/gt"
)

func TestRatingValue(t *testing.T) {
	testCases := []struct {
		rating   string
		expected float64
	}{
		{"4.8", 4.8},
		{"4", 4},
		{"N/A", 0},
		{"", 0},
		{" 3.5 ", 3.5},
	}

	for _, tc := range testCases {
		t.Run(tc.rating, func(t *testing.T) {
			r := &model.Restaurant{Rating: tc.rating}
			gt.V(t, r.RatingValue()).Equal(tc.expected)
		})
	}
}

func TestSystemNotice(t *testing.T) {
	notice := model.NewNoticeRestaurant("98105", "Could not fetch restaurant data.")
	gt.True(t, notice.IsSystemNotice())
	gt.V(t, notice.Address).Equal("Could not fetch restaurant data.")
	gt.V(t, notice.ZIPCode).Equal("98105")

	real := &model.Restaurant{Name: "Aladdin Gyro-cery", Categories: "Mediterranean"}
	gt.False(t, real.IsSystemNotice())
}

func TestSessionReset(t *testing.T) {
	session := model.NewSession()
	gt.V(t, session.Stage).Equal(model.StageName)

	session.Stage = model.StageCraving
	session.Name = "Pat"
	session.ZIPCode = "98105"
	session.LastCraving = "ramen"
	session.LastRestaurants = []*model.Restaurant{{Name: "Kizuki"}}

	session.Reset()
	gt.V(t, session.Stage).Equal(model.StageName)
	gt.V(t, session.Name).Equal("")
	gt.V(t, session.ZIPCode).Equal("")
	gt.V(t, session.LastCraving).Equal("")
	gt.V(t, len(session.LastRestaurants)).Equal(0)
}
