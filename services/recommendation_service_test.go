package services

import (
	"context"
	"testing"

	"github.com/eduoppbot/eduoppbot/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestRecommendColdStart(t *testing.T) {
	db := newTestDB(t)
	service := NewRecommendationService(db)
	user := createTestUser(t, db, "Amina")

	createTestOpportunity(t, db, "Oldest")
	createTestOpportunity(t, db, "Middle")
	createTestOpportunity(t, db, "Newest")
	createTestOpportunity(t, db, "Deleted", func(o *model.Opportunity) {
		o.Status = model.StatusDeleted
	})

	// No preference row: most recent active entries, newest first
	results, err := service.Recommend(context.Background(), user.ID, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Newest", results[0].Title)
	assert.Equal(t, "Middle", results[1].Title)
}

func TestRecommendAppliesPreferences(t *testing.T) {
	db := newTestDB(t)
	service := NewRecommendationService(db)
	user := createTestUser(t, db, "Amina")

	prefs := &model.UserPreferences{
		UserID:                user.ID,
		Interests:             datatypes.NewJSONSlice([]string{"stem", "engineering"}),
		FieldOfStudy:          "computer science",
		NotificationFrequency: model.FrequencyDaily,
	}
	require.NoError(t, db.Create(prefs).Error)

	createTestOpportunity(t, db, "STEM Scholarship", func(o *model.Opportunity) {
		o.Tags = datatypes.NewJSONSlice([]string{"stem"})
	})
	createTestOpportunity(t, db, "Arts Grant", func(o *model.Opportunity) {
		o.Tags = datatypes.NewJSONSlice([]string{"arts"})
	})
	createTestOpportunity(t, db, "Computer Science Bootcamp", func(o *model.Opportunity) {
		o.Tags = datatypes.NewJSONSlice([]string{"coding"})
	})
	createTestOpportunity(t, db, "Old STEM Award", func(o *model.Opportunity) {
		o.Tags = datatypes.NewJSONSlice([]string{"stem"})
		o.Status = model.StatusDeleted
	})

	results, err := service.Recommend(context.Background(), user.ID, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Field of study admits the bootcamp even without a tag match; the
	// arts grant matches neither route and the deleted award is excluded
	assert.Equal(t, "Computer Science Bootcamp", results[0].Title)
	assert.Equal(t, "STEM Scholarship", results[1].Title)
}

func TestRecommendHonorsLimit(t *testing.T) {
	db := newTestDB(t)
	service := NewRecommendationService(db)
	user := createTestUser(t, db, "Amina")

	prefs := &model.UserPreferences{
		UserID:                user.ID,
		Interests:             datatypes.NewJSONSlice([]string{"stem"}),
		NotificationFrequency: model.FrequencyDaily,
	}
	require.NoError(t, db.Create(prefs).Error)

	for i := 0; i < 5; i++ {
		createTestOpportunity(t, db, "STEM", func(o *model.Opportunity) {
			o.Tags = datatypes.NewJSONSlice([]string{"stem"})
		})
	}

	results, err := service.Recommend(context.Background(), user.ID, 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestMatchesPreferences(t *testing.T) {
	tests := []struct {
		name        string
		opportunity model.Opportunity
		prefs       model.UserPreferences
		want        bool
	}{
		{
			name:        "no preferences set matches everything",
			opportunity: model.Opportunity{Title: "Anything"},
			prefs:       model.UserPreferences{},
			want:        true,
		},
		{
			name: "tag overlap admits",
			opportunity: model.Opportunity{
				Tags: datatypes.NewJSONSlice([]string{"stem", "women"}),
			},
			prefs: model.UserPreferences{
				Interests: datatypes.NewJSONSlice([]string{"women"}),
			},
			want: true,
		},
		{
			name: "tags are matched exactly, not by substring",
			opportunity: model.Opportunity{
				Tags: datatypes.NewJSONSlice([]string{"stemcell"}),
			},
			prefs: model.UserPreferences{
				Interests: datatypes.NewJSONSlice([]string{"stem"}),
			},
			want: false,
		},
		{
			name: "field of study broadens past a tag miss",
			opportunity: model.Opportunity{
				Title: "Computer Science Fellowship",
				Tags:  datatypes.NewJSONSlice([]string{"fellowship"}),
			},
			prefs: model.UserPreferences{
				Interests:    datatypes.NewJSONSlice([]string{"stem"}),
				FieldOfStudy: "computer science",
			},
			want: true,
		},
		{
			name: "field of study matches description case-insensitively",
			opportunity: model.Opportunity{
				Title:       "Fellowship",
				Description: "Open to Computer Science students",
				Tags:        datatypes.NewJSONSlice([]string{"fellowship"}),
			},
			prefs: model.UserPreferences{
				Interests:    datatypes.NewJSONSlice([]string{"stem"}),
				FieldOfStudy: "computer science",
			},
			want: true,
		},
		{
			name: "no tag or field match rejects",
			opportunity: model.Opportunity{
				Title: "Arts Grant",
				Tags:  datatypes.NewJSONSlice([]string{"arts"}),
			},
			prefs: model.UserPreferences{
				Interests:    datatypes.NewJSONSlice([]string{"stem"}),
				FieldOfStudy: "computer science",
			},
			want: false,
		},
		{
			name: "location preference narrows",
			opportunity: model.Opportunity{
				Location: "Nairobi, Kenya",
			},
			prefs: model.UserPreferences{
				Location: "nairobi",
			},
			want: true,
		},
		{
			name: "location mismatch rejects despite tag overlap",
			opportunity: model.Opportunity{
				Location: "Lagos",
				Tags:     datatypes.NewJSONSlice([]string{"stem"}),
			},
			prefs: model.UserPreferences{
				Interests: datatypes.NewJSONSlice([]string{"stem"}),
				Location:  "Nairobi",
			},
			want: false,
		},
		{
			name:        "opportunity without location is excluded when location is set",
			opportunity: model.Opportunity{},
			prefs: model.UserPreferences{
				Location: "Nairobi",
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchesPreferences(&tt.opportunity, &tt.prefs)
			assert.Equal(t, tt.want, got)
		})
	}
}
