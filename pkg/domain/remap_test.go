package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionIDMap(t *testing.T) {
	questions := []Question{{ID: "q-1"}, {ID: "q-1"}, {ID: ""}, {ID: "same"}, {ID: "temp_x"}}
	ids := QuestionIDMap(questions, []string{"n1", "n2", "n3", "same", "n5"})

	assert.Equal(t, map[string]string{"q-1": "n1", "temp_x": "n5"}, ids)
	assert.Empty(t, QuestionIDMap(questions, []string{"short"}))
}

func TestQuestion_RemapQuestionRefs(t *testing.T) {
	original := Question{
		ID: "q2",
		Config: &QuestionConfig{
			DisplayLogic: &DisplayLogic{Enabled: true, Conditions: []DisplayCondition{
				{QuestionID: "q1", Operator: "equals", Value: "si"},
				{QuestionID: "other", Operator: "equals", Value: "no"},
			}},
			SkipLogic: &QuestionSkipLogic{Enabled: true, Rules: []SkipRule{
				{Condition: "equals", Value: "si", TargetQuestionID: "q1"},
			}},
		},
	}

	remapped, changed := original.RemapQuestionRefs(map[string]string{"q1": "n1"})
	require.True(t, changed)
	assert.Equal(t, "n1", remapped.Config.DisplayLogic.Conditions[0].QuestionID)
	assert.Equal(t, "other", remapped.Config.DisplayLogic.Conditions[1].QuestionID)
	assert.Equal(t, "n1", remapped.Config.SkipLogic.Rules[0].TargetQuestionID)

	assert.Equal(t, "q1", original.Config.DisplayLogic.Conditions[0].QuestionID, "original config must not change")
	assert.Equal(t, "q1", original.Config.SkipLogic.Rules[0].TargetQuestionID)

	_, changed = original.RemapQuestionRefs(map[string]string{"unrelated": "n9"})
	assert.False(t, changed)
	_, changed = Question{ID: "bare"}.RemapQuestionRefs(map[string]string{"q1": "n1"})
	assert.False(t, changed)
}

func TestRemapQuestionRefs_Sections(t *testing.T) {
	sections := []Section{
		{ID: "s1", SkipLogic: &SectionSkipLogic{Enabled: true, Action: SkipSpecificQuestion, TargetQuestionID: "q1"}},
		{ID: "s2", Questions: []Question{{ID: "q3", Config: &QuestionConfig{
			DisplayLogic: &DisplayLogic{Enabled: true, Conditions: []DisplayCondition{{QuestionID: "q1"}}},
		}}}},
	}

	RemapQuestionRefs(sections, map[string]string{"q1": "n1"})

	assert.Equal(t, "n1", sections[0].SkipLogic.TargetQuestionID)
	assert.Equal(t, "n1", sections[1].Questions[0].Config.DisplayLogic.Conditions[0].QuestionID)
	assert.Nil(t, RemapSectionSkipTarget(sections[0].SkipLogic, map[string]string{"x": "y"}))
}
