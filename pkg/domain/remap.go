package domain

// QuestionIDMap pairs the ids questions carried before a save with the ids the
// record store assigned, position by position. Empty and unchanged ids are left
// out, and a repeated id maps to the first question that carried it.
func QuestionIDMap(questions []Question, assigned []string) map[string]string {
	ids := make(map[string]string)
	if len(questions) != len(assigned) {
		return ids
	}
	for i, q := range questions {
		if q.ID == "" || q.ID == assigned[i] {
			continue
		}
		if _, seen := ids[q.ID]; seen {
			continue
		}
		ids[q.ID] = assigned[i]
	}
	return ids
}

// RemapQuestionRefs returns q with its display conditions and skip rule
// targets renamed through ids, and reports whether anything changed.
// The config of q is copied, never modified in place.
func (q Question) RemapQuestionRefs(ids map[string]string) (Question, bool) {
	if q.Config == nil || len(ids) == 0 {
		return q, false
	}
	cfg := *q.Config
	changed := false

	if dl := cfg.DisplayLogic; dl != nil && len(dl.Conditions) > 0 {
		conds := append([]DisplayCondition(nil), dl.Conditions...)
		renamed := false
		for i := range conds {
			if to, ok := ids[conds[i].QuestionID]; ok {
				conds[i].QuestionID = to
				renamed = true
			}
		}
		if renamed {
			cfg.DisplayLogic = &DisplayLogic{Enabled: dl.Enabled, Conditions: conds}
			changed = true
		}
	}

	if sl := cfg.SkipLogic; sl != nil && len(sl.Rules) > 0 {
		rules := append([]SkipRule(nil), sl.Rules...)
		renamed := false
		for i := range rules {
			if to, ok := ids[rules[i].TargetQuestionID]; ok {
				rules[i].TargetQuestionID = to
				renamed = true
			}
		}
		if renamed {
			cfg.SkipLogic = &QuestionSkipLogic{Enabled: sl.Enabled, Rules: rules}
			changed = true
		}
	}

	if !changed {
		return q, false
	}
	q.Config = &cfg
	return q, true
}

// RemapSectionSkipTarget returns a copy of l pointing at the renamed question,
// or nil when l does not reference a question in ids.
func RemapSectionSkipTarget(l *SectionSkipLogic, ids map[string]string) *SectionSkipLogic {
	if l == nil || l.TargetQuestionID == "" {
		return nil
	}
	to, ok := ids[l.TargetQuestionID]
	if !ok {
		return nil
	}
	out := *l
	out.TargetQuestionID = to
	return &out
}

// RemapQuestionRefs renames every question reference in sections through ids.
func RemapQuestionRefs(sections []Section, ids map[string]string) {
	if len(ids) == 0 {
		return
	}
	for i := range sections {
		if l := RemapSectionSkipTarget(sections[i].SkipLogic, ids); l != nil {
			sections[i].SkipLogic = l
		}
		for j := range sections[i].Questions {
			if q, ok := sections[i].Questions[j].RemapQuestionRefs(ids); ok {
				sections[i].Questions[j] = q
			}
		}
	}
}
