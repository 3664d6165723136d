package scopes

import "testing"

func TestGetScopesFromPermissions_Base(t *testing.T) {
	got := GetScopesFromPermissions(nil)
	for _, s := range BaseScopes {
		if !got.Has(s) {
			t.Errorf("expected base scope %s to be granted", s)
		}
	}
	if got.Has(ScopeEventWrite) || got.Has(ScopeProjectWrite) || got.Has(ScopeTeamWrite) {
		t.Error("no elevated scopes should be granted without permissions")
	}
}

func TestGetScopesFromPermissions_IssueTriage(t *testing.T) {
	got := GetScopesFromPermissions([]string{"issue_triage"})
	if !got.Has(ScopeEventWrite) {
		t.Error("expected event:write from issue_triage")
	}
	if got.Has(ScopeProjectWrite) {
		t.Error("issue_triage must not grant project:write")
	}
}

func TestGetScopesFromPermissions_ProjectManagement(t *testing.T) {
	got := GetScopesFromPermissions([]string{"project_management"})
	if !got.Has(ScopeProjectWrite) || !got.Has(ScopeTeamWrite) {
		t.Error("expected project:write and team:write from project_management")
	}
}

func TestGetScopesFromPermissions_Combined(t *testing.T) {
	got := GetScopesFromPermissions([]string{"issue_triage", "project_management"})
	want := NewSet(BaseScopes...)
	want.Add(ScopeEventWrite)
	want.Add(ScopeProjectWrite)
	want.Add(ScopeTeamWrite)

	for s := range want {
		if !got.Has(s) {
			t.Errorf("expected scope %s in combined grant", s)
		}
	}
	for s := range got {
		if !want.Has(s) {
			t.Errorf("unexpected extra scope %s in combined grant", s)
		}
	}
}

func TestGetScopesFromPermissions_UnknownDegradesToBase(t *testing.T) {
	got := GetScopesFromPermissions([]string{"not_a_real_permission"})
	want := NewSet(BaseScopes...)
	if len(got) != len(want) {
		t.Errorf("expected unknown permission to degrade to base set, got %v", got)
	}
}

func TestGetSkillsFromPermissions_Base(t *testing.T) {
	got := GetSkillsFromPermissions(nil)
	for _, s := range BaseSkills {
		if !got.Has(s) {
			t.Errorf("expected base skill %s to be granted", s)
		}
	}
	if got.Has(SkillTriage) || got.Has(SkillProjectManagement) {
		t.Error("no elevated skills should be granted without permissions")
	}
}

func TestGetSkillsFromPermissions_Elevated(t *testing.T) {
	got := GetSkillsFromPermissions([]string{"issue_triage", "project_management"})
	if !got.Has(SkillTriage) || !got.Has(SkillProjectManagement) {
		t.Error("expected both elevated skills granted")
	}
	if !got.Has(SkillInspect) {
		t.Error("base skills must remain granted alongside elevated ones")
	}
}

func TestSet_IsSubsetOf(t *testing.T) {
	a := NewSet(ScopeOrgRead, ScopeProjectRead)
	b := NewSet(ScopeOrgRead, ScopeProjectRead, ScopeEventWrite)
	if !a.IsSubsetOf(b) {
		t.Error("a should be a subset of b")
	}
	if b.IsSubsetOf(a) {
		t.Error("b should not be a subset of a")
	}
}

func TestSet_Intersects(t *testing.T) {
	a := NewSet(SkillInspect, SkillTriage)
	b := NewSet(SkillTriage, SkillDocs)
	c := NewSet(SkillSeer)

	if !a.Intersects(b) {
		t.Error("a and b should intersect on triage")
	}
	if a.Intersects(c) {
		t.Error("a and c should not intersect")
	}
}
