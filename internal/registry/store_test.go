package registry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "registry.db"), nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newSkill(name string) *Skill {
	return &Skill{
		ID:          "id-" + name,
		Name:        name,
		SourceType:  SourceLocal,
		SourceRef:   "/src/" + name,
		CentralPath: "/central/" + name,
	}
}

func mustCreate(t *testing.T, s *Store, names ...string) []string {
	t.Helper()
	var ids []string
	for _, n := range names {
		sk := newSkill(n)
		if err := s.CreateSkill(context.Background(), sk); err != nil {
			t.Fatalf("CreateSkill(%s) error = %v", n, err)
		}
		ids = append(ids, sk.ID)
	}
	return ids
}

func sortOrders(t *testing.T, s *Store) []string {
	t.Helper()
	skills, err := s.ListSkills(context.Background())
	if err != nil {
		t.Fatalf("ListSkills() error = %v", err)
	}
	var ids []string
	for i, sk := range skills {
		if sk.SortOrder != i {
			t.Errorf("skill %s sort_order = %d, want %d (dense)", sk.ID, sk.SortOrder, i)
		}
		ids = append(ids, sk.ID)
	}
	return ids
}

func TestCreateSkill_AssignsSortOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i, name := range []string{"a", "b", "c"} {
		sk := newSkill(name)
		if err := s.CreateSkill(ctx, sk); err != nil {
			t.Fatalf("CreateSkill() error = %v", err)
		}
		if sk.SortOrder != i {
			t.Errorf("SortOrder = %d, want %d", sk.SortOrder, i)
		}
	}

	got, err := s.GetSkill(ctx, "id-b")
	if err != nil {
		t.Fatalf("GetSkill() error = %v", err)
	}
	if got.Name != "b" || got.SourceType != SourceLocal || got.CentralPath != "/central/b" {
		t.Errorf("GetSkill() = %+v", got)
	}
}

func TestCreateSkill_UniqueConstraints(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, "writer")

	dupName := newSkill("Writer")
	dupName.ID = "other"
	dupName.CentralPath = "/central/other"
	if err := s.CreateSkill(ctx, dupName); err == nil {
		t.Error("CreateSkill() with case-different duplicate name should fail")
	}

	dupPath := newSkill("reader")
	dupPath.CentralPath = "/central/writer"
	if err := s.CreateSkill(ctx, dupPath); err == nil {
		t.Error("CreateSkill() sharing a central_path should fail")
	}
}

func TestFindSkillByName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, "My-Skill")

	sk, err := s.FindSkillByName(ctx, "my-skill")
	if err != nil {
		t.Fatalf("FindSkillByName() error = %v", err)
	}
	if sk.Name != "My-Skill" {
		t.Errorf("Name = %q, want %q", sk.Name, "My-Skill")
	}

	_, err = s.FindSkillByName(ctx, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("FindSkillByName(missing) error = %v, want ErrNotFound", err)
	}
}

func TestUpdateSkill(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	mustCreate(t, s, "a", "b")

	sk, _ := s.GetSkill(ctx, "id-b")
	sk.SourceType = SourceGit
	sk.SourceRef = "https://github.com/o/r"
	sk.ContentHash = "abc"
	sk.SortOrder = 99 // ignored
	if err := s.UpdateSkill(ctx, sk); err != nil {
		t.Fatalf("UpdateSkill() error = %v", err)
	}

	got, _ := s.GetSkill(ctx, "id-b")
	if got.SourceType != SourceGit || got.ContentHash != "abc" {
		t.Errorf("UpdateSkill() not persisted: %+v", got)
	}
	if got.SortOrder != 1 {
		t.Errorf("SortOrder = %d, want 1 (unchanged)", got.SortOrder)
	}

	missing := newSkill("ghost")
	if err := s.UpdateSkill(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateSkill(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMergeOrder(t *testing.T) {
	tests := []struct {
		name      string
		current   []string
		requested []string
		want      []string
	}{
		{"full permutation", []string{"a", "b", "c"}, []string{"c", "a", "b"}, []string{"c", "a", "b"}},
		{"omitted appended in order", []string{"a", "b", "c", "d"}, []string{"d", "b"}, []string{"d", "b", "a", "c"}},
		{"empty request keeps order", []string{"a", "b"}, nil, []string{"a", "b"}},
		{"unknown ids ignored", []string{"a", "b"}, []string{"x", "b"}, []string{"b", "a"}},
		{"duplicates ignored", []string{"a", "b"}, []string{"b", "b", "a"}, []string{"b", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeOrder(tt.current, tt.requested)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MergeOrder() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReorderSkills(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ids := mustCreate(t, s, "a", "b", "c", "d", "e")

	if err := s.ReorderSkills(ctx, []string{ids[4], ids[2]}); err != nil {
		t.Fatalf("ReorderSkills() error = %v", err)
	}
	got := sortOrders(t, s)
	want := []string{ids[4], ids[2], ids[0], ids[1], ids[3]}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestDeleteSkill_CascadesAndRenumbers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ids := mustCreate(t, s, "a", "b", "c")

	for _, tool := range []string{"cursor", "codex"} {
		if err := s.UpsertTarget(ctx, &SyncTarget{SkillID: ids[1], ToolID: tool, Mode: ModeLink, TargetPath: "/t/" + tool}); err != nil {
			t.Fatalf("UpsertTarget() error = %v", err)
		}
	}

	if err := s.DeleteSkill(ctx, ids[1]); err != nil {
		t.Fatalf("DeleteSkill() error = %v", err)
	}

	targets, err := s.ListTargets(ctx, ids[1])
	if err != nil {
		t.Fatalf("ListTargets() error = %v", err)
	}
	if len(targets) != 0 {
		t.Errorf("targets after delete = %d, want 0", len(targets))
	}
	got := sortOrders(t, s)
	if !reflect.DeepEqual(got, []string{ids[0], ids[2]}) {
		t.Errorf("order after delete = %v", got)
	}

	if err := s.DeleteSkill(ctx, ids[1]); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteSkill() error = %v, want ErrNotFound", err)
	}
}

func TestTargets(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ids := mustCreate(t, s, "a")

	target := &SyncTarget{SkillID: ids[0], ToolID: "cursor", Mode: ModeLink, TargetPath: "/x"}
	if err := s.UpsertTarget(ctx, target); err != nil {
		t.Fatalf("UpsertTarget() error = %v", err)
	}
	target.Mode = ModeCopy
	target.TargetPath = "/y"
	if err := s.UpsertTarget(ctx, target); err != nil {
		t.Fatalf("UpsertTarget() second error = %v", err)
	}

	all, _ := s.ListAllTargets(ctx)
	if len(all) != 1 {
		t.Fatalf("ListAllTargets() len = %d, want 1", len(all))
	}
	got, err := s.GetTarget(ctx, ids[0], "cursor")
	if err != nil {
		t.Fatalf("GetTarget() error = %v", err)
	}
	if got.Mode != ModeCopy || got.TargetPath != "/y" {
		t.Errorf("GetTarget() = %+v", got)
	}

	if err := s.DeleteTarget(ctx, ids[0], "cursor"); err != nil {
		t.Fatalf("DeleteTarget() error = %v", err)
	}
	if err := s.DeleteTarget(ctx, ids[0], "cursor"); err != nil {
		t.Errorf("DeleteTarget() on missing row error = %v, want nil", err)
	}
	if _, err := s.GetTarget(ctx, ids[0], "cursor"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTarget() after delete error = %v, want ErrNotFound", err)
	}
}

func TestRepos(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i, r := range []RepoBookmark{
		{Owner: "anthropics", Name: "skills", URL: "https://github.com/anthropics/skills"},
		{Owner: "acme", Name: "tools", Branch: "dev", URL: "https://github.com/acme/tools"},
		{Owner: "Anthropics", Name: "Skills", Branch: "main", URL: "https://github.com/Anthropics/Skills"},
	} {
		r := r
		if err := s.UpsertRepo(ctx, &r); err != nil {
			t.Fatalf("UpsertRepo(%d) error = %v", i, err)
		}
	}

	repos, err := s.ListRepos(ctx)
	if err != nil {
		t.Fatalf("ListRepos() error = %v", err)
	}
	if len(repos) != 2 {
		t.Fatalf("ListRepos() len = %d, want 2 (dedup by owner/name)", len(repos))
	}
	var found *RepoBookmark
	for _, r := range repos {
		if r.FullName() == "anthropics/skills" {
			found = r
		}
	}
	if found == nil || found.Branch != "main" {
		t.Errorf("deduplicated bookmark = %+v, want branch main", found)
	}

	if err := s.DeleteRepo(ctx, "acme", "tools"); err != nil {
		t.Fatalf("DeleteRepo() error = %v", err)
	}
	if err := s.DeleteRepo(ctx, "acme", "tools"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteRepo() missing error = %v, want ErrNotFound", err)
	}
}

func TestPreferredTools(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, ok, err := s.PreferredTools(ctx)
	if err != nil || ok {
		t.Fatalf("PreferredTools() unset = ok %v, err %v; want false, nil", ok, err)
	}

	if err := s.SetPreferredTools(ctx, nil); err != nil {
		t.Fatalf("SetPreferredTools(nil) error = %v", err)
	}
	ids, ok, _ := s.PreferredTools(ctx)
	if !ok || len(ids) != 0 {
		t.Errorf("PreferredTools() after empty set = %v, %v; want [], true", ids, ok)
	}

	want := []string{"codex", "cursor"}
	if err := s.SetPreferredTools(ctx, want); err != nil {
		t.Fatalf("SetPreferredTools() error = %v", err)
	}
	ids, _, _ = s.PreferredTools(ctx)
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("PreferredTools() = %v, want %v", ids, want)
	}

	if err := s.ClearPreferredTools(ctx); err != nil {
		t.Fatalf("ClearPreferredTools() error = %v", err)
	}
	if _, ok, _ := s.PreferredTools(ctx); ok {
		t.Error("PreferredTools() after clear should be unset")
	}
}

func TestCustomTools(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ct := &CustomTool{Key: fmt.Sprintf("tool%d", i), Label: "Tool", SkillsDir: ".tool/skills", DetectDir: ".tool"}
		if err := s.SaveCustomTool(ctx, ct); err != nil {
			t.Fatalf("SaveCustomTool() error = %v", err)
		}
	}
	list, err := s.ListCustomTools(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListCustomTools() = %d, %v; want 2", len(list), err)
	}
	if err := s.DeleteCustomTool(ctx, "tool0"); err != nil {
		t.Fatalf("DeleteCustomTool() error = %v", err)
	}
	if err := s.DeleteCustomTool(ctx, "tool0"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteCustomTool() missing error = %v, want ErrNotFound", err)
	}
}
