package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sakif/snipet/internal/apperror"
	"github.com/sakif/snipet/internal/model"
)

func newVersionService(store *mockStore) *VersionService {
	return NewVersionService(store, store, testLogger())
}

func TestRevise_SnapshotsOnCodeChange(t *testing.T) {
	store := newMockStore()
	svc := newVersionService(store)
	snippet := store.seedSnippet(t, "author-1", "my snippet", "original code")

	updated, err := svc.Revise(context.Background(), snippet.ID, "author-1", ReviseSnippetInput{
		Title:    snippet.Title,
		Language: snippet.Language,
		Code:     "brand new code",
	})
	if err != nil {
		t.Fatalf("Revise() error = %v", err)
	}
	if updated.Code != "brand new code" {
		t.Errorf("Code = %q, want the new code", updated.Code)
	}

	versions, err := store.ListVersions(context.Background(), snippet.ID)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 1 {
		t.Fatalf("got %d versions, want 1", len(versions))
	}
	// The snapshot holds the code as it was before the edit.
	if versions[0].Code != "original code" {
		t.Errorf("snapshot code = %q, want the pre-edit code", versions[0].Code)
	}
	if versions[0].AuthorID != "author-1" {
		t.Errorf("snapshot author = %q, want %q", versions[0].AuthorID, "author-1")
	}
}

func TestRevise_NoSnapshotWhenCodeUnchanged(t *testing.T) {
	store := newMockStore()
	svc := newVersionService(store)
	snippet := store.seedSnippet(t, "author-1", "my snippet", "stable code!")

	_, err := svc.Revise(context.Background(), snippet.ID, "author-1", ReviseSnippetInput{
		Title:    "new title entirely",
		Language: snippet.Language,
		Code:     "stable code!",
	})
	if err != nil {
		t.Fatalf("Revise() error = %v", err)
	}

	versions, _ := store.ListVersions(context.Background(), snippet.ID)
	if len(versions) != 0 {
		t.Errorf("got %d versions for a metadata-only edit, want 0", len(versions))
	}
}

func TestRevise_SnapshotFailureAborts(t *testing.T) {
	store := newMockStore()
	svc := newVersionService(store)
	snippet := store.seedSnippet(t, "author-1", "my snippet", "original code")

	store.snapshotErr = errors.New("disk full")

	_, err := svc.Revise(context.Background(), snippet.ID, "author-1", ReviseSnippetInput{
		Title:    snippet.Title,
		Language: snippet.Language,
		Code:     "doomed edit!",
	})
	if err == nil {
		t.Fatal("Revise() should fail when the snapshot write fails")
	}

	current, _ := store.GetByID(context.Background(), snippet.ID)
	if current.Code != "original code" {
		t.Errorf("code = %q after failed revise, want untouched", current.Code)
	}
}

func TestRevise_ConcurrentEditConflicts(t *testing.T) {
	store := newMockStore()
	svc := newVersionService(store)
	snippet := store.seedSnippet(t, "author-1", "my snippet", "base code!!")

	// Another edit landing between Revise's read and its guarded write makes
	// the store report a conflict.
	store.snapshotErr = apperror.Conflict("snippet", snippet.ID)

	_, err := svc.Revise(context.Background(), snippet.ID, "author-1", ReviseSnippetInput{
		Title: snippet.Title, Language: snippet.Language, Code: "losing edit!",
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Revise() error = %v, want ErrConflict", err)
	}
}

func TestRevise_OnlyAuthor(t *testing.T) {
	store := newMockStore()
	svc := newVersionService(store)
	snippet := store.seedSnippet(t, "author-1", "my snippet", "original code")

	_, err := svc.Revise(context.Background(), snippet.ID, "intruder", ReviseSnippetInput{
		Title: snippet.Title, Language: snippet.Language, Code: "hijacked!!!",
	})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Revise() by non-author error = %v, want ErrForbidden", err)
	}
}

func TestTimeline_MergesParentVersions(t *testing.T) {
	store := newMockStore()
	svc := newVersionService(store)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	parent := store.seedSnippet(t, "author-1", "parent", "parent code v3")
	store.addVersion(parent.ID, "parent code v1", base)
	store.addVersion(parent.ID, "parent code v2", base.Add(time.Hour))

	fork := store.seedSnippet(t, "author-2", "Fork of parent", "fork code v2!")
	fork.ForkedFrom = parent.ID
	store.snippets[fork.ID].ForkedFrom = parent.ID
	store.addVersion(fork.ID, "fork code v1!", base.Add(2*time.Hour))

	timeline, err := svc.Timeline(context.Background(), fork.ID, "")
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if len(timeline) != 3 {
		t.Fatalf("got %d entries, want 3 (1 own + 2 inherited)", len(timeline))
	}

	// Newest first across both sources.
	wantCodes := []string{"fork code v1!", "parent code v2", "parent code v1"}
	wantInherited := []bool{false, true, true}
	for i, entry := range timeline {
		if entry.Code != wantCodes[i] {
			t.Errorf("entry %d code = %q, want %q", i, entry.Code, wantCodes[i])
		}
		if entry.Inherited != wantInherited[i] {
			t.Errorf("entry %d inherited = %v, want %v", i, entry.Inherited, wantInherited[i])
		}
	}
}

func TestTimeline_ParentFetchFailureDegrades(t *testing.T) {
	store := newMockStore()
	svc := newVersionService(store)

	parent := store.seedSnippet(t, "author-1", "parent", "parent code!")
	fork := store.seedSnippet(t, "author-2", "Fork of parent", "fork code v2")
	store.snippets[fork.ID].ForkedFrom = parent.ID
	store.addVersion(fork.ID, "fork code v1", time.Now())

	store.listVersionsErr[parent.ID] = errors.New("parent gone")

	timeline, err := svc.Timeline(context.Background(), fork.ID, "")
	if err != nil {
		t.Fatalf("Timeline() error = %v, parent failure must not fail the request", err)
	}
	if len(timeline) != 1 {
		t.Fatalf("got %d entries, want just the fork's own version", len(timeline))
	}
	if timeline[0].Inherited {
		t.Error("own version marked inherited")
	}
}

func TestTimeline_PrivateParentHidesInherited(t *testing.T) {
	store := newMockStore()
	svc := newVersionService(store)

	parent := store.seedSnippet(t, "author-1", "parent", "parent code v2")
	store.addVersion(parent.ID, "parent code v1", time.Now())
	store.snippets[parent.ID].Visibility = model.VisibilityPrivate

	fork := store.seedSnippet(t, "author-2", "Fork of parent", "fork code v2!")
	store.snippets[fork.ID].ForkedFrom = parent.ID
	store.addVersion(fork.ID, "fork code v1!", time.Now())

	// A parent made private after the fork takes its history with it.
	timeline, err := svc.Timeline(context.Background(), fork.ID, "author-2")
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if len(timeline) != 1 {
		t.Fatalf("got %d entries, want just the fork's own version", len(timeline))
	}
	if timeline[0].Inherited {
		t.Error("own version marked inherited")
	}

	// The parent's author still sees the inherited entries.
	timeline, err = svc.Timeline(context.Background(), fork.ID, "author-1")
	if err != nil {
		t.Fatalf("Timeline() as parent author error = %v", err)
	}
	if len(timeline) != 2 {
		t.Errorf("got %d entries for the parent author, want 2", len(timeline))
	}
}

func TestDiff_PrivateParentVersionHidden(t *testing.T) {
	store := newMockStore()
	svc := newVersionService(store)

	parent := store.seedSnippet(t, "author-1", "parent", "parent code v2")
	v := store.addVersion(parent.ID, "parent code v1", time.Now())
	store.snippets[parent.ID].Visibility = model.VisibilityPrivate

	fork := store.seedSnippet(t, "author-2", "Fork of parent", "fork code v1!")
	store.snippets[fork.ID].ForkedFrom = parent.ID

	_, err := svc.Diff(context.Background(), fork.ID, v.ID, "author-2")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Diff() against a private parent's version error = %v, want ErrNotFound", err)
	}
}

func TestTimeline_PrivateSnippetHidden(t *testing.T) {
	store := newMockStore()
	svc := newVersionService(store)

	snippet := store.seedSnippet(t, "author-1", "secret", "hidden code!")
	store.snippets[snippet.ID].Visibility = model.VisibilityPrivate

	_, err := svc.Timeline(context.Background(), snippet.ID, "someone-else")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Timeline() on private snippet error = %v, want ErrNotFound", err)
	}

	// The author still sees it.
	if _, err := svc.Timeline(context.Background(), snippet.ID, "author-1"); err != nil {
		t.Errorf("Timeline() for author error = %v", err)
	}
}

func TestDiff_RendersUnified(t *testing.T) {
	store := newMockStore()
	svc := newVersionService(store)

	snippet := store.seedSnippet(t, "author-1", "diffed", "line one\nline two\n")
	v := store.addVersion(snippet.ID, "line one\nline 2\n", time.Now())

	text, err := svc.Diff(context.Background(), snippet.ID, v.ID, "")
	if err != nil {
		t.Fatalf("Diff() error = %v", err)
	}
	if !strings.Contains(text, "-line 2") || !strings.Contains(text, "+line two") {
		t.Errorf("diff missing expected hunks:\n%s", text)
	}
}

func TestDiff_VersionOfOtherSnippetRejected(t *testing.T) {
	store := newMockStore()
	svc := newVersionService(store)

	a := store.seedSnippet(t, "author-1", "snippet a", "aaaa aaaa aaaa")
	b := store.seedSnippet(t, "author-1", "snippet b", "bbbb bbbb bbbb")
	vb := store.addVersion(b.ID, "old b code!", time.Now())

	_, err := svc.Diff(context.Background(), a.ID, vb.ID, "")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Diff() across snippets error = %v, want ErrNotFound", err)
	}
}
