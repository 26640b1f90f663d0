package repositories

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ytlists/internal/models"
	"github.com/desertthunder/ytlists/internal/shared"
)

var fixedNow = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// sequentialIDs returns a generator yielding pl_1, pl_2, ...
func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("pl_%d", n)
	}
}

// setupTestDocuments returns a fresh backend of each kind.
func setupTestDocuments(t *testing.T) map[string]Documents {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return map[string]Documents{
		"file":   NewFileDocuments(t.TempDir()),
		"sqlite": NewSQLiteDocuments(db),
	}
}

func newTestPlaylistStore(docs Documents, opts ...Option) *PlaylistStore {
	opts = append([]Option{WithClock(fixedClock), WithIDGenerator(sequentialIDs())}, opts...)
	return NewPlaylistStore(docs, opts...)
}

func song(id string) models.PlaylistItem {
	return models.PlaylistItem{VideoID: id, Title: "Song " + id, ThumbnailURL: "https://i.ytimg.com/" + id, DurationSec: 213, Views: 42}
}

func assertKind(t *testing.T, err, kind error, msg string) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
	if got, _ := shared.PublicMessage(err); got != msg {
		t.Errorf("expected message %q, got %q", msg, got)
	}
}

func TestPlaylistStore(t *testing.T) {
	for backend, docs := range setupTestDocuments(t) {
		t.Run(backend, func(t *testing.T) {
			store := newTestPlaylistStore(docs)

			t.Run("empty store lists nothing", func(t *testing.T) {
				got, err := store.ListForUser("alice")
				if err != nil {
					t.Fatalf("list failed: %v", err)
				}
				if got == nil || len(got) != 0 {
					t.Errorf("expected empty non-nil slice, got %#v", got)
				}
			})

			var pl models.Playlist
			t.Run("Create trims the name", func(t *testing.T) {
				var err error
				pl, err = store.Create("alice", "  Favorites  ")
				if err != nil {
					t.Fatalf("create failed: %v", err)
				}
				if pl.Name != "Favorites" || pl.Username != "alice" || pl.ID == "" {
					t.Errorf("unexpected playlist %+v", pl)
				}
				if pl.Items == nil || len(pl.Items) != 0 {
					t.Errorf("expected empty items, got %#v", pl.Items)
				}
				if !pl.CreatedAt.Equal(fixedNow) {
					t.Errorf("expected createdAt %v, got %v", fixedNow, pl.CreatedAt)
				}
			})

			t.Run("Create rejects blank names", func(t *testing.T) {
				_, err := store.Create("alice", "   ")
				assertKind(t, err, shared.ErrInvalidInput, "Playlist name required.")
			})

			t.Run("AddItem is idempotent per playlist", func(t *testing.T) {
				first, err := store.AddItem("alice", pl.ID, song("abc123"))
				if err != nil {
					t.Fatalf("add failed: %v", err)
				}
				second, err := store.AddItem("alice", pl.ID, models.PlaylistItem{VideoID: "abc123", Title: "Other"})
				if err != nil {
					t.Fatalf("second add failed: %v", err)
				}
				if len(first.Items) != 1 || len(second.Items) != 1 {
					t.Fatalf("expected one item, got %d then %d", len(first.Items), len(second.Items))
				}
				if second.Items[0].Title != "Song abc123" {
					t.Errorf("duplicate add must not overwrite, got title %q", second.Items[0].Title)
				}
				if second.Items[0].Rating != 0 || !second.Items[0].AddedAt.Equal(fixedNow) {
					t.Errorf("unexpected defaults %+v", second.Items[0])
				}
			})

			t.Run("same video in another playlist is independent", func(t *testing.T) {
				other, _ := store.Create("alice", "Workout")
				got, err := store.AddItem("alice", other.ID, song("abc123"))
				if err != nil || len(got.Items) != 1 {
					t.Fatalf("add to second playlist failed: %v", err)
				}
				if _, err := store.SetRating("alice", other.ID, "abc123", 2); err != nil {
					t.Fatalf("rate failed: %v", err)
				}
				orig, _ := store.Get("alice", pl.ID)
				if orig.Items[0].Rating != 0 {
					t.Error("rating leaked across playlists")
				}
				if err := store.Delete("alice", other.ID); err != nil {
					t.Fatalf("delete failed: %v", err)
				}
			})

			t.Run("AddItem validates before ownership", func(t *testing.T) {
				_, err := store.AddItem("alice", "missing", models.PlaylistItem{Title: "no id"})
				assertKind(t, err, shared.ErrInvalidInput, "Invalid item payload.")
				_, err = store.AddItem("alice", pl.ID, models.PlaylistItem{VideoID: "x"})
				assertKind(t, err, shared.ErrInvalidInput, "Invalid item payload.")
				_, err = store.AddItem("alice", "missing", song("x"))
				assertKind(t, err, shared.ErrNotFound, "Playlist not found.")
			})

			t.Run("SetRating boundaries", func(t *testing.T) {
				for _, r := range []int{0, 5} {
					got, err := store.SetRating("alice", pl.ID, "abc123", r)
					if err != nil {
						t.Fatalf("rating %d rejected: %v", r, err)
					}
					if got.Items[0].Rating != r {
						t.Errorf("expected rating %d, got %d", r, got.Items[0].Rating)
					}
				}
				for _, r := range []int{-1, 6} {
					_, err := store.SetRating("alice", pl.ID, "abc123", r)
					assertKind(t, err, shared.ErrInvalidInput, "Rating must be an integer between 0 and 5.")
				}
				_, err := store.SetRating("alice", pl.ID, "nope", 3)
				assertKind(t, err, shared.ErrNotFound, "Item not found.")
			})

			t.Run("foreign playlists look missing", func(t *testing.T) {
				mine, _ := store.ListForUser("bob")
				if len(mine) != 0 {
					t.Errorf("bob should see no playlists, got %d", len(mine))
				}

				_, err := store.Get("bob", pl.ID)
				assertKind(t, err, shared.ErrNotFound, "Playlist not found.")
				_, err = store.AddItem("bob", pl.ID, song("zzz"))
				assertKind(t, err, shared.ErrNotFound, "Playlist not found.")
				_, err = store.SetRating("bob", pl.ID, "abc123", 1)
				assertKind(t, err, shared.ErrNotFound, "Playlist not found.")
				_, err = store.RemoveItem("bob", pl.ID, "abc123")
				assertKind(t, err, shared.ErrNotFound, "Playlist not found.")
				assertKind(t, store.Delete("bob", pl.ID), shared.ErrNotFound, "Playlist not found.")
				assertKind(t, store.Delete("alice", "missing"), shared.ErrNotFound, "Playlist not found.")

				still, err := store.Get("alice", pl.ID)
				if err != nil || len(still.Items) != 1 || still.Items[0].Rating != 5 {
					t.Errorf("alice's playlist changed: %+v %v", still, err)
				}
			})

			t.Run("ownership is exact", func(t *testing.T) {
				_, err := store.Get("Alice", pl.ID)
				assertKind(t, err, shared.ErrNotFound, "Playlist not found.")
			})

			t.Run("empty identity is rejected", func(t *testing.T) {
				_, err := store.ListForUser("")
				if !errors.Is(err, shared.ErrNotAuthenticated) {
					t.Errorf("expected ErrNotAuthenticated, got %v", err)
				}
			})

			t.Run("round trip through a new store", func(t *testing.T) {
				reloaded := NewPlaylistStore(docs)
				got, err := reloaded.Get("alice", pl.ID)
				if err != nil {
					t.Fatalf("reload failed: %v", err)
				}
				want, _ := store.Get("alice", pl.ID)
				if !reflect.DeepEqual(got, want) {
					t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
				}
			})

			t.Run("RemoveItem", func(t *testing.T) {
				got, err := store.RemoveItem("alice", pl.ID, "abc123")
				if err != nil {
					t.Fatalf("remove failed: %v", err)
				}
				if len(got.Items) != 0 {
					t.Errorf("expected empty items, got %d", len(got.Items))
				}
				_, err = store.RemoveItem("alice", pl.ID, "abc123")
				assertKind(t, err, shared.ErrNotFound, "Item not found.")
			})

			t.Run("Delete", func(t *testing.T) {
				if err := store.Delete("alice", pl.ID); err != nil {
					t.Fatalf("delete failed: %v", err)
				}
				_, err := store.Get("alice", pl.ID)
				assertKind(t, err, shared.ErrNotFound, "Playlist not found.")
			})
		})
	}
}

func TestPlaylistStoreConcurrency(t *testing.T) {
	for backend, docs := range setupTestDocuments(t) {
		t.Run(backend, func(t *testing.T) {
			store := newTestPlaylistStore(docs)

			t.Run("concurrent creates are all kept", func(t *testing.T) {
				var wg sync.WaitGroup
				for i := range 40 {
					wg.Add(1)
					go func() {
						defer wg.Done()
						if _, err := store.Create("carol", fmt.Sprintf("list %d", i)); err != nil {
							t.Error(err)
						}
					}()
				}
				wg.Wait()

				got, err := store.ListForUser("carol")
				if err != nil {
					t.Fatalf("list failed: %v", err)
				}
				if len(got) != 40 {
					t.Errorf("expected 40 playlists, got %d", len(got))
				}
			})

			t.Run("concurrent ratings on different items are all kept", func(t *testing.T) {
				pl, _ := store.Create("dave", "Mix")
				for i := range 5 {
					if _, err := store.AddItem("dave", pl.ID, song(fmt.Sprintf("v%d", i))); err != nil {
						t.Fatalf("add failed: %v", err)
					}
				}
				other, _ := store.Create("erin", "Untouched")
				_, _ = store.AddItem("erin", other.ID, song("keep"))

				var wg sync.WaitGroup
				for i := range 5 {
					wg.Add(1)
					go func() {
						defer wg.Done()
						if _, err := store.SetRating("dave", pl.ID, fmt.Sprintf("v%d", i), i+1); err != nil {
							t.Error(err)
						}
					}()
				}
				wg.Wait()

				got, _ := store.Get("dave", pl.ID)
				for i, item := range got.Items {
					if item.Rating != i+1 {
						t.Errorf("item %s: expected rating %d, got %d", item.VideoID, i+1, item.Rating)
					}
				}

				untouched, _ := store.Get("erin", other.ID)
				if len(untouched.Items) != 1 || untouched.Items[0].Rating != 0 {
					t.Errorf("unrelated playlist changed: %+v", untouched)
				}
			})

			t.Run("concurrent ratings on one item leave one of the values", func(t *testing.T) {
				pl, _ := store.Create("frank", "Race")
				_, _ = store.AddItem("frank", pl.ID, song("same"))

				var wg sync.WaitGroup
				for _, r := range []int{2, 4} {
					wg.Add(1)
					go func() {
						defer wg.Done()
						if _, err := store.SetRating("frank", pl.ID, "same", r); err != nil {
							t.Error(err)
						}
					}()
				}
				wg.Wait()

				got, _ := store.Get("frank", pl.ID)
				if len(got.Items) != 1 {
					t.Fatalf("expected one item, got %d", len(got.Items))
				}
				if r := got.Items[0].Rating; r != 2 && r != 4 {
					t.Errorf("expected rating 2 or 4, got %d", r)
				}
			})
		})
	}
}

func TestCorruptDocuments(t *testing.T) {
	write := func(t *testing.T, body string) *FileDocuments {
		t.Helper()
		docs := NewFileDocuments(t.TempDir())
		if err := docs.Write(PlaylistsDocument, []byte(body)); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
		return docs
	}

	t.Run("empty file is an empty collection", func(t *testing.T) {
		store := NewPlaylistStore(write(t, "  \n"))
		got, err := store.ListForUser("alice")
		if err != nil || len(got) != 0 {
			t.Errorf("expected empty list, got %v %v", got, err)
		}
	})

	t.Run("null is an empty collection", func(t *testing.T) {
		store := NewPlaylistStore(write(t, "null"))
		got, err := store.ListForUser("alice")
		if err != nil || got == nil || len(got) != 0 {
			t.Errorf("expected empty list, got %v %v", got, err)
		}
	})

	t.Run("strict reads surface corruption", func(t *testing.T) {
		store := NewPlaylistStore(write(t, "{not json"))
		if _, err := store.ListForUser("alice"); !errors.Is(err, shared.ErrCorruptData) {
			t.Errorf("expected ErrCorruptData, got %v", err)
		}
		if _, err := store.Create("alice", "x"); !errors.Is(err, shared.ErrCorruptData) {
			t.Errorf("mutations must not overwrite corrupt data, got %v", err)
		}
	})

	t.Run("lenient reads fall back to empty", func(t *testing.T) {
		docs := write(t, "{not json")
		store := NewPlaylistStore(docs, WithStrictReads(false))
		got, err := store.ListForUser("alice")
		if err != nil || len(got) != 0 {
			t.Errorf("expected empty list, got %v %v", got, err)
		}
		if _, err := store.Create("alice", "fresh"); err != nil {
			t.Errorf("expected create to succeed, got %v", err)
		}
	})
}

// failingDocuments fails every write.
type failingDocuments struct {
	Documents
}

func (failingDocuments) Write(string, []byte) error { return errors.New("disk full") }

func TestPersistFailure(t *testing.T) {
	store := NewPlaylistStore(failingDocuments{NewFileDocuments(t.TempDir())})
	if _, err := store.Create("alice", "Favorites"); err == nil {
		t.Fatal("expected write failure to surface")
	}
	got, _ := store.ListForUser("alice")
	if len(got) != 0 {
		t.Error("failed write must not be visible")
	}
}

func TestFileDocuments(t *testing.T) {
	dir := t.TempDir()
	docs := NewFileDocuments(filepath.Join(dir, "data"))

	if _, err := docs.Read("users"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}

	for _, body := range []string{`[1]`, `[1,2]`} {
		if err := docs.Write("users", []byte(body)); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		got, err := docs.Read("users")
		if err != nil || string(got) != body {
			t.Errorf("expected %s, got %s (%v)", body, got, err)
		}
	}

	entries, _ := os.ReadDir(filepath.Join(dir, "data"))
	if len(entries) != 1 || entries[0].Name() != "users.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only users.json, found %v", names)
	}
}

func TestOpenDocuments(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		docs, closeFn, err := OpenDocuments(shared.StorageConfig{Backend: shared.BackendFile, DataDir: t.TempDir()})
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		defer closeFn()
		if _, ok := docs.(*FileDocuments); !ok {
			t.Errorf("expected *FileDocuments, got %T", docs)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ytlists.db")
		docs, closeFn, err := OpenDocuments(shared.StorageConfig{Backend: shared.BackendSQLite, SQLitePath: path})
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		defer closeFn()

		users := NewUserStore(docs)
		if err := users.Create(models.User{Username: "alice"}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if _, ok, _ := users.FindByUsername("ALICE"); !ok {
			t.Error("expected to find alice")
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, _, err := OpenDocuments(shared.StorageConfig{Backend: "etcd"}); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestUserStore(t *testing.T) {
	for backend, docs := range setupTestDocuments(t) {
		t.Run(backend, func(t *testing.T) {
			users := NewUserStore(docs)

			if err := users.Create(models.User{Username: "alice", PasswordHash: "h"}); err != nil {
				t.Fatalf("create failed: %v", err)
			}

			err := users.Create(models.User{Username: "ALICE", PasswordHash: "h2"})
			assertKind(t, err, shared.ErrConflict, "Username already exists.")

			u, ok, err := users.FindByUsername("Alice")
			if err != nil || !ok || u.Username != "alice" {
				t.Errorf("lookup failed: %+v %v %v", u, ok, err)
			}

			if _, ok, _ := users.FindByUsername("bob"); ok {
				t.Error("did not expect to find bob")
			}

			all, err := users.List()
			if err != nil || len(all) != 1 {
				t.Errorf("expected one user, got %d (%v)", len(all), err)
			}
		})
	}

	t.Run("concurrent registrations of one name", func(t *testing.T) {
		users := NewUserStore(NewFileDocuments(t.TempDir()))

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			conflicts int
		)
		for _, name := range []string{"zoe", "Zoe", "ZOE", "zOe"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := users.Create(models.User{Username: name}); errors.Is(err, shared.ErrConflict) {
					mu.Lock()
					conflicts++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		all, _ := users.List()
		if len(all) != 1 || conflicts != 3 {
			t.Errorf("expected one user and three conflicts, got %d users, %d conflicts", len(all), conflicts)
		}
	})
}
