package service

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/sfarevalo/immich-tv/internal/domain"
)

// NameMatch is one ranked match against a name list
type NameMatch struct {
	Index int // index in the source slice
	Name  string
	Rank  int // lower is better
}

// FilterNames ranks names against a query with unicode-folding fuzzy
// matching. An empty query matches nothing.
func FilterNames(query string, names []string) []NameMatch {
	if query == "" {
		return nil
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Sort(ranks)

	matches := make([]NameMatch, 0, len(ranks))
	for _, r := range ranks {
		matches = append(matches, NameMatch{
			Index: r.OriginalIndex,
			Name:  r.Target,
			Rank:  r.Distance,
		})
	}
	return matches
}

// FilterAlbums returns albums whose name fuzzily matches the query, best first
func FilterAlbums(query string, albums []domain.Album) []domain.Album {
	names := make([]string, len(albums))
	for i, a := range albums {
		names[i] = a.AlbumName
	}

	matches := FilterNames(query, names)
	out := make([]domain.Album, 0, len(matches))
	for _, m := range matches {
		out = append(out, albums[m.Index])
	}
	return out
}

// FilterPeople returns people whose name fuzzily matches the query, best first
func FilterPeople(query string, people []domain.Person) []domain.Person {
	names := make([]string, len(people))
	for i, p := range people {
		names[i] = p.Name
	}

	matches := FilterNames(query, names)
	out := make([]domain.Person, 0, len(matches))
	for _, m := range matches {
		out = append(out, people[m.Index])
	}
	return out
}

// FilterFolders walks the tree and returns folders whose full path fuzzily
// matches the query, best first.
func FilterFolders(query string, root *domain.Folder) []*domain.Folder {
	var folders []*domain.Folder
	var walk func(f *domain.Folder)
	walk = func(f *domain.Folder) {
		if !f.IsRoot() {
			folders = append(folders, f)
		}
		for _, c := range f.Children {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}

	paths := make([]string, len(folders))
	for i, f := range folders {
		paths[i] = f.Path()
	}

	matches := FilterNames(query, paths)
	out := make([]*domain.Folder, 0, len(matches))
	for _, m := range matches {
		out = append(out, folders[m.Index])
	}
	return out
}
